package session

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/tgscan/internal/bus"
	"github.com/matheus3301/tgscan/internal/config"
)

type fakeState struct{ running atomic.Bool }

func (f *fakeState) Running() bool { return f.running.Load() }

func writeSessions(t *testing.T, dir string, files ...string) {
	t.Helper()
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	writeSessions(t, dir, "work.session", "main.session", "notes.txt", "bad name.session", "main.session-journal")
	if err := os.Mkdir(filepath.Join(dir, "dir.session"), 0700); err != nil {
		t.Fatal(err)
	}

	names, err := NewStore(dir).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"main", "work"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	names, err := NewStore(filepath.Join(t.TempDir(), "nope")).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v, want empty", names)
	}
}

func TestStoreExists(t *testing.T) {
	dir := t.TempDir()
	writeSessions(t, dir, "main.session")
	s := NewStore(dir)
	if !s.Exists("main") {
		t.Error("Exists(main) = false")
	}
	if s.Exists("work") {
		t.Error("Exists(work) = true for missing file")
	}
	if s.Exists("../main") {
		t.Error("Exists accepted an invalid name")
	}
}

func TestSelectSwitchesSession(t *testing.T) {
	dir := t.TempDir()
	writeSessions(t, dir, "main.session", "work.session")
	b := bus.New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	sel := NewSelector(NewStore(dir), &fakeState{}, b, "main")
	if err := sel.Select("work"); err != nil {
		t.Fatalf("Select(work) error = %v", err)
	}
	if sel.Active() != "work" {
		t.Errorf("Active() = %q, want work", sel.Active())
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindSessionSelected || evt.Payload != "work" {
			t.Errorf("event = %s/%v, want session.selected/work", evt.Kind, evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for session.selected")
	}
}

func TestSelectWhileRunningFails(t *testing.T) {
	dir := t.TempDir()
	writeSessions(t, dir, "main.session", "work.session")
	state := &fakeState{}
	state.running.Store(true)

	sel := NewSelector(NewStore(dir), state, nil, "main")
	err := sel.Select("work")
	if !errors.Is(err, ErrScanInProgress) {
		t.Fatalf("Select() error = %v, want ErrScanInProgress", err)
	}
	if sel.Active() != "main" {
		t.Errorf("Active() = %q after rejected select, want main", sel.Active())
	}

	state.running.Store(false)
	if err := sel.Select("work"); err != nil {
		t.Fatalf("Select() after stop error = %v", err)
	}
}

func TestSelectUnknownSession(t *testing.T) {
	sel := NewSelector(NewStore(t.TempDir()), &fakeState{}, nil, "main")
	if err := sel.Select("ghost"); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Select(ghost) error = %v, want ErrUnknownSession", err)
	}
	if sel.Active() != "main" {
		t.Errorf("Active() = %q, want main", sel.Active())
	}
}

func TestPinBlocksSelect(t *testing.T) {
	dir := t.TempDir()
	writeSessions(t, dir, "main.session", "work.session")
	state := &fakeState{}
	sel := NewSelector(NewStore(dir), state, nil, "main")

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = sel.Pin(func(active string) error {
			close(entered)
			<-release
			state.running.Store(true)
			return nil
		})
	}()
	<-entered

	done := make(chan error, 1)
	go func() { done <- sel.Select("work") }()

	select {
	case err := <-done:
		t.Fatalf("Select returned %v while pinned", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrScanInProgress) {
		t.Errorf("Select() after pin = %v, want ErrScanInProgress", err)
	}
}

func TestResolvePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeSessions(t, dir, "beta.session", "alpha.session")
	store := NewStore(dir)

	if got := Resolve("flag", &config.Config{DefaultSession: "cfg"}, store); got != "flag" {
		t.Errorf("Resolve with flag = %q, want flag", got)
	}
	if got := Resolve("", &config.Config{DefaultSession: "cfg"}, store); got != "cfg" {
		t.Errorf("Resolve with config = %q, want cfg", got)
	}
	if got := Resolve("", &config.Config{}, store); got != "alpha" {
		t.Errorf("Resolve from store = %q, want alpha", got)
	}
	if got := Resolve("", nil, NewStore(t.TempDir())); got != DefaultSessionName {
		t.Errorf("Resolve fallback = %q, want %q", got, DefaultSessionName)
	}
}
