package telegram

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/secrets"
	"github.com/matheus3301/tgscan/internal/session"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want targetRef
	}{
		{"@market", targetRef{domain: "market"}},
		{"market", targetRef{domain: "market"}},
		{"t.me/market", targetRef{domain: "market"}},
		{"https://t.me/market/123", targetRef{domain: "market"}},
		{"https://telegram.me/market?start=x", targetRef{domain: "market"}},
		{" me ", targetRef{self: true}},
		{"Self", targetRef{self: true}},
		{"777000", targetRef{id: 777000}},
		{"-4321", targetRef{id: 4321, chat: true}},
		{"-1001234567890", targetRef{id: 1234567890, channel: true}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTarget(tt.in)
			if err != nil {
				t.Fatalf("parseTarget(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseTarget(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTargetInvalid(t *testing.T) {
	for _, in := range []string{"", "  ", "@", "t.me/", "0", "two words"} {
		if _, err := parseTarget(in); err == nil {
			t.Errorf("parseTarget(%q) expected error", in)
		}
	}
}

func TestTargetRefMatches(t *testing.T) {
	channel := &tg.InputPeerChannel{ChannelID: 42, AccessHash: 1}
	chat := &tg.InputPeerChat{ChatID: 42}
	user := &tg.InputPeerUser{UserID: 42, AccessHash: 1}

	tests := []struct {
		name string
		ref  targetRef
		peer tg.InputPeerClass
		want bool
	}{
		{"bare id channel", targetRef{id: 42}, channel, true},
		{"bare id chat", targetRef{id: 42}, chat, true},
		{"bare id user", targetRef{id: 42}, user, true},
		{"channel form", targetRef{id: 42, channel: true}, channel, true},
		{"channel form vs chat", targetRef{id: 42, channel: true}, chat, false},
		{"chat form vs channel", targetRef{id: 42, chat: true}, channel, false},
		{"chat form vs user", targetRef{id: 42, chat: true}, user, false},
		{"other id", targetRef{id: 7}, channel, false},
		{"self", targetRef{id: 42}, &tg.InputPeerSelf{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.matches(tt.peer); got != tt.want {
				t.Errorf("matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToMessage(t *testing.T) {
	got := toMessage(&tg.Message{ID: 10, Message: "selling a bike"})
	if got != (scan.Message{ID: 10, Text: "selling a bike"}) {
		t.Errorf("toMessage(text) = %+v", got)
	}
	got = toMessage(&tg.MessageService{ID: 11})
	if got != (scan.Message{ID: 11}) {
		t.Errorf("toMessage(service) = %+v", got)
	}
}

type staticCreds struct {
	creds secrets.Credentials
	err   error
	saved map[string]secrets.Credentials
}

func (s *staticCreds) Lookup(string) (secrets.Credentials, error) { return s.creds, s.err }

func (s *staticCreds) Save(name string, c secrets.Credentials) error {
	if s.saved == nil {
		s.saved = make(map[string]secrets.Credentials)
	}
	s.saved[name] = c
	return nil
}

func TestConnectMissingSession(t *testing.T) {
	c := New(Options{
		Store:       session.NewStore(t.TempDir()),
		Credentials: &staticCreds{creds: secrets.Credentials{APIID: 1, APIHash: "h"}},
	})
	called := false
	err := c.Connect(context.Background(), "main", func(context.Context, scan.Conn) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("Connect error = %v, want ErrNoSession", err)
	}
	if called {
		t.Error("callback ran without a session")
	}
}

func TestConnectMissingCredentials(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main"+session.FileExt), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	c := New(Options{
		Store:       session.NewStore(dir),
		Credentials: &staticCreds{err: secrets.ErrNoCredentials},
	})
	err := c.Connect(context.Background(), "main", func(context.Context, scan.Conn) error { return nil })
	if !errors.Is(err, secrets.ErrNoCredentials) {
		t.Fatalf("Connect error = %v, want ErrNoCredentials", err)
	}
}

type noPrompt struct{}

func (noPrompt) Phone(context.Context) (string, error)    { return "", errors.New("unexpected") }
func (noPrompt) Code(context.Context) (string, error)     { return "", errors.New("unexpected") }
func (noPrompt) Password(context.Context) (string, error) { return "", errors.New("unexpected") }

func TestLoginRefusesExistingSession(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main"+session.FileExt)
	if err := os.WriteFile(path, []byte("keep"), 0600); err != nil {
		t.Fatal(err)
	}
	c := New(Options{Store: session.NewStore(dir), Credentials: &staticCreds{}})

	_, err := c.Login(context.Background(), LoginOptions{
		Session:     "main",
		Credentials: secrets.Credentials{APIID: 1, APIHash: "h"},
		Prompter:    noPrompt{},
	})
	if !errors.Is(err, ErrSessionExists) {
		t.Fatalf("Login error = %v, want ErrSessionExists", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "keep" {
		t.Errorf("existing session file modified: %q, %v", data, err)
	}
}

func TestLoginValidation(t *testing.T) {
	c := New(Options{Store: session.NewStore(t.TempDir()), Credentials: &staticCreds{}})
	ctx := context.Background()

	if _, err := c.Login(ctx, LoginOptions{Session: "../x", Credentials: secrets.Credentials{APIID: 1, APIHash: "h"}, Prompter: noPrompt{}}); err == nil {
		t.Error("expected error for invalid session name")
	}
	if _, err := c.Login(ctx, LoginOptions{Session: "main", Prompter: noPrompt{}}); !errors.Is(err, secrets.ErrNoCredentials) {
		t.Errorf("Login without credentials = %v", err)
	}
	if _, err := c.Login(ctx, LoginOptions{Session: "main", Credentials: secrets.Credentials{APIID: 1, APIHash: "h"}}); err == nil {
		t.Error("expected error without prompter")
	}
}
