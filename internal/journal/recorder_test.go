package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/tgscan/internal/bus"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecorderRecordsRunFromBus(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	r := NewRecorder(db, b, nil, time.Hour)
	r.Start(context.Background())

	start := time.UnixMilli(1_700_000_000_000)
	b.Emit(bus.KindScanStarted, scan.Started{RunID: "r1", Session: "main", Target: "@market", Keywords: []string{"bike"}, StartedAt: start})
	b.Emit(bus.KindScanProgress, scan.Progress{RunID: "r1", Scanned: 1})
	b.Emit(bus.KindScanForwarded, scan.Forwarded{RunID: "r1", MsgID: 77, Keyword: "bike", ForwardedAt: start.Add(time.Second)})
	b.Emit(bus.KindScanProgress, scan.Progress{RunID: "r1", Scanned: 2, Matched: 1, Forwarded: 1, LastMsgID: 77})
	b.Emit(bus.KindScanFinished, scan.Finished{
		Progress:   scan.Progress{RunID: "r1", Scanned: 3, Matched: 1, Forwarded: 1, LastMsgID: 76},
		Session:    "main",
		Target:     "@market",
		Outcome:    scan.OutcomeCompleted,
		FinishedAt: start.Add(2 * time.Second),
	})
	r.Stop()

	run, err := db.GetRun("r1")
	if err != nil {
		t.Fatal(err)
	}
	if run == nil {
		t.Fatal("run not recorded")
	}
	if run.StartedAt != start.UnixMilli() {
		t.Errorf("started_at = %d, want %d", run.StartedAt, start.UnixMilli())
	}
	if run.Outcome != "completed" || run.Scanned != 3 || run.Forwarded != 1 || run.LastMsgID != 76 {
		t.Errorf("run = %+v", run)
	}
	if len(run.Keywords) != 1 || run.Keywords[0] != "bike" {
		t.Errorf("keywords = %v", run.Keywords)
	}

	fwds, err := db.ListForwards("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(fwds) != 1 || fwds[0].MsgID != 77 || fwds[0].Keyword != "bike" {
		t.Errorf("forwards = %+v", fwds)
	}
}

func TestRecordProgressThrottled(t *testing.T) {
	db := testDB(t)
	r := NewRecorder(db, bus.New(), nil, time.Minute)

	if err := r.RecordStarted(scan.Started{RunID: "r1", Session: "main", Target: "@x", Keywords: []string{"k"}, StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if err := r.RecordProgress(scan.Progress{RunID: "r1", Scanned: 1}, now); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordProgress(scan.Progress{RunID: "r1", Scanned: 2}, now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	run, _ := db.GetRun("r1")
	if run.Scanned != 1 {
		t.Errorf("scanned = %d, want 1 (second write throttled)", run.Scanned)
	}

	if err := r.RecordProgress(scan.Progress{RunID: "r1", Scanned: 5}, now.Add(2*time.Minute)); err != nil {
		t.Fatal(err)
	}
	run, _ = db.GetRun("r1")
	if run.Scanned != 5 {
		t.Errorf("scanned = %d, want 5", run.Scanned)
	}
}

func TestRecordFinishedWithoutStart(t *testing.T) {
	db := testDB(t)
	r := NewRecorder(db, bus.New(), nil, 0)

	err := r.RecordFinished(scan.Finished{
		Progress:   scan.Progress{RunID: "orphan", Scanned: 4},
		Session:    "main",
		Target:     "@x",
		Outcome:    scan.OutcomeFailed,
		ErrorKind:  "connection_failed",
		Error:      "connection failed: dial tcp",
		FinishedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	run, err := db.GetRun("orphan")
	if err != nil || run == nil {
		t.Fatalf("GetRun = %v, %v", run, err)
	}
	if run.Outcome != "failed" || run.ErrorKind != "connection_failed" || run.Scanned != 4 {
		t.Errorf("run = %+v", run)
	}
}

func TestRecorderStartClosesInterruptedRuns(t *testing.T) {
	db := testDB(t)
	if err := db.InsertRun(&store.Run{ID: "stale", Session: "main", Target: "@x", Keywords: []string{"k"}, StartedAt: 1}); err != nil {
		t.Fatal(err)
	}

	r := NewRecorder(db, bus.New(), nil, 0)
	r.Start(context.Background())
	r.Stop()

	run, _ := db.GetRun("stale")
	if run.Outcome != store.OutcomeInterrupted {
		t.Errorf("outcome = %q, want %q", run.Outcome, store.OutcomeInterrupted)
	}
}
