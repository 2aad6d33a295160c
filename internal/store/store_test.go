package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already migrated; a second run must be a no-op.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2", result.Version)
	}
}

func TestMigrateSchemaHasRequiredColumns(t *testing.T) {
	db := testDB(t)

	ops := []struct {
		desc  string
		query string
		args  []any
	}{
		{"insert run", "INSERT INTO scan_runs (id, session, target, keywords, started_at) VALUES (?, ?, ?, ?, ?)", []any{"r1", "main", "@market", "bike", 1000}},
		{"update counters", "UPDATE scan_runs SET scanned = 1, matched = 1, forwarded = 1, last_msg_id = 9, error_kind = '', error = '' WHERE id = ?", []any{"r1"}},
		{"insert forward", "INSERT INTO forwards (run_id, msg_id, keyword, forwarded_at) VALUES (?, ?, ?, ?)", []any{"r1", 9, "bike", 1001}},
	}
	for _, op := range ops {
		t.Run(op.desc, func(t *testing.T) {
			if _, err := db.Exec(op.query, op.args...); err != nil {
				t.Fatalf("%s failed: %v", op.desc, err)
			}
		})
	}
}

func TestRunLifecycle(t *testing.T) {
	db := testDB(t)

	run := &Run{ID: "r1", Session: "main", Target: "@market", Keywords: []string{"bike", "lock"}, StartedAt: 1000}
	if err := db.InsertRun(run); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetRun("r1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Outcome != OutcomeRunning || got.FinishedAt != 0 {
		t.Fatalf("got %+v, want running run", got)
	}
	if !reflect.DeepEqual(got.Keywords, []string{"bike", "lock"}) {
		t.Errorf("keywords = %v", got.Keywords)
	}

	if err := db.UpdateRunProgress("r1", 10, 2, 2, 55); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetRun("r1")
	if got.Scanned != 10 || got.Matched != 2 || got.Forwarded != 2 || got.LastMsgID != 55 {
		t.Errorf("progress = %+v", got)
	}

	run.Outcome = "failed"
	run.ErrorKind = "forward_failed"
	run.Error = "forward failed (message 56): FLOOD_WAIT"
	run.Scanned, run.Matched, run.Forwarded, run.LastMsgID = 11, 3, 2, 56
	run.FinishedAt = 2000
	if err := db.FinishRun(run); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetRun("r1")
	if got.Outcome != "failed" || got.ErrorKind != "forward_failed" || got.FinishedAt != 2000 || got.Scanned != 11 {
		t.Errorf("finished run = %+v", got)
	}

	// Late progress must not reopen a finished run.
	if err := db.UpdateRunProgress("r1", 99, 99, 99, 99); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetRun("r1")
	if got.Scanned != 11 {
		t.Errorf("scanned = %d after late progress, want 11", got.Scanned)
	}
}

func TestGetRunMissing(t *testing.T) {
	db := testDB(t)
	r, err := db.GetRun("missing")
	if err != nil {
		t.Fatal(err)
	}
	if r != nil {
		t.Errorf("expected nil for missing run, got %+v", r)
	}
}

func TestListRuns(t *testing.T) {
	db := testDB(t)

	for i, r := range []Run{
		{ID: "a", Session: "main", Target: "@x", Keywords: []string{"k"}, StartedAt: 1000},
		{ID: "b", Session: "work", Target: "@y", Keywords: []string{"k"}, StartedAt: 2000},
		{ID: "c", Session: "main", Target: "@z", Keywords: []string{"k"}, StartedAt: 3000},
	} {
		if err := db.InsertRun(&r); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	runs, err := db.ListRuns("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if ids := runIDs(runs); !reflect.DeepEqual(ids, []string{"c", "b", "a"}) {
		t.Errorf("ListRuns = %v, want newest first", ids)
	}

	runs, err = db.ListRuns("main", 10)
	if err != nil {
		t.Fatal(err)
	}
	if ids := runIDs(runs); !reflect.DeepEqual(ids, []string{"c", "a"}) {
		t.Errorf("ListRuns(main) = %v", ids)
	}

	runs, err = db.ListRuns("", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("limit ignored: got %d runs", len(runs))
	}
}

func TestMarkInterrupted(t *testing.T) {
	db := testDB(t)

	if err := db.InsertRun(&Run{ID: "live", Session: "main", Target: "@x", Keywords: []string{"k"}, StartedAt: 1}); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertRun(&Run{ID: "done", Session: "main", Target: "@x", Keywords: []string{"k"}, StartedAt: 2}); err != nil {
		t.Fatal(err)
	}
	if err := db.FinishRun(&Run{ID: "done", Outcome: "completed"}); err != nil {
		t.Fatal(err)
	}

	n, err := db.MarkInterrupted()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("interrupted %d runs, want 1", n)
	}
	r, _ := db.GetRun("live")
	if r.Outcome != OutcomeInterrupted || r.FinishedAt == 0 {
		t.Errorf("live run = %+v", r)
	}
	r, _ = db.GetRun("done")
	if r.Outcome != "completed" {
		t.Errorf("finished run changed to %q", r.Outcome)
	}
}

func TestForwards(t *testing.T) {
	db := testDB(t)

	if err := db.InsertRun(&Run{ID: "r1", Session: "main", Target: "@x", Keywords: []string{"bike"}, StartedAt: 1}); err != nil {
		t.Fatal(err)
	}
	for _, f := range []Forward{
		{RunID: "r1", MsgID: 40, Keyword: "bike", ForwardedAt: 10},
		{RunID: "r1", MsgID: 38, Keyword: "bike", ForwardedAt: 20},
		{RunID: "r1", MsgID: 40, Keyword: "bike", ForwardedAt: 30},
	} {
		if err := db.InsertForward(&f); err != nil {
			t.Fatal(err)
		}
	}

	fwds, err := db.ListForwards("r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(fwds) != 2 {
		t.Fatalf("got %d forwards, want 2 (duplicate ignored)", len(fwds))
	}
	if fwds[0].MsgID != 40 || fwds[1].MsgID != 38 {
		t.Errorf("order = %d, %d", fwds[0].MsgID, fwds[1].MsgID)
	}

	// Forwards need an existing run.
	if err := db.InsertForward(&Forward{RunID: "nope", MsgID: 1, Keyword: "k", ForwardedAt: 1}); err == nil {
		t.Error("expected foreign key violation")
	}
}

func runIDs(runs []Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func TestResolveRunID(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{"abc12345-0001", "abc12345-0002", "def00000-0001"} {
		if err := db.InsertRun(&Run{ID: id, Session: "main", Target: "@market", Keywords: []string{"bike"}, StartedAt: 1}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"def00000-0001", "def00000-0001", nil},
		{"def", "def00000-0001", nil},
		{"abc12345-0002", "abc12345-0002", nil},
		{"abc", "", ErrAmbiguousRun},
		{"zzz", "", ErrRunNotFound},
		{"", "", ErrRunNotFound},
		{"%", "", ErrRunNotFound},
	}
	for _, tt := range tests {
		got, err := db.ResolveRunID(tt.in)
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("ResolveRunID(%q) = %q, %v; want %q, %v", tt.in, got, err, tt.want, tt.err)
		}
	}
}

func TestRunKeywordsRoundTrip(t *testing.T) {
	db := testDB(t)

	want := []string{"bike, used", "lock"}
	if err := db.InsertRun(&Run{ID: "r1", Session: "main", Target: "@market", Keywords: want, StartedAt: 1}); err != nil {
		t.Fatal(err)
	}
	runs, err := db.ListRuns("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if !reflect.DeepEqual(runs[0].Keywords, want) {
		t.Fatalf("keywords = %q, want %q", runs[0].Keywords, want)
	}

	// Rows from before the JSON encoding hold a comma-joined list.
	if _, err := db.Exec(`INSERT INTO scan_runs (id, session, target, keywords, started_at) VALUES ('old', 'main', '@x', 'bike,lock', 0)`); err != nil {
		t.Fatal(err)
	}
	old, err := db.GetRun("old")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(old.Keywords, []string{"bike", "lock"}) {
		t.Errorf("legacy keywords = %q", old.Keywords)
	}
}
