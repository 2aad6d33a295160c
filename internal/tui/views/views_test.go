package views

import (
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/tui/ui"
)

func TestScanViewButtonsFollowState(t *testing.T) {
	sv := NewScanView(ui.DefaultTheme())
	starts, stops := 0, 0
	sv.SetOnStart(func(target, keywords string) { starts++ })
	sv.SetOnStop(func() { stops++ })

	if sv.Running() {
		t.Fatal("new view should show the stopped layout")
	}
	if sv.form.GetButton(startButton).IsDisabled() || !sv.form.GetButton(stopButton).IsDisabled() {
		t.Fatal("stopped: Start should be enabled, Stop disabled")
	}
	sv.stop()
	sv.start()

	sv.SetRunning(true)
	if !sv.form.GetButton(startButton).IsDisabled() || sv.form.GetButton(stopButton).IsDisabled() {
		t.Fatal("running: Start should be disabled, Stop enabled")
	}
	sv.start()
	sv.stop()

	if starts != 1 || stops != 1 {
		t.Fatalf("starts=%d stops=%d, want 1 and 1", starts, stops)
	}
}

func TestScanViewStartPassesFields(t *testing.T) {
	sv := NewScanView(ui.DefaultTheme())
	var gotTarget, gotKeywords string
	sv.SetOnStart(func(target, keywords string) { gotTarget, gotKeywords = target, keywords })

	sv.SetRequest("@market", "bike, lock")
	sv.start()
	if gotTarget != "@market" || gotKeywords != "bike, lock" {
		t.Fatalf("got %q / %q", gotTarget, gotKeywords)
	}
}

func TestScanViewSessionsDoNotFireSelect(t *testing.T) {
	sv := NewScanView(ui.DefaultTheme())
	var picked []string
	sv.SetOnSelect(func(name string) { picked = append(picked, name) })

	sv.SetSessions([]string{"main", "work"}, "work")
	if len(picked) != 0 {
		t.Fatalf("programmatic update fired select: %v", picked)
	}
	if idx, text := sv.sessions.GetCurrentOption(); idx != 1 || text != "work" {
		t.Fatalf("current option = %d %q", idx, text)
	}

	sv.sessions.SetCurrentOption(0)
	if len(picked) != 1 || picked[0] != "main" {
		t.Fatalf("operator pick not reported: %v", picked)
	}

	sv.SetSessions([]string{"main"}, "gone")
	if idx, _ := sv.sessions.GetCurrentOption(); idx != -1 {
		t.Fatalf("unknown active session should clear the choice, got %d", idx)
	}
	if len(picked) != 1 {
		t.Fatalf("clearing fired select: %v", picked)
	}
}

func TestEventLogAppend(t *testing.T) {
	el := NewEventLog(ui.DefaultTheme())
	el.Append("")
	el.Append("forwarded message 3 [\"bike\"]")
	el.Append("scan completed")
	if el.Lines() != 2 {
		t.Fatalf("Lines = %d, want 2", el.Lines())
	}
	text := el.GetText(true)
	if !strings.Contains(text, "forwarded message 3") || !strings.Contains(text, "scan completed") {
		t.Fatalf("unexpected log text %q", text)
	}
}

func TestRunsViewFilter(t *testing.T) {
	rv := NewRunsView(ui.DefaultTheme())
	rv.Update([]rpc.RunSummary{
		{RunID: "r1", Session: "main", Target: "@market", Outcome: "completed"},
		{RunID: "r2", Session: "work", Target: "@bikes", Outcome: "failed"},
		{RunID: "r3", Session: "main", Target: "@Bikes_EU", Outcome: "cancelled"},
	})
	if len(rv.Visible()) != 3 {
		t.Fatalf("visible = %d", len(rv.Visible()))
	}

	rv.SetFilter("BIKES")
	if got := rv.Visible(); len(got) != 2 || got[0].RunID != "r2" || got[1].RunID != "r3" {
		t.Fatalf("filtered = %+v", got)
	}
	rv.Select(1, 0)
	if run, ok := rv.SelectedRun(); !ok || run.RunID != "r2" {
		t.Fatalf("SelectedRun = %+v %v", run, ok)
	}

	rv.ClearFilter()
	if len(rv.Visible()) != 3 {
		t.Fatalf("visible after clear = %d", len(rv.Visible()))
	}
}

func TestStatusBarLine(t *testing.T) {
	sb := NewStatusBar(ui.DefaultTheme())
	sb.now = func() time.Time { return time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC) }

	sb.Update(rpc.ScanStatus{})
	line := sb.line()
	if !strings.Contains(line, "no session") || !strings.Contains(line, rpc.StateStopped) || !strings.HasSuffix(line, "15:04") {
		t.Fatalf("empty status line %q", line)
	}

	sb.Update(rpc.ScanStatus{
		State: rpc.StateStopped, Session: "main", RunID: "r1",
		Scanned: 10, Matched: 2, Forwarded: 1,
		Last: &rpc.RunSummary{ErrorKind: "forward_failed"},
	})
	line = sb.line()
	for _, want := range []string{"main", "scanned 10 matched 2 forwarded 1", "forward_failed"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	in := "ok\U0001F44D\U0001F3FB\u200d\ufe0f"
	if got := sanitizeForTerminal(in); got != "ok\U0001F44D" {
		t.Fatalf("sanitizeForTerminal = %q", got)
	}
}
