package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestHandleEventPrefersView(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal("help", &Action{Rune: '?', Key: tcell.KeyRune, Handler: func() { got = "global" }})
	r.AddView("Runs", "help", &Action{Rune: '?', Key: tcell.KeyRune, Handler: func() { got = "view" }})

	ev := tcell.NewEventKey(tcell.KeyRune, '?', tcell.ModNone)
	if !r.HandleEvent("Runs", ev, false) || got != "view" {
		t.Fatalf("expected view binding, got %q", got)
	}
	if !r.HandleEvent("Scan", ev, false) || got != "global" {
		t.Fatalf("expected global binding, got %q", got)
	}
}

func TestHandleEventWhileTyping(t *testing.T) {
	r := NewRegistry()
	runeHits, ctrlHits := 0, 0
	r.AddGlobal("command", &Action{Rune: ':', Key: tcell.KeyRune, Handler: func() { runeHits++ }})
	r.AddGlobal("runs", &Action{Key: tcell.KeyCtrlR, Handler: func() { ctrlHits++ }})

	if r.HandleEvent("Scan", tcell.NewEventKey(tcell.KeyRune, ':', tcell.ModNone), true) {
		t.Fatal("rune binding should not fire while typing")
	}
	if !r.HandleEvent("Scan", tcell.NewEventKey(tcell.KeyCtrlR, 0, tcell.ModCtrl), true) {
		t.Fatal("ctrl binding should fire while typing")
	}
	if runeHits != 0 || ctrlHits != 1 {
		t.Fatalf("hits rune=%d ctrl=%d", runeHits, ctrlHits)
	}
}

func TestDisabledActionConsumesKey(t *testing.T) {
	r := NewRegistry()
	fired := false
	r.AddView("Scan", "start", &Action{
		Key:     tcell.KeyCtrlS,
		Enabled: func() bool { return false },
		Handler: func() { fired = true },
	})
	if !r.HandleEvent("Scan", tcell.NewEventKey(tcell.KeyCtrlS, 0, tcell.ModCtrl), false) {
		t.Fatal("disabled action should still consume its key")
	}
	if fired {
		t.Fatal("disabled action fired")
	}
}

func TestHints(t *testing.T) {
	r := NewRegistry()
	running := false
	r.AddGlobal("runs", &Action{Key: tcell.KeyCtrlR, Label: "Ctrl-R", Description: "Runs", Visible: true})
	r.AddGlobal("hidden", &Action{Rune: ':', Key: tcell.KeyRune})
	r.AddView("Scan", "stop", &Action{
		Key: tcell.KeyCtrlX, Label: "Ctrl-X", Description: "Stop", Visible: true,
		Enabled: func() bool { return running },
	})
	r.AddView("Scan", "start", &Action{
		Key: tcell.KeyCtrlS, Label: "Ctrl-S", Description: "Start", Visible: true,
		Enabled: func() bool { return !running },
	})

	hints := r.Hints("Scan")
	if len(hints) != 3 {
		t.Fatalf("expected 3 hints, got %+v", hints)
	}
	if hints[0].Description != "Start" || hints[1].Description != "Stop" || hints[2].Description != "Runs" {
		t.Fatalf("unexpected order: %+v", hints)
	}
	if hints[0].Disabled || !hints[1].Disabled {
		t.Fatalf("unexpected enabled flags: %+v", hints)
	}

	running = true
	hints = r.Hints("Scan")
	if !hints[0].Disabled || hints[1].Disabled {
		t.Fatalf("flags did not follow state: %+v", hints)
	}
}
