package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		name string
		args string
	}{
		{"runs", "runs", ""},
		{":Session  work ", "session", "work"},
		{"start @market bike, lock", "start", "@market bike, lock"},
		{"  q", "q", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		cmd := ParseCommand(tt.in)
		if cmd.Name != tt.name || cmd.Args != tt.args {
			t.Fatalf("ParseCommand(%q) = %+v, want name=%q args=%q", tt.in, cmd, tt.name, tt.args)
		}
	}
}

func TestCommandSplitStart(t *testing.T) {
	target, keywords, ok := ParseCommand("start @market bike, blue lock").SplitStart()
	if !ok {
		t.Fatal("expected ok")
	}
	if target != "@market" || keywords != "bike, blue lock" {
		t.Fatalf("got target=%q keywords=%q", target, keywords)
	}

	for _, in := range []string{"start", "start @market", "start @market   "} {
		if _, _, ok := ParseCommand(in).SplitStart(); ok {
			t.Fatalf("SplitStart(%q) should fail", in)
		}
	}
}

func TestCommandFields(t *testing.T) {
	f := ParseCommand("forwards  abc   def").Fields()
	if len(f) != 2 || f[0] != "abc" || f[1] != "def" {
		t.Fatalf("Fields = %v", f)
	}
}
