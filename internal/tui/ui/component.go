package ui

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // rendered in the numeric key color
	Disabled    bool // action currently unavailable
}

// Component is the lifecycle interface for all TUI pages.
type Component interface {
	Name() string
	Init()
	Start()
	Stop()
	Hints() []MenuHint
}
