package keys

import (
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/tgscan/internal/tui/ui"
)

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Label       string // key as shown in the menu, e.g. "Ctrl-S"
	Description string
	Handler     func()
	Visible     bool
	// Enabled, when set, gates the action. A disabled action still
	// consumes its key so it does not fall through to widgets.
	Enabled func() bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

func (a *Action) enabled() bool {
	return a.Enabled == nil || a.Enabled()
}

func (a *Action) hint() ui.MenuHint {
	label := a.Label
	if label == "" {
		label = string(a.Rune)
	}
	return ui.MenuHint{Key: label, Description: a.Description, Disabled: !a.enabled()}
}

// Registry holds keybindings organized by scope.
type Registry struct {
	Global map[string]*Action
	Views  map[string]map[string]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{
		Global: make(map[string]*Action),
		Views:  make(map[string]map[string]*Action),
	}
}

// AddGlobal registers a global keybinding.
func (r *Registry) AddGlobal(name string, action *Action) {
	r.Global[name] = action
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view, name string, action *Action) {
	if r.Views[view] == nil {
		r.Views[view] = make(map[string]*Action)
	}
	r.Views[view][name] = action
}

// Hints returns visible keybinding hints for a view, view bindings first,
// each group ordered by binding name.
func (r *Registry) Hints(view string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, group := range []map[string]*Action{r.Views[view], r.Global} {
		for _, name := range sortedNames(group) {
			if a := group[name]; a.Visible {
				hints = append(hints, a.hint())
			}
		}
	}
	return hints
}

// HandleEvent dispatches a key event to the matching action in view, then
// to global actions. While typing, plain rune bindings are skipped so text
// input keeps its characters. Returns true if an action consumed the key.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey, typing bool) bool {
	for _, group := range []map[string]*Action{r.Views[view], r.Global} {
		for _, name := range sortedNames(group) {
			a := group[name]
			if typing && a.Key == tcell.KeyRune {
				continue
			}
			if !a.Matches(ev) {
				continue
			}
			if a.enabled() {
				a.Handler()
			}
			return true
		}
	}
	return false
}

func sortedNames(m map[string]*Action) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
