package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays the active session, scan state and run counters.
type StatusBar struct {
	*tview.TextView
	theme  *ui.Theme
	status rpc.ScanStatus
	now    func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, theme: theme, now: time.Now}
	sb.render()
	return sb
}

// Update renders status.
func (sb *StatusBar) Update(status rpc.ScanStatus) {
	sb.status = status
	sb.render()
}

// Tick redraws the clock.
func (sb *StatusBar) Tick() {
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	_, _ = fmt.Fprint(sb, sb.line())
}

func (sb *StatusBar) line() string {
	s := sb.status
	session := s.Session
	if session == "" {
		session = "no session"
	}
	state := s.State
	if state == "" {
		state = rpc.StateStopped
	}
	stateColor := ui.ColorName(sb.theme.StateColor(state == rpc.StateRunning))

	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]%s[-]", tview.Escape(session), stateColor, state)
	if s.RunID != "" || s.Scanned > 0 {
		line += fmt.Sprintf(" | scanned %d matched %d forwarded %d", s.Scanned, s.Matched, s.Forwarded)
	}
	if s.Last != nil && s.Last.ErrorKind != "" && state != rpc.StateRunning {
		line += fmt.Sprintf(" | [%s]%s[-]", ui.ColorName(sb.theme.FlashErrColor), s.Last.ErrorKind)
	}
	return line + " | " + sb.now().Format("15:04")
}
