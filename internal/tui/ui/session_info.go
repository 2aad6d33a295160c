package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData holds the header information about the daemon and scan.
type SessionData struct {
	Session   string
	Running   bool
	State     string
	Target    string
	Scanned   int64
	Matched   int64
	Forwarded int64
	PID       int
	Uptime    time.Duration
}

// SessionInfo displays session and scan metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()
	if data == nil {
		return
	}

	fg := ColorName(si.theme.FgColor)
	val := ColorName(si.theme.CounterColor)
	state := ColorName(si.theme.StateColor(data.Running))

	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return tview.Escape(s)
	}

	_, _ = fmt.Fprintf(si,
		"[%s::b]Session:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]State:[-:-:-]   [%s::b]%s[-:-:-]\n"+
			"[%s::b]Target:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]Counts:[-:-:-]  [%s]%d/%d/%d[-]\n"+
			"[%s::b]Daemon:[-:-:-]  [%s]pid %d, up %s[-]",
		fg, val, orDash(data.Session),
		fg, state, orDash(data.State),
		fg, val, orDash(data.Target),
		fg, val, data.Scanned, data.Matched, data.Forwarded,
		fg, val, data.PID, formatDuration(data.Uptime),
	)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
