package views

import (
	"fmt"

	"github.com/matheus3301/tgscan/internal/tui/ui"
	"github.com/rivo/tview"
)

const eventLogLines = 1000

// EventLog is a scrolling log of daemon events.
type EventLog struct {
	*tview.TextView
	lines int
}

// NewEventLog creates an empty event log.
func NewEventLog(theme *ui.Theme) *EventLog {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true).
		SetMaxLines(eventLogLines)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Events ")
	tv.SetTitleColor(theme.TitleColor)

	return &EventLog{TextView: tv}
}

// Append adds one line and scrolls to it. Empty lines are ignored.
func (el *EventLog) Append(line string) {
	if line == "" {
		return
	}
	_, _ = fmt.Fprintln(el, tview.Escape(sanitizeForTerminal(line)))
	el.lines++
	el.ScrollToEnd()
}

// Lines reports how many lines were appended.
func (el *EventLog) Lines() int { return el.lines }
