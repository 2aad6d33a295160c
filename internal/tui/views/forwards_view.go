package views

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/tui/ui"
	"github.com/rivo/tview"
)

// ForwardsView lists the messages forwarded by one run.
type ForwardsView struct {
	*tview.Table
	theme *ui.Theme
}

// NewForwardsView creates the forwards table.
func NewForwardsView(theme *ui.Theme) *ForwardsView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Forwards ")
	table.SetTitleColor(theme.TitleColor)

	return &ForwardsView{Table: table, theme: theme}
}

// Name implements Component.
func (fv *ForwardsView) Name() string { return "Forwards" }

// Init implements Component.
func (fv *ForwardsView) Init() {}

// Start implements Component.
func (fv *ForwardsView) Start() { fv.ScrollToBeginning() }

// Stop implements Component.
func (fv *ForwardsView) Stop() {}

// Hints implements Component.
func (fv *ForwardsView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Update shows the forwards of run.
func (fv *ForwardsView) Update(run rpc.RunSummary, forwards []rpc.ForwardRecord) {
	fv.Clear()

	for col, h := range []string{" MESSAGE", " KEYWORD", " FORWARDED"} {
		fv.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(fv.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(1))
	}
	for i, f := range forwards {
		fv.SetCell(i+1, 0, tview.NewTableCell(" "+strconv.Itoa(f.MsgID)).SetTextColor(fv.theme.FgColor).SetExpansion(1))
		fv.SetCell(i+1, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(f.Keyword))).SetTextColor(fv.theme.FgColor).SetExpansion(1))
		fv.SetCell(i+1, 2, tview.NewTableCell(" "+formatTimestamp(f.ForwardedAtUnixMs)).SetTextColor(fv.theme.FgColor).SetExpansion(1))
	}

	fv.SetTitle(fmt.Sprintf(" Forwards of %s on %s (%d) ",
		shortID(run.RunID), tview.Escape(sanitizeForTerminal(run.Target)), len(forwards)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
