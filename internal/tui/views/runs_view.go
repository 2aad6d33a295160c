package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/tui/ui"
	"github.com/rivo/tview"
)

// RunsView lists journaled scan runs.
type RunsView struct {
	*tview.Table
	theme  *ui.Theme
	runs   []rpc.RunSummary
	shown  []rpc.RunSummary
	filter string
}

// NewRunsView creates the runs table.
func NewRunsView(theme *ui.Theme) *RunsView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	rv := &RunsView{Table: table, theme: theme}
	rv.render()
	return rv
}

// Name implements Component.
func (rv *RunsView) Name() string { return "Runs" }

// Init implements Component.
func (rv *RunsView) Init() {}

// Start implements Component.
func (rv *RunsView) Start() { rv.ScrollToBeginning() }

// Stop implements Component.
func (rv *RunsView) Stop() {}

// Hints implements Component.
func (rv *RunsView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Forwards"},
		{Key: "/", Description: "Filter"},
		{Key: "0", Description: "Clear filter", Numeric: true},
		{Key: "Esc", Description: "Back"},
	}
}

// Update replaces the run list.
func (rv *RunsView) Update(runs []rpc.RunSummary) {
	rv.runs = runs
	rv.render()
}

// SetFilter keeps only runs whose session, target or outcome contains
// filter, case-insensitively.
func (rv *RunsView) SetFilter(filter string) {
	rv.filter = filter
	rv.render()
}

// ClearFilter clears the active filter.
func (rv *RunsView) ClearFilter() {
	rv.SetFilter("")
}

// Visible returns the runs currently listed.
func (rv *RunsView) Visible() []rpc.RunSummary { return rv.shown }

// SelectedRun returns the run under the cursor.
func (rv *RunsView) SelectedRun() (rpc.RunSummary, bool) {
	row, _ := rv.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(rv.shown) {
		return rpc.RunSummary{}, false
	}
	return rv.shown[idx], true
}

func (rv *RunsView) render() {
	rv.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" STARTED", 0},
		{" SESSION", 1},
		{" TARGET", 2},
		{" OUTCOME", 1},
		{" SCANNED", 0},
		{" MATCHED", 0},
		{" FWD", 0},
		{" ERROR", 2},
	}
	for col, h := range headers {
		rv.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(rv.theme.TableHeaderFg).
			SetBackgroundColor(rv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	rv.shown = rv.shown[:0]
	needle := strings.ToLower(rv.filter)
	for _, r := range rv.runs {
		if needle != "" && !runMatches(r, needle) {
			continue
		}
		rv.shown = append(rv.shown, r)
		row := len(rv.shown)

		outcomeColor := rv.theme.FgColor
		switch r.Outcome {
		case "running":
			outcomeColor = rv.theme.RunningColor
		case "failed", "interrupted":
			outcomeColor = rv.theme.FlashErrColor
		}

		cells := []*tview.TableCell{
			tview.NewTableCell(" " + formatTimestamp(r.StartedAtUnixMs)),
			tview.NewTableCell(" " + tview.Escape(r.Session)).SetExpansion(1),
			tview.NewTableCell(" " + tview.Escape(sanitizeForTerminal(r.Target))).SetExpansion(2),
			tview.NewTableCell(" " + r.Outcome).SetExpansion(1),
			tview.NewTableCell(strconv.FormatInt(r.Scanned, 10)).SetAlign(tview.AlignRight),
			tview.NewTableCell(strconv.FormatInt(r.Matched, 10)).SetAlign(tview.AlignRight),
			tview.NewTableCell(strconv.FormatInt(r.Forwarded, 10)).SetAlign(tview.AlignRight),
			tview.NewTableCell(" " + tview.Escape(r.Error)).SetExpansion(2),
		}
		for col, c := range cells {
			c.SetTextColor(rv.theme.FgColor)
			if col == 3 {
				c.SetTextColor(outcomeColor)
			}
			rv.SetCell(row, col, c)
		}
	}

	if rv.filter != "" {
		rv.SetTitle(fmt.Sprintf(" Runs (%d/%d) filter: %s ", len(rv.shown), len(rv.runs), tview.Escape(rv.filter)))
	} else {
		rv.SetTitle(fmt.Sprintf(" Runs (%d) ", len(rv.runs)))
	}
}

func runMatches(r rpc.RunSummary, needle string) bool {
	for _, field := range []string{r.Session, r.Target, r.Outcome} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04:05")
	}
	return t.Format("01/02 15:04")
}
