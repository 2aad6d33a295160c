package views

import (
	"fmt"

	"github.com/matheus3301/tgscan/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Init implements Component.
func (hv *HelpView) Init() {}

// Start implements Component.
func (hv *HelpView) Start() { hv.ScrollToBeginning() }

// Stop implements Component.
func (hv *HelpView) Stop() {}

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (hv *HelpView) render() {
	k := ui.ColorName(hv.theme.MenuKeyColor)

	_, _ = fmt.Fprintf(hv, `
  [::b]Scan page[-:-:-]

  [%[1]s]Tab[-:-:-]      Next field           [%[1]s]Ctrl-S[-:-:-]  Start scan
  [%[1]s]Enter[-:-:-]    Press button         [%[1]s]Ctrl-X[-:-:-]  Stop scan

  The session cannot be changed while a scan is running. Keywords are
  comma separated and match whole words, case-insensitively.

  [::b]Global keys[-:-:-]

  [%[1]s]Ctrl-R[-:-:-]   Runs                 [%[1]s]Ctrl-E[-:-:-]  Command mode
  [%[1]s]F1[-:-:-]       Help                 [%[1]s]Esc[-:-:-]     Back
  [%[1]s]Ctrl-C[-:-:-]   Quit

  [::b]Runs page[-:-:-]

  [%[1]s]Enter[-:-:-]    Show forwards        [%[1]s]/[-:-:-]       Filter
  [%[1]s]0[-:-:-]        Clear filter         [%[1]s]j/k[-:-:-]     Move

  [::b]Commands[-:-:-]

  [%[1]s]:session <name>[-:-:-]            Switch session
  [%[1]s]:start <target> <keywords>[-:-:-] Start a scan
  [%[1]s]:stop[-:-:-]                      Stop the scan
  [%[1]s]:runs[-:-:-]                      Show runs
  [%[1]s]:forwards <run-id>[-:-:-]         Show forwards of a run
  [%[1]s]:help[-:-:-] / [%[1]s]:h[-:-:-]                Show this help
  [%[1]s]:quit[-:-:-] / [%[1]s]:q[-:-:-]                Quit
`, k)
}
