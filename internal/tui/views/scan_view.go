package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/tgscan/internal/tui/ui"
	"github.com/rivo/tview"
)

const (
	startButton = 0
	stopButton  = 1
)

// ScanView holds the operator controls: session chooser, target and
// keyword fields, the Start/Stop buttons and the live event log.
type ScanView struct {
	*tview.Flex
	theme    *ui.Theme
	form     *tview.Form
	sessions *tview.DropDown
	target   *tview.InputField
	keywords *tview.InputField
	log      *EventLog

	running  bool
	updating bool

	onSelect func(name string)
	onStart  func(target, keywords string)
	onStop   func()
}

// NewScanView creates the scan page.
func NewScanView(theme *ui.Theme) *ScanView {
	sv := &ScanView{
		theme: theme,
		log:   NewEventLog(theme),
	}

	sv.sessions = tview.NewDropDown().
		SetLabel("Session").
		SetFieldWidth(24)

	sv.target = tview.NewInputField().
		SetLabel("Target").
		SetPlaceholder("@channel, t.me/link or numeric id").
		SetFieldWidth(0)

	sv.keywords = tview.NewInputField().
		SetLabel("Keywords").
		SetPlaceholder("comma separated").
		SetFieldWidth(0)

	form := tview.NewForm().
		AddFormItem(sv.sessions).
		AddFormItem(sv.target).
		AddFormItem(sv.keywords).
		AddButton("Start", sv.start).
		AddButton("Stop", sv.stop)
	form.SetBorder(true)
	form.SetTitle(" Scan ")
	form.SetTitleColor(theme.TitleColor)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetButtonBackgroundColor(theme.ButtonBgColor)
	form.SetButtonTextColor(theme.ButtonFgColor)
	form.SetButtonsAlign(tview.AlignLeft)
	for _, i := range []int{startButton, stopButton} {
		form.GetButton(i).SetDisabledStyle(tcell.StyleDefault.
			Background(theme.ButtonOffColor).
			Foreground(theme.FgColor))
	}
	sv.form = form

	sv.Flex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(form, 11, 0, true).
		AddItem(sv.log, 0, 1, false)

	sv.SetRunning(false)
	return sv
}

// Name implements Component.
func (sv *ScanView) Name() string { return "Scan" }

// Init implements Component.
func (sv *ScanView) Init() {}

// Start implements Component.
func (sv *ScanView) Start() {}

// Stop implements Component.
func (sv *ScanView) Stop() {}

// Hints implements Component.
func (sv *ScanView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Press button"},
	}
}

// Form returns the control form, the page's focus target.
func (sv *ScanView) Form() *tview.Form { return sv.form }

// Log returns the event log.
func (sv *ScanView) Log() *EventLog { return sv.log }

// SetOnSelect sets the callback fired when the operator picks a session.
func (sv *ScanView) SetOnSelect(fn func(name string)) { sv.onSelect = fn }

// SetOnStart sets the callback fired by the Start button.
func (sv *ScanView) SetOnStart(fn func(target, keywords string)) { sv.onStart = fn }

// SetOnStop sets the callback fired by the Stop button.
func (sv *ScanView) SetOnStop(fn func()) { sv.onStop = fn }

// SetSessions replaces the chooser's options and shows active as the
// current one without firing the select callback.
func (sv *ScanView) SetSessions(names []string, active string) {
	sv.updating = true
	defer func() { sv.updating = false }()

	sv.sessions.SetOptions(names, sv.sessionPicked)
	current := -1
	for i, n := range names {
		if n == active {
			current = i
			break
		}
	}
	sv.sessions.SetCurrentOption(current)
}

// SetRunning toggles the controls between the Stopped and Running layouts.
// Start and the inputs are disabled while running, Stop while stopped.
func (sv *ScanView) SetRunning(running bool) {
	sv.running = running
	sv.form.GetButton(startButton).SetDisabled(running)
	sv.form.GetButton(stopButton).SetDisabled(!running)
	sv.sessions.SetDisabled(running)
	sv.target.SetDisabled(running)
	sv.keywords.SetDisabled(running)

	color := sv.theme.BorderColor
	if running {
		color = sv.theme.RunningColor
	}
	sv.form.SetBorderColor(color)
}

// Running reports the layout currently shown.
func (sv *ScanView) Running() bool { return sv.running }

// Target returns the target field text.
func (sv *ScanView) Target() string { return sv.target.GetText() }

// Keywords returns the raw keyword field text.
func (sv *ScanView) Keywords() string { return sv.keywords.GetText() }

// SetRequest fills the target and keyword fields.
func (sv *ScanView) SetRequest(target, keywords string) {
	sv.target.SetText(target)
	sv.keywords.SetText(keywords)
}

func (sv *ScanView) sessionPicked(text string, index int) {
	if sv.updating || index < 0 || sv.onSelect == nil {
		return
	}
	sv.onSelect(text)
}

func (sv *ScanView) start() {
	if sv.running || sv.onStart == nil {
		return
	}
	sv.onStart(sv.target.GetText(), sv.keywords.GetText())
}

func (sv *ScanView) stop() {
	if !sv.running || sv.onStop == nil {
		return
	}
	sv.onStop()
}
