package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/tui/client"
	"github.com/matheus3301/tgscan/internal/tui/keys"
	"github.com/matheus3301/tgscan/internal/tui/model"
	"github.com/matheus3301/tgscan/internal/tui/ui"
	"github.com/matheus3301/tgscan/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	callTimeout    = 5 * time.Second
	refreshEvery   = 5 * time.Second
	reconnectDelay = 2 * time.Second
	runsLimit      = 100
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	pages    *ui.Pages
	body     *tview.Flex
	vm       *model.ViewModel
	registry *keys.Registry

	logo      *ui.Logo
	info      *ui.SessionInfo
	menu      *ui.Menu
	crumbs    *ui.Crumbs
	flashBar  *ui.FlashBar
	prompt    *ui.Prompt
	statusBar *views.StatusBar

	scanV  *views.ScanView
	runsV  *views.RunsView
	fwdV   *views.ForwardsView
	helpV  *views.HelpView
	byName map[string]ui.Component

	promptVisible bool
	sessionsKey   string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(c *client.Client) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		theme:     theme,
		pages:     ui.NewPages(),
		vm:        model.NewViewModel(c),
		registry:  keys.NewRegistry(),
		logo:      ui.NewLogo(theme),
		info:      ui.NewSessionInfo(theme),
		menu:      ui.NewMenu(theme),
		crumbs:    ui.NewCrumbs(theme),
		flashBar:  ui.NewFlashBar(theme),
		prompt:    ui.NewPrompt(theme),
		statusBar: views.NewStatusBar(theme),
		scanV:     views.NewScanView(theme),
		runsV:     views.NewRunsView(theme),
		fwdV:      views.NewForwardsView(theme),
		helpV:     views.NewHelpView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.byName = make(map[string]ui.Component)
	for _, comp := range []ui.Component{a.scanV, a.runsV, a.fwdV, a.helpV} {
		comp.Init()
		a.byName[comp.Name()] = comp
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("help", &keys.Action{
		Key: tcell.KeyF1, Label: "F1",
		Description: "Help", Visible: true,
		Handler: func() { a.push(a.helpV.Name()) },
	})
	a.registry.AddGlobal("help-rune", &keys.Action{
		Rune: '?', Key: tcell.KeyRune,
		Handler: func() { a.push(a.helpV.Name()) },
	})
	a.registry.AddGlobal("runs", &keys.Action{
		Key: tcell.KeyCtrlR, Label: "Ctrl-R",
		Description: "Runs", Visible: true,
		Handler: a.showRuns,
	})
	a.registry.AddGlobal("command", &keys.Action{
		Key: tcell.KeyCtrlE, Label: "Ctrl-E",
		Description: "Command", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal("command-rune", &keys.Action{
		Rune: ':', Key: tcell.KeyRune,
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})

	scan := a.scanV.Name()
	a.registry.AddView(scan, "start", &keys.Action{
		Key: tcell.KeyCtrlS, Label: "Ctrl-S",
		Description: "Start", Visible: true,
		Enabled: func() bool { return !a.vm.Running() },
		Handler: func() { a.startScan(a.scanV.Target(), a.scanV.Keywords()) },
	})
	a.registry.AddView(scan, "stop", &keys.Action{
		Key: tcell.KeyCtrlX, Label: "Ctrl-X",
		Description: "Stop", Visible: true,
		Enabled: a.vm.Running,
		Handler: a.stopScan,
	})

	runs := a.runsV.Name()
	a.registry.AddView(runs, "filter", &keys.Action{
		Rune: '/', Key: tcell.KeyRune,
		Handler: func() { a.showPrompt(ui.PromptFilter) },
	})
	a.registry.AddView(runs, "clear", &keys.Action{
		Rune: '0', Key: tcell.KeyRune,
		Handler: a.runsV.ClearFilter,
	})
	a.registry.AddView(runs, "reload", &keys.Action{
		Key: tcell.KeyCtrlL, Label: "Ctrl-L",
		Description: "Reload", Visible: true,
		Handler: a.showRuns,
	})
}

func (a *App) setupCallbacks() {
	a.scanV.SetOnSelect(a.selectSession)
	a.scanV.SetOnStart(a.startScan)
	a.scanV.SetOnStop(a.stopScan)

	a.runsV.SetSelectedFunc(func(row, col int) {
		if run, ok := a.runsV.SelectedRun(); ok {
			a.showForwards(run)
		}
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptCommand:
			a.execute(ParseCommand(text))
		case ui.PromptFilter:
			a.runsV.SetFilter(text)
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		a.updateMenu()
	})
}

func (a *App) setupLayout() {
	a.pages.AddPage(a.scanV.Name(), a.scanV, true, false)
	a.pages.AddPage(a.runsV.Name(), a.runsV, true, false)
	a.pages.AddPage(a.fwdV.Name(), a.fwdV, true, false)
	a.pages.AddPage(a.helpV.Name(), a.helpV, true, false)
	a.pages.Reset(a.scanV.Name())

	header := tview.NewFlex().
		AddItem(a.info, 0, 2, false).
		AddItem(a.menu, 0, 2, false).
		AddItem(a.logo, 22, 0, false)

	a.body = tview.NewFlex().SetDirection(tview.FlexRow)
	a.body.AddItem(a.pages, 0, 1, true)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.body, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)
	a.app.SetFocus(a.scanV.Form())

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.promptVisible {
			return event
		}

		if event.Key() == tcell.KeyEscape && !a.typing() {
			if a.pages.Pop() != "" {
				a.focusCurrent()
				return nil
			}
		}

		if a.registry.HandleEvent(a.pages.Current(), event, a.typing()) {
			a.updateMenu()
			return nil
		}
		return event
	})
}

// typing reports whether the focused widget consumes printable keys.
func (a *App) typing() bool {
	switch a.app.GetFocus().(type) {
	case *tview.InputField, *tview.DropDown, *tview.List:
		return true
	}
	return false
}

func (a *App) push(name string) {
	if a.pages.Current() == name {
		return
	}
	if comp, ok := a.byName[a.pages.Current()]; ok {
		comp.Stop()
	}
	a.pages.Push(name)
	if comp, ok := a.byName[name]; ok {
		comp.Start()
	}
	a.focusCurrent()
}

func (a *App) focusCurrent() {
	switch a.pages.Current() {
	case a.runsV.Name():
		a.app.SetFocus(a.runsV)
	case a.fwdV.Name():
		a.app.SetFocus(a.fwdV)
	case a.helpV.Name():
		a.app.SetFocus(a.helpV)
	default:
		a.app.SetFocus(a.scanV.Form())
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	if mode == ui.PromptFilter && a.pages.Current() != a.runsV.Name() {
		return
	}
	a.prompt.Activate(mode)
	a.body.Clear()
	a.body.AddItem(a.prompt, 3, 0, true).AddItem(a.pages, 0, 1, false)
	a.promptVisible = true
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.body.Clear()
	a.body.AddItem(a.pages, 0, 1, true)
	a.promptVisible = false
	a.focusCurrent()
}

func (a *App) updateMenu() {
	page := a.pages.Current()
	var hints []ui.MenuHint
	if comp, ok := a.byName[page]; ok {
		hints = append(hints, comp.Hints()...)
	}
	a.menu.Update(append(hints, a.registry.Hints(page)...))
}

// execute runs a ':' command.
func (a *App) execute(cmd Command) {
	switch cmd.Name {
	case "session", "s":
		if cmd.Args == "" {
			a.vm.Flash.Warn("usage: :session <name>")
			return
		}
		a.selectSession(cmd.Args)
	case "start":
		target, keywords, ok := cmd.SplitStart()
		if !ok {
			a.vm.Flash.Warn("usage: :start <target> <keywords>")
			return
		}
		a.scanV.SetRequest(target, keywords)
		a.startScan(target, keywords)
	case "stop":
		a.stopScan()
	case "runs":
		a.showRuns()
	case "forwards", "fwd":
		if cmd.Args == "" {
			a.vm.Flash.Warn("usage: :forwards <run-id>")
			return
		}
		a.showForwardsByID(cmd.Args)
	case "help", "h":
		a.push(a.helpV.Name())
	case "quit", "q":
		a.Stop()
	default:
		a.vm.Flash.Warn(fmt.Sprintf("unknown command %q", cmd.Name))
	}
}

func (a *App) call() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.ctx, callTimeout)
}

func (a *App) selectSession(name string) {
	go func() {
		ctx, cancel := a.call()
		defer cancel()
		if err := a.vm.SelectSession(ctx, name); err != nil {
			if model.IsScanInProgress(err) {
				a.vm.Flash.Warn("cannot switch session while a scan is running")
			} else {
				a.vm.Flash.Err(model.ErrorText(err))
			}
		} else {
			a.vm.Flash.Info("session " + name + " selected")
		}
		// Resets the chooser to the daemon's session after a rejection.
		a.app.QueueUpdateDraw(func() { a.refresh(true) })
	}()
}

func (a *App) startScan(target, keywords string) {
	if a.vm.Running() {
		return
	}
	go func() {
		ctx, cancel := a.call()
		defer cancel()
		runID, err := a.vm.StartScan(ctx, target, keywords)
		if err != nil {
			a.vm.Flash.Err(model.ErrorText(err))
			return
		}
		a.vm.Flash.Info("scan " + shortRunID(runID) + " started")
	}()
}

func (a *App) stopScan() {
	go func() {
		ctx, cancel := a.call()
		defer cancel()
		stopped, err := a.vm.StopScan(ctx)
		switch {
		case err != nil:
			a.vm.Flash.Err(model.ErrorText(err))
		case !stopped:
			a.vm.Flash.Info("no scan running")
		default:
			a.vm.Flash.Info("stop requested")
		}
	}()
}

func (a *App) showRuns() {
	go func() {
		ctx, cancel := a.call()
		defer cancel()
		if err := a.vm.LoadRuns(ctx, runsLimit); err != nil {
			a.vm.Flash.Err(model.ErrorText(err))
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.runsV.Update(a.vm.Runs())
			a.push(a.runsV.Name())
		})
	}()
}

func (a *App) showForwardsByID(prefix string) {
	for _, r := range a.vm.Runs() {
		if strings.HasPrefix(r.RunID, prefix) {
			a.showForwards(r)
			return
		}
	}
	a.showForwards(rpc.RunSummary{RunID: prefix})
}

func (a *App) showForwards(run rpc.RunSummary) {
	go func() {
		ctx, cancel := a.call()
		defer cancel()
		fwds, err := a.vm.Forwards(ctx, run.RunID)
		if err != nil {
			a.vm.Flash.Err(model.ErrorText(err))
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.fwdV.Update(run, fwds)
			a.push(a.fwdV.Name())
		})
	}()
}

// refresh redraws everything derived from the view model. Must run on
// the UI goroutine.
func (a *App) refresh(forceSessions bool) {
	st := a.vm.Status()
	running := st.State == rpc.StateRunning

	sessions := a.vm.Sessions()
	names := make([]string, len(sessions))
	for i, s := range sessions {
		names[i] = s.Name
	}
	key := strings.Join(names, "\x00") + "\x00" + st.Session
	if forceSessions || key != a.sessionsKey {
		a.sessionsKey = key
		a.scanV.SetSessions(names, st.Session)
	}
	if a.scanV.Running() != running {
		a.scanV.SetRunning(running)
	}

	data := &ui.SessionData{
		Session:   st.Session,
		Running:   running,
		State:     st.State,
		Target:    st.Target,
		Scanned:   st.Scanned,
		Matched:   st.Matched,
		Forwarded: st.Forwarded,
	}
	if d := a.vm.Daemon(); d != nil {
		data.PID = d.PID
		data.Uptime = time.Duration(d.UptimeMs) * time.Millisecond
	}
	a.info.Update(data)
	a.statusBar.Update(st)
	a.flashBar.Update(a.vm.Flash.Current())
	a.updateMenu()
}

func (a *App) load() {
	ctx, cancel := a.call()
	defer cancel()
	for _, fn := range []func(context.Context) error{a.vm.LoadDaemon, a.vm.LoadSessions, a.vm.LoadStatus} {
		if err := fn(ctx); err != nil {
			a.vm.Flash.Err(model.ErrorText(err))
			return
		}
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	go func() {
		a.load()
		a.app.QueueUpdateDraw(func() {
			a.refresh(true)
			if len(a.vm.Sessions()) == 0 {
				a.scanV.Log().Append("no sessions found, create one with: tgscanctl login <name>")
			}
		})
		go a.watchEvents()
		go a.watchFlash()
		a.startRefreshLoop()
	}()

	return a.app.Run()
}

// watchEvents streams daemon events into the log and view model,
// reopening the stream after errors until the app stops.
func (a *App) watchEvents() {
	for a.ctx.Err() == nil {
		if err := a.consumeEvents(); err != nil && a.ctx.Err() == nil {
			a.vm.Flash.Err("event stream: " + model.ErrorText(err))
		}
		select {
		case <-a.ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (a *App) consumeEvents() error {
	stream, err := a.vm.Watch(a.ctx)
	if err != nil {
		return err
	}

	// Events before the subscription are covered by a fresh status.
	ctx, cancel := a.call()
	err = a.vm.LoadStatus(ctx)
	cancel()
	if err != nil {
		return err
	}
	a.app.QueueUpdateDraw(func() { a.refresh(false) })

	for {
		env, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := a.vm.Apply(env); err != nil {
			continue
		}
		if env.Kind == rpc.EventScanFinished {
			a.flashFinished(env)
		}
		line := model.Describe(env)
		a.app.QueueUpdateDraw(func() {
			a.scanV.Log().Append(line)
			a.refresh(false)
		})
	}
}

func (a *App) flashFinished(env *rpc.EventEnvelope) {
	var fin rpc.ScanFinishedEvent
	if env.Decode(&fin) != nil {
		return
	}
	if fin.Error != "" {
		a.vm.Flash.Err(fin.Error)
		return
	}
	a.vm.Flash.Info(fmt.Sprintf("scan %s, %d forwarded", fin.Outcome, fin.Forwarded))
}

func (a *App) watchFlash() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case msg := <-a.vm.Flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(&msg) })
		}
	}
}

func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(refreshEvery)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := a.call()
				_ = a.vm.Refresh(ctx)
				cancel()
				a.app.QueueUpdateDraw(func() {
					a.statusBar.Tick()
					a.refresh(false)
				})
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
