// Package tui is the rich terminal front-end, a bubbletea program over the
// shared operations layer.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/meshup-dev/meshup/internal/aptpkg"
	"github.com/meshup-dev/meshup/internal/errdefs"
	"github.com/meshup-dev/meshup/internal/frontend"
	"github.com/meshup-dev/meshup/internal/hardware"
	"github.com/meshup-dev/meshup/internal/lora"
	"github.com/meshup-dev/meshup/internal/ops"
)

type Launcher struct {
	Mgr *ops.Manager
}

func New(mgr *ops.Manager) *Launcher { return &Launcher{Mgr: mgr} }

func (l *Launcher) Kind() frontend.Kind { return frontend.KindTUI }

func (l *Launcher) Run(ctx context.Context) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("terminal UI needs a tty: %w", errdefs.ErrMissingDependency)
	}
	l.Mgr.Frontend = string(frontend.KindTUI)
	p := tea.NewProgram(newModel(l.Mgr), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

type screen int

const (
	screenMenu screen = iota
	screenPick
	screenBusy
	screenView
	screenLogs
)

type menuItem struct {
	label string
	hint  string
}

var menuItems = []menuItem{
	{"check", "inspect board, package, service and radios"},
	{"install", "add channel repo and install meshtasticd"},
	{"update", "upgrade meshtasticd from its channel"},
	{"region", "set the LoRa region"},
	{"preset", "apply a radio preset"},
	{"templates", "browse and activate config templates"},
	{"service", "start/stop/enable the daemon"},
	{"logs", "follow the daemon journal"},
	{"hardware", "show detected radios"},
	{"history", "past operations"},
	{"quit", ""},
}

// opDoneMsg carries the result of an operation run off the UI goroutine.
type opDoneMsg struct {
	title   string
	content string
	err     error
}

type logTickMsg time.Time

type model struct {
	mgr *ops.Manager

	screen screen
	cursor int

	// pick state: a generic choice list feeding into apply.
	pickTitle string
	choices   []string
	apply     func(string) tea.Cmd

	busyLabel string
	spin      spinner.Model

	view      viewport.Model
	viewTitle string
	width     int
	height    int

	logLines []string
	err      error
}

func newModel(mgr *ops.Manager) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleSpinner
	return model{mgr: mgr, spin: s, view: viewport.New(80, 20)}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = msg.Width - 2
		m.view.Height = msg.Height - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.screen != screenBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case opDoneMsg:
		m.err = msg.err
		m.viewTitle = msg.title
		content := msg.content
		if msg.err != nil {
			content = styleErr.Render(msg.err.Error()) + "\n\n" + content
		}
		m.view.SetContent(content)
		m.view.GotoTop()
		m.screen = screenView
		return m, nil

	case logTickMsg:
		if m.screen != screenLogs {
			return m, nil
		}
		return m, m.fetchLogs()

	case logLinesMsg:
		if msg.err == nil {
			m.logLines = msg.lines
			m.view.SetContent(strings.Join(m.logLines, "\n"))
			m.view.GotoBottom()
		}
		return m, tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return logTickMsg(t) })
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	switch m.screen {
	case screenMenu:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(menuItems)-1 {
				m.cursor++
			}
		case "enter":
			return m.selectMenu(menuItems[m.cursor].label)
		}
	case screenPick:
		switch msg.String() {
		case "q", "esc":
			m.screen = screenMenu
			m.cursor = 0
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			choice := m.choices[m.cursor]
			m.screen = screenBusy
			m.busyLabel = m.pickTitle + ": " + choice
			return m, tea.Batch(m.spin.Tick, m.apply(choice))
		}
	case screenView:
		switch msg.String() {
		case "q", "esc", "enter":
			m.screen = screenMenu
			m.cursor = 0
		default:
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
	case screenLogs:
		switch msg.String() {
		case "q", "esc":
			m.screen = screenMenu
			m.cursor = 0
		default:
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) selectMenu(label string) (tea.Model, tea.Cmd) {
	switch label {
	case "quit":
		return m, tea.Quit
	case "check":
		return m.busy("checking system", m.runCheck)
	case "install":
		return m.pick("Release channel", channelNames(), func(choice string) tea.Cmd {
			return func() tea.Msg {
				rec, err := m.mgr.Install(context.Background(), aptpkg.Channel(choice))
				return opDoneMsg{title: "install", content: "installed version " + rec.Version, err: err}
			}
		})
	case "update":
		return m.busy("updating", func() tea.Msg {
			rec, err := m.mgr.Update(context.Background())
			return opDoneMsg{title: "update", content: "now at version " + rec.Version, err: err}
		})
	case "region":
		return m.pick("LoRa region", lora.RegionCodes(), func(choice string) tea.Cmd {
			return func() tea.Msg {
				return opDoneMsg{title: "region", content: "region set to " + choice, err: m.mgr.SetRegion(choice)}
			}
		})
	case "preset":
		return m.pick("Radio preset", lora.PresetNames(), func(choice string) tea.Cmd {
			return func() tea.Msg {
				return opDoneMsg{title: "preset", content: "preset " + choice + " applied", err: m.mgr.ApplyPreset(choice)}
			}
		})
	case "templates":
		templates, err := m.mgr.Conf.ListTemplates()
		if err != nil || len(templates) == 0 {
			if err == nil {
				err = fmt.Errorf("no templates under %s", m.mgr.Conf.AvailableDir())
			}
			m.err = err
			m.viewTitle = "templates"
			m.view.SetContent(styleErr.Render(err.Error()))
			m.screen = screenView
			return m, nil
		}
		names := make([]string, len(templates))
		for i, t := range templates {
			names[i] = t.Name
			if t.Active {
				names[i] += " (active)"
			}
		}
		return m.pick("Config template", names, func(choice string) tea.Cmd {
			name := strings.TrimSuffix(choice, " (active)")
			return func() tea.Msg {
				return opDoneMsg{title: "templates", content: "activated " + name, err: m.mgr.ActivateTemplate(name)}
			}
		})
	case "service":
		return m.pick("Service action", []string{"status", "start", "stop", "restart", "enable", "disable"}, func(choice string) tea.Cmd {
			return func() tea.Msg {
				st, err := m.mgr.Service(context.Background(), choice)
				return opDoneMsg{title: "service", content: fmt.Sprintf("meshtasticd: %s, enabled=%v", st.State, st.Enabled), err: err}
			}
		})
	case "logs":
		m.screen = screenLogs
		m.viewTitle = "daemon log"
		m.view.SetContent("loading…")
		return m, m.fetchLogs()
	case "hardware":
		return m.busy("scanning hardware", m.runHardware)
	case "history":
		return m.busy("loading history", m.runHistory)
	}
	return m, nil
}

func (m model) busy(label string, cmd func() tea.Msg) (tea.Model, tea.Cmd) {
	m.screen = screenBusy
	m.busyLabel = label
	return m, tea.Batch(m.spin.Tick, cmd)
}

func (m model) pick(title string, choices []string, apply func(string) tea.Cmd) (tea.Model, tea.Cmd) {
	m.screen = screenPick
	m.pickTitle = title
	m.choices = choices
	m.cursor = 0
	m.apply = apply
	return m, nil
}

type logLinesMsg struct {
	lines []string
	err   error
}

func (m model) fetchLogs() tea.Cmd {
	return func() tea.Msg {
		lines, err := m.mgr.TailLogs(context.Background(), 200)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m model) runCheck() tea.Msg {
	report := m.mgr.Check(context.Background())
	var b strings.Builder
	b.WriteString(report.Host.Summary() + "\n\n")
	for _, c := range report.Checks {
		b.WriteString(renderCheck(c) + "\n")
	}
	return opDoneMsg{title: "check", content: b.String()}
}

func (m model) runHardware() tea.Msg {
	scan := m.mgr.HW.Detect(context.Background())
	var b strings.Builder
	fmt.Fprintf(&b, "board: %s\n", scan.BoardModel)
	if scan.HATProduct != "" {
		fmt.Fprintf(&b, "hat: %s\n", scan.HATProduct)
	}
	fmt.Fprintf(&b, "spi enabled: %v\n", scan.SPIEnabled)
	for _, u := range scan.USBModules {
		fmt.Fprintf(&b, "usb: %s %s %s\n", u.VendorProduct, u.Description, u.Device)
	}
	for _, r := range hardware.Recommend(scan) {
		fmt.Fprintf(&b, "suggestion: %s  %s\n", r.Flag, r.Description)
	}
	return opDoneMsg{title: "hardware", content: b.String()}
}

func (m model) runHistory() tea.Msg {
	recs, err := m.mgr.History(50)
	var b strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&b, "%s  %-18s %-8s %s\n", r.StartedAt, r.Kind, r.Status, r.LastError)
	}
	if b.Len() == 0 {
		b.WriteString("no operations recorded yet")
	}
	return opDoneMsg{title: "history", content: b.String(), err: err}
}

func channelNames() []string {
	channels := aptpkg.Channels()
	out := make([]string, len(channels))
	for i, c := range channels {
		out[i] = string(c)
	}
	return out
}
