package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vanderheijden86/readmit/pkg/charts"
	"github.com/vanderheijden86/readmit/pkg/config"
	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/export"
	"github.com/vanderheijden86/readmit/pkg/geomap"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/tables"
	"github.com/vanderheijden86/readmit/pkg/theme"
	"github.com/vanderheijden86/readmit/pkg/watcher"
)

type panel int

const (
	panelMap panel = iota
	panelDonut
	panelVolume
	panelTop
	panelWorst
	panelStates
	panelCount
)

func (p panel) target() string { return Targets[p] }

func (p panel) isTable() bool { return p >= panelTop }

var panelTitles = [panelCount]string{
	"Average score by state",
	"Performance vs national average",
	"Average score by hospital volume",
	"Top hospitals",
	"Worst measures",
	"State performance",
}

// Layout rows above the first panel: two header lines and the bordered KPI
// tiles. The map panel adds its border and title line.
const (
	headerLines = 2
	tileLines   = 3
	mapOriginX  = 2
	mapOriginY  = headerLines + tileLines + 2
	mapPanelW   = geomap.GridCols*geomap.TileWidth + 4
)

// ConfigChangedMsg is sent when the watched config file changes.
type ConfigChangedMsg struct{}

// WatchConfigCmd waits for the next change of the watched config file.
func WatchConfigCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return ConfigChangedMsg{}
	}
}

// Reloader rebuilds the backend and export settings from config on disk.
type Reloader func() (Fetcher, config.ExportConfig, error)

// Model is the Bubble Tea model of the dashboard.
type Model struct {
	ctrl   *Controller
	cancel context.CancelFunc

	width, height int
	focus         panel

	spinner   spinner.Model
	prompt    textinput.Model
	prompting bool
	showHelp  bool
	help      string

	watcher *watcher.Watcher
	reload  Reloader
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithCancel registers the function that cancels in-flight fetches on quit.
func WithCancel(cancel context.CancelFunc) ModelOption {
	return func(m *Model) { m.cancel = cancel }
}

// WithConfigWatch reloads the backend whenever w reports a change.
func WithConfigWatch(w *watcher.Watcher, reload Reloader) ModelOption {
	return func(m *Model) {
		m.watcher = w
		m.reload = reload
	}
}

// NewModel returns the dashboard model around ctrl.
func NewModel(ctrl *Controller, opts ...ModelOption) Model {
	ti := textinput.New()
	ti.Placeholder = "CA"
	ti.Prompt = "State: "
	ti.CharLimit = 2

	m := Model{
		ctrl:    ctrl,
		width:   120,
		height:  40,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		prompt:  ti,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Controller returns the wrapped controller.
func (m Model) Controller() *Controller { return m.ctrl }

// Focus returns the export target of the focused panel.
func (m Model) Focus() string { return m.focus.target() }

// Init starts the page load and the spinner.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.ctrl.Init(), m.spinner.Tick}
	if m.watcher != nil {
		cmds = append(cmds, WatchConfigCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.ctrl.Handle(msg); ok {
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.showHelp {
			m.help = renderHelp(m.ctrl.Themes().Theme(), m.width)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ConfigChangedMsg:
		return m, m.reloadConfig()

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.prompting {
			return m.handlePromptKeys(msg)
		}
		if m.showHelp {
			return m.handleHelpKeys(msg), nil
		}
		return m.handleKeys(msg)
	}

	if m.prompting {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) reloadConfig() tea.Cmd {
	if m.reload == nil {
		return nil
	}
	var next tea.Cmd
	if m.watcher != nil {
		next = WatchConfigCmd(m.watcher)
	}
	gw, exp, err := m.reload()
	if err != nil {
		debug.Log("dashboard: config reload failed: %v", err)
		m.ctrl.status = StatusMsg{Text: "config reload failed", Err: err}
		return next
	}
	m.ctrl.status = StatusMsg{Text: "config reloaded"}
	return tea.Batch(m.ctrl.Reconfigure(gw, exp), next)
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case key.Matches(msg, keys.NextPanel):
		m.focus = (m.focus + 1) % panelCount
	case key.Matches(msg, keys.PrevPanel):
		m.focus = (m.focus + panelCount - 1) % panelCount
	case key.Matches(msg, keys.Up):
		m.move(0, -1)
	case key.Matches(msg, keys.Down):
		m.move(0, 1)
	case key.Matches(msg, keys.Left):
		m.move(-1, 0)
	case key.Matches(msg, keys.Right):
		m.move(1, 0)
	case key.Matches(msg, keys.Select):
		if m.focus == panelMap {
			if !m.ctrl.Map.SelectCursor() {
				m.ctrl.status = StatusMsg{Text: "no data for " + string(m.ctrl.Map.Cursor())}
			}
			return m, m.ctrl.Drain()
		}
	case key.Matches(msg, keys.Reset):
		return m, m.ctrl.Dispatch(ResetFilter{})
	case key.Matches(msg, keys.Theme):
		cmd := m.ctrl.Dispatch(ToggleTheme{})
		return m, cmd
	case key.Matches(msg, keys.Export):
		return m, m.ctrl.Dispatch(Export{Target: m.focus.target(), Format: export.ExtPNG})
	case key.Matches(msg, keys.ExportSVG):
		return m, m.ctrl.Dispatch(Export{Target: export.MapID, Format: export.ExtSVG})
	case key.Matches(msg, keys.Copy):
		if !m.focus.isTable() {
			m.ctrl.status = StatusMsg{Text: "focus a table to copy it"}
			return m, nil
		}
		return m, m.ctrl.Dispatch(CopyTable{Target: m.focus.target()})
	case key.Matches(msg, keys.Snapshot):
		return m, m.ctrl.Dispatch(Snapshot{})
	case key.Matches(msg, keys.Prompt):
		m.prompting = true
		m.prompt.SetValue("")
		return m, m.prompt.Focus()
	case key.Matches(msg, keys.Refresh):
		return m, m.ctrl.Refresh()
	case key.Matches(msg, keys.Help):
		m.showHelp = true
		m.help = renderHelp(m.ctrl.Themes().Theme(), m.width)
	}
	return m, nil
}

func (m *Model) move(dx, dy int) {
	switch {
	case m.focus == panelMap:
		m.ctrl.Map.Move(dx, dy)
	case m.focus.isTable() && dy != 0:
		m.focusedTable().Scroll(dy)
	}
}

func (m Model) focusedTable() *tables.Table {
	return m.ctrl.table(m.focus.target())
}

func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case "enter":
		m.prompting = false
		m.prompt.Blur()
		r, err := model.ParseRegion(m.prompt.Value())
		if err != nil {
			m.ctrl.status = StatusMsg{Text: "invalid state code", Err: err}
			return m, nil
		}
		if r.IsNational() {
			return m, m.ctrl.Dispatch(ResetFilter{})
		}
		if !m.ctrl.Map.Select(r) {
			m.ctrl.status = StatusMsg{Text: "no data for " + string(r)}
			return m, nil
		}
		return m, m.ctrl.Drain()
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handleHelpKeys(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "?", "esc", "q":
		m.showHelp = false
	}
	return m
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if m.showHelp || m.prompting || m.focus.isTable() {
		return m, nil
	}
	r, ok := m.ctrl.Map.RegionAt(msg.X-mapOriginX, msg.Y-mapOriginY)
	if !ok {
		return m, nil
	}
	m.focus = panelMap
	m.ctrl.Map.Select(r)
	return m, m.ctrl.Drain()
}

func (m Model) View() string {
	if m.showHelp {
		return m.help
	}
	p := m.ctrl.Themes().Palette()
	sections := []string{m.renderHeader(p), m.renderTiles(p)}
	if m.focus.isTable() {
		sections = append(sections, m.renderTablePage(p))
	} else {
		sections = append(sections, m.renderChartPage(p))
	}
	sections = append(sections, m.renderFooter(p))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(p theme.Palette) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.Fg(p.Accent)).Render("Hospital Readmissions")
	right := lipgloss.NewStyle().Foreground(theme.Fg(p.Muted)).
		Render("[t] " + m.ctrl.Themes().Theme().ToggleLabel())
	if m.ctrl.Refreshing() {
		right = m.spinner.View() + " " + right
	}
	gap := max(m.width-lipgloss.Width(title)-lipgloss.Width(right), 1)
	line1 := title + strings.Repeat(" ", gap) + right

	line2 := ""
	if text, ok := m.ctrl.Indicator(); ok {
		line2 = lipgloss.NewStyle().Foreground(theme.Fg(p.Highlight)).Render(text)
	}
	return line1 + "\n" + line2
}

func (m Model) renderTiles(p theme.Palette) string {
	t := m.ctrl.Tiles()
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Fg(p.Border)).
		Padding(0, 1)
	label := lipgloss.NewStyle().Foreground(theme.Fg(p.Muted))
	value := lipgloss.NewStyle().Bold(true).Foreground(theme.Fg(p.Text))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box.Render(label.Render("Total Hospitals ")+value.Render(t.TotalHospitals)),
		" ",
		box.Render(label.Render("Avg Readmission Score ")+value.Render(t.AverageScore)),
	)
}

func (m Model) panelStyle(p theme.Palette, which panel, width int) lipgloss.Style {
	border := p.Border
	if m.focus == which {
		border = p.Accent
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Fg(border)).
		Padding(0, 1).
		Width(max(width-2, 10))
}

func (m Model) panelTitle(p theme.Palette, which panel) string {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.Fg(p.Text)).Render(panelTitles[which])
}

func (m Model) renderChartPage(p theme.Palette) string {
	mapPanel := m.panelStyle(p, panelMap, mapPanelW).Render(
		m.panelTitle(p, panelMap) + "\n" + m.ctrl.Map.View())

	chartW := max(m.width-mapPanelW-1, 30)
	inner := chartW - 4
	donut := m.panelStyle(p, panelDonut, chartW).Render(
		m.panelTitle(p, panelDonut) + "\n" + m.ctrl.Charts.View(charts.SlotDonut, inner))
	volume := m.panelStyle(p, panelVolume, chartW).Render(
		m.panelTitle(p, panelVolume) + "\n" + m.ctrl.Charts.View(charts.SlotVolume, inner))

	return lipgloss.JoinHorizontal(lipgloss.Top, mapPanel, " ",
		lipgloss.JoinVertical(lipgloss.Left, donut, volume))
}

func (m Model) renderTablePage(p theme.Palette) string {
	avail := max(m.height-headerLines-tileLines-1, 16)
	rowH := avail / 2
	// Panel border and title take 3 lines, the table's own frame 4.
	rows := max(rowH-7, 1)

	half := max(m.width/2, 30)
	top := m.panelStyle(p, panelTop, half).Render(
		m.panelTitle(p, panelTop) + "\n" + m.ctrl.TopHospitals.View(half-4, rows, p))
	worst := m.panelStyle(p, panelWorst, m.width-half).Render(
		m.panelTitle(p, panelWorst) + "\n" + m.ctrl.WorstMeasures.View(m.width-half-4, rows, p))
	states := m.panelStyle(p, panelStates, m.width).Render(
		m.panelTitle(p, panelStates) + "\n" + m.ctrl.StateDetails.View(m.width-4, max(avail-rowH-7, 1), p))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, top, worst),
		states)
}

func (m Model) renderFooter(p theme.Palette) string {
	if m.prompting {
		return m.prompt.View()
	}
	st := m.ctrl.Status()
	text := st.Text
	style := lipgloss.NewStyle().Foreground(theme.Fg(p.Muted))
	if st.Err != nil {
		text = fmt.Sprintf("%s: %v", st.Text, st.Err)
		style = style.Foreground(theme.Fg(theme.ColorWorse))
	}
	hint := lipgloss.NewStyle().Foreground(theme.Fg(p.Muted)).Render("tab panels · / state · r reset · e export · ? help · q quit")
	if text == "" {
		return hint
	}
	return style.Render(text) + "  " + hint
}
