package sim

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"cryotank-sim/internal/boiloff"
	"cryotank-sim/internal/config"
	"cryotank-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// eventMsg carries a cooling event log line.
type eventMsg struct{ line string }

// tankMsg carries the latest rows for the tank table.
type tankMsg struct{ rows []telemetry.TankRow }

// stateMsg carries a vessel state update.
type stateMsg struct{ telemetry.VesselStateRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type setToggleMsg struct{ fn CoolingToggler }

// toggleResultMsg reports the outcome of a cooling toggle.
type toggleResultMsg struct {
	tank    string
	enabled bool
	err     error
}

const (
	maxLogLines         = 1000
	maxSectionHeightPct = 0.2
)

// TUIWriter renders telemetry using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	mu         sync.Mutex
	tankColors map[string]string
	colorIdx   int
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{tankColors: make(map[string]string), done: make(chan struct{})}
	w.sendSignal.Store(true)
	for _, t := range cfg.Tanks {
		w.getTankColor(t.Name)
	}
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func (w *TUIWriter) getTankColor(name string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.tankColors[name]; ok {
		return c
	}
	c := tankPalette[w.colorIdx%len(tankPalette)]
	w.tankColors[name] = c
	w.colorIdx++
	return c
}

func (w *TUIWriter) line(row telemetry.TankRow) string {
	return fmt.Sprintf("%s[%s]%s %st=%.0f%s %s%s%s %s%s%s %sfuel=%.3f%s %s%s%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, row.MissionTime, colorReset,
		w.getTankColor(row.Tank), row.Tank, colorReset,
		stateColor(row.State), row.State, colorReset,
		colorCyan, row.FuelAmount, colorReset,
		colorMagenta, row.BoiloffStatus, colorReset,
	)
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.TankRow) error {
	return w.WriteBatch([]telemetry.TankRow{row})
}

// WriteBatch sends one log line per row and a single table update.
func (w *TUIWriter) WriteBatch(rows []telemetry.TankRow) error {
	for _, r := range rows {
		w.program.Send(logMsg{line: w.line(r)})
	}
	w.program.Send(tankMsg{rows: rows})
	return nil
}

// WriteState implements StateWriter.
func (w *TUIWriter) WriteState(row telemetry.VesselStateRow) error {
	w.program.Send(stateMsg{VesselStateRow: row})
	return nil
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(e telemetry.CoolingEventRow) error {
	line := fmt.Sprintf("%s[%s]%s %s%s%s", colorGray, e.Timestamp.Format(time.RFC3339), colorReset, colorMagenta, e.EventType, colorReset)
	if e.Tank != "" {
		line += fmt.Sprintf(" %s%s%s", w.getTankColor(e.Tank), e.Tank, colorReset)
	}
	if e.Detail != "" {
		line += " " + e.Detail
	}
	if e.Value != 0 {
		line += fmt.Sprintf(" (%.4f)", e.Value)
	}
	w.program.Send(eventMsg{line: line})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetCoolingToggle registers the callback bound to the cooling key.
func (w *TUIWriter) SetCoolingToggle(fn CoolingToggler) {
	w.program.Send(setToggleMsg{fn: fn})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.SimulationConfig
	table        table.Model
	vp           viewport.Model
	evVP         viewport.Model
	logs         []string
	evLogs       []string
	tanks        map[string]telemetry.TankRow
	order        []string
	state        telemetry.VesselStateRow
	toggle       CoolingToggler
	admin        bool
	wrap         bool
	autoscroll   bool
	summary      bool
	help         bool
	header       string
	headerHeight int
	width        int
	height       int
}

var tankColumns = []table.Column{
	{Title: "Tank", Width: 14},
	{Title: "State", Width: 16},
	{Title: "Fuel", Width: 18},
	{Title: "Cooling", Width: 16},
	{Title: "Boiloff", Width: 20},
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	m := tuiModel{
		cfg:        cfg,
		vp:         viewport.New(0, 0),
		evVP:       viewport.New(0, 0),
		tanks:      make(map[string]telemetry.TankRow),
		autoscroll: true,
	}
	for _, t := range cfg.Tanks {
		m.order = append(m.order, t.Name)
	}
	m.table = table.New(
		table.WithColumns(tankColumns),
		table.WithRows(m.tableRows()),
		table.WithHeight(len(m.order)+1),
		table.WithFocused(true),
	)
	return m
}

func (m tuiModel) tableRows() []table.Row {
	rows := make([]table.Row, 0, len(m.order))
	for _, name := range m.order {
		r, ok := m.tanks[name]
		if !ok {
			rows = append(rows, table.Row{name, "-", "-", "-", "-"})
			continue
		}
		cooling := r.CoolingStatus
		if !r.CoolingEnabled {
			cooling = boiloff.StatusDisabled
		}
		rows = append(rows, table.Row{
			name,
			r.State,
			fmt.Sprintf("%.1f/%.0f", r.FuelAmount, r.FuelMax),
			cooling,
			r.BoiloffStatus,
		})
	}
	return rows
}

// selectedTank returns the tank under the table cursor.
func (m tuiModel) selectedTank() (string, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.order) {
		return "", false
	}
	return m.order[i], true
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.evVP.Width = msg.Width
		m.relayout()
		m.refreshViewport()
		m.refreshEvents()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
				m.updateViewportHeight()
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.relayout()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.evVP.GotoBottom()
			}
			return m, nil
		case "tab":
			if n := len(m.order); n > 0 {
				m.table.SetCursor((m.table.Cursor() + 1) % n)
			}
			return m, nil
		case "shift+tab":
			if n := len(m.order); n > 0 {
				m.table.SetCursor((m.table.Cursor() + n - 1) % n)
			}
			return m, nil
		case "c":
			return m, m.toggleCmd()
		case "t":
			m.summary = !m.summary
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = !m.help
			m.updateViewportHeight()
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
				m.evVP.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
				m.evVP.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
				m.evVP.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
				m.evVP.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				m.evVP, _ = m.evVP.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = appendCapped(m.logs, msg.line)
		m.refreshViewport()
	case eventMsg:
		m.evLogs = appendCapped(m.evLogs, msg.line)
		m.updateViewportHeight()
		m.refreshEvents()
	case tankMsg:
		for _, r := range msg.rows {
			if _, ok := m.tanks[r.Tank]; !ok && !contains(m.order, r.Tank) {
				m.order = append(m.order, r.Tank)
			}
			m.tanks[r.Tank] = r
		}
		m.table.SetRows(m.tableRows())
		m.table.SetHeight(len(m.order) + 1)
		m.relayout()
	case stateMsg:
		m.state = msg.VesselStateRow
	case adminMsg:
		m.admin = msg.active
	case setToggleMsg:
		m.toggle = msg.fn
	case toggleResultMsg:
		line := fmt.Sprintf("%scooling%s %s enabled=%t", colorMagenta, colorReset, msg.tank, msg.enabled)
		if msg.err != nil {
			line = fmt.Sprintf("%scooling toggle failed%s %s: %v", colorRed, colorReset, msg.tank, msg.err)
		}
		m.logs = appendCapped(m.logs, line)
		m.refreshViewport()
	}
	return m, nil
}

// toggleCmd runs the cooling toggle off the update loop; the simulator may
// be writing to this program while it holds its own lock.
func (m tuiModel) toggleCmd() tea.Cmd {
	name, ok := m.selectedTank()
	if !ok || m.toggle == nil {
		return nil
	}
	fn := m.toggle
	return func() tea.Msg {
		enabled, err := fn(name)
		return toggleResultMsg{tank: name, enabled: enabled, err: err}
	}
}

func appendCapped(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *tuiModel) relayout() {
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
	m.updateViewportHeight()
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())

	evLines := len(m.evLogs)
	if evLines == 0 {
		evLines = 1
	}
	if limit := m.maxSectionLines(); evLines > limit {
		evLines = limit
	}
	m.evVP.Height = evLines

	h := m.height - m.headerHeight - bottomHeight - (1 + m.evVP.Height) - 3
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.evVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshEvents() {
	content := "none"
	if len(m.evLogs) > 0 {
		content = strings.Join(m.evLogs, "\n")
	}
	m.evVP.SetContent(content)
	if m.autoscroll {
		m.evVP.GotoBottom()
	}
}

func (m tuiModel) maxSectionLines() int {
	h := int(float64(m.height) * maxSectionHeightPct)
	if h < 1 {
		h = 1
	}
	return h
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		"Events:",
		m.evVP.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	tableView := m.table.View()
	width := m.width - lipgloss.Width(tableView) - 1
	info := renderVesselInfo(m.cfg, m.wrap, width)
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, tableView, sep, info)
}

func renderVesselInfo(cfg *config.SimulationConfig, wrap bool, width int) string {
	if cfg == nil {
		return ""
	}
	lines := []string{
		fmt.Sprintf("Vessel %s  tick %.2fs  warp %.0fx", cfg.Vessel, cfg.TickDurationS, cfg.TimeWarp),
		fmt.Sprintf("Power %s cap %.0f gen %.2f/s reserve %.0f", cfg.Power.Resource, cfg.Power.Capacity, cfg.Power.GenerationRate, cfg.Power.MinReserve),
	}
	if cfg.Scenario != "" {
		lines = append(lines, "Scenario "+cfg.Scenario)
	}
	for _, t := range cfg.Tanks {
		var fuels []string
		for _, ch := range t.Boiloff {
			fuels = append(fuels, fmt.Sprintf("%s %.2f%%/hr", ch.Fuel, ch.RatePercentPerHour))
		}
		lines = append(lines, fmt.Sprintf("%s: %s", t.Name, strings.Join(fuels, ", ")))
	}
	if wrap && width > 0 {
		for i, l := range lines {
			lines[i] = wordwrap.String(l, width)
		}
	}
	return strings.Join(lines, "\n")
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	power := fmt.Sprintf("%sPOWER%s %s%.1f/%.0f%s %sgen=%.2f/s%s %sdraw=%.2f/s%s %sboiling=%d%s",
		colorBlue, colorReset,
		colorYellow, m.state.PowerAmount, m.state.PowerMax, colorReset,
		colorGreen, m.state.GenerationRate, colorReset,
		colorCyan, m.state.CoolingDraw, colorReset,
		colorRed, m.state.BoilingTanks, colorReset)
	if m.state.Phase != "" {
		power += fmt.Sprintf(" %sphase=%s%s", colorMagenta, m.state.Phase, colorReset)
	}
	line := fmt.Sprintf("%s | Admin UI %s | Wrap %s | Scroll %s | Summary %s", power,
		indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.summary))
	if m.summary {
		return fmt.Sprintf("%s\n%s", m.renderSummary(), line)
	}
	return line
}

func (m tuiModel) renderSummary() string {
	var fuel, capacity, boiled float64
	for _, r := range m.tanks {
		fuel += r.FuelAmount
		capacity += r.FuelMax
		boiled += r.Boiled
	}
	pct := 0.0
	if capacity > 0 {
		pct = fuel / capacity * 100
	}
	return fmt.Sprintf("Tanks %d | Fuel %.1f/%.0f (%.1f%%) | Boiled last tick %.4f | Mission %.0fs",
		len(m.order), fuel, capacity, pct, boiled, m.state.MissionTime)
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" tab/shift+tab  select tank",
		" c  toggle cooling on the selected tank",
		" w  toggle wrap",
		" s  toggle auto-scroll",
		" t  toggle summary footer",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
