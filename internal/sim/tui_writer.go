package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"offtank-sim/internal/config"
	"offtank-sim/internal/report"
	"offtank-sim/internal/trace"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

type progressMsg struct{ done, survived, total int }

// logMsg carries a line for the viewport.
type logMsg struct{ line string }

type summaryMsg struct{ trace.SummaryRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

const (
	maxLogLines = 500
	barWidth    = 40
)

// TUIWriter renders batch progress using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
// Quitting the TUI interrupts the process so the running batch stops.
func NewTUIWriter(cfg *config.Config, scenario, description string) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg, scenario, description), tea.WithAltScreen())
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

// Progress implements ProgressObserver.
func (w *TUIWriter) Progress(done, survived, total int) {
	w.program.Send(progressMsg{done: done, survived: survived, total: total})
}

// WriteResult logs deaths to the viewport. Survivals only move the bar.
func (w *TUIWriter) WriteResult(row trace.RunRow) error {
	if row.Survived {
		return nil
	}
	line := fmt.Sprintf("%strial %6d%s %stank %d%s died at %s%6.1fs%s after %d strikes, %d heals",
		colorGray, row.Trial, colorReset,
		tankColor(row.DeadTank), row.DeadTank, colorReset,
		colorRed, row.EndTime, colorReset,
		row.Strikes, row.Heals)
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteResults logs multiple trial outcomes.
func (w *TUIWriter) WriteResults(rows []trace.RunRow) error {
	for _, r := range rows {
		_ = w.WriteResult(r)
	}
	return nil
}

// WriteSummary shows the final report.
func (w *TUIWriter) WriteSummary(s trace.SummaryRow) error {
	w.program.Send(summaryMsg{s})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Wait blocks until the user quits the TUI.
func (w *TUIWriter) Wait() {
	w.sendSignal.Store(false)
	if w.done != nil {
		<-w.done
	}
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
	description string
	scenario    string
	table       table.Model
	spinner     spinner.Model
	vp          viewport.Model
	logs        []string
	done        int
	survived    int
	total       int
	summary     *trace.SummaryRow
	admin       bool
	wrap        bool
	autoscroll  bool
	help        bool
	width       int
	height      int
}

func newTUIModel(cfg *config.Config, scenario, description string) tuiModel {
	cols := []table.Column{
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 14},
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 14},
	}
	rows := []table.Row{
		{"Tanks", fmt.Sprintf("%d x %.0f", cfg.Tanks, cfg.MaxHealth), "Fight (s)", fmt.Sprintf("%.0f", cfg.FightLength)},
		{"Strike", fmt.Sprintf("%.0f-%.0f", cfg.DamageMin, cfg.DamageMax), "Mitigation", fmt.Sprintf("%.2f", cfg.Mitigation)},
		{"Miss Chance", fmt.Sprintf("%.2f", cfg.MissChance), "Interval", intervalLabel(cfg.AttackInterval)},
		{"Healers", fmt.Sprintf("%d (%d/tank)", cfg.Healers, cfg.HealersPerTank), "Spell", cfg.Spell.Name},
		{"Plus Heal", fmt.Sprintf("%.0f", cfg.TotalPlusHeal()), "Crit", fmt.Sprintf("%.0f%% x%.2f", cfg.CritChance*100, cfg.CritMultiplier)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return tuiModel{
		description: description,
		scenario:    scenario,
		table:       t,
		spinner:     sp,
		vp:          viewport.New(0, 0),
		autoscroll:  true,
	}
}

func intervalLabel(a config.AttackInterval) string {
	if a.Mode == config.IntervalFixed {
		return fmt.Sprintf("%.2fs", a.Fixed)
	}
	return fmt.Sprintf("%.2f-%.2fs", a.Min, a.Max)
}

func (m tuiModel) Init() tea.Cmd { return m.spinner.Tick }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
		case "h", "?":
			m.help = !m.help
		default:
			if !m.autoscroll {
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
	case spinner.TickMsg:
		if m.summary != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progressMsg:
		if msg.done >= m.done {
			m.done, m.survived, m.total = msg.done, msg.survived, msg.total
		}
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case summaryMsg:
		s := msg.SummaryRow
		m.summary = &s
		m.done, m.survived, m.total = s.Trials, s.Survived, s.Trials
		m.updateViewportHeight()
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderBottom()) - 3
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
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

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	return strings.Join([]string{
		m.renderHeader(),
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}

func (m tuiModel) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Render("Patchwerk off-tank simulation")
	if m.scenario != "" {
		title += " " + lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Render(m.scenario)
	}
	parts := []string{title}
	if m.description != "" {
		desc := m.description
		if m.width > 0 {
			desc = wordwrap.String(desc, m.width)
		}
		parts = append(parts, desc)
	}
	parts = append(parts, m.table.View())
	return strings.Join(parts, "\n")
}

func (m tuiModel) renderBottom() string {
	adminColor := lipgloss.Color("9")
	if m.admin {
		adminColor = lipgloss.Color("10")
	}
	wrapColor := lipgloss.Color("9")
	if m.wrap {
		wrapColor = lipgloss.Color("10")
	}
	scrollColor := lipgloss.Color("10")
	if !m.autoscroll {
		scrollColor = lipgloss.Color("9")
	}
	adminIndicator := lipgloss.NewStyle().Foreground(adminColor).Render("●")
	wrapIndicator := lipgloss.NewStyle().Foreground(wrapColor).Render("●")
	scrollIndicator := lipgloss.NewStyle().Foreground(scrollColor).Render("●")

	status := m.spinner.View() + " running"
	if m.summary != nil {
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✔ done")
	}
	frac := 0.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}
	progress := fmt.Sprintf("%s %s %d/%d", status, renderBar(frac, barWidth), m.done, m.total)
	line := fmt.Sprintf("%s | Admin UI %s | Wrap %s | Scroll %s | h help", progress, adminIndicator, wrapIndicator, scrollIndicator)
	result := report.SurvivalLine(m.survived, m.done)
	if m.summary != nil {
		result = report.Summary(*m.summary)
	}
	return result + "\n" + line
}

// renderBar draws a fixed-width bar filled to frac (clamped to [0,1]).
func renderBar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	full := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(strings.Repeat("█", filled))
	empty := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(strings.Repeat("░", width-filled))
	return full + empty
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit (stops a running batch)",
		" w  toggle wrap for the death log",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
