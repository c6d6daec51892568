// Package tui implements the Bubble Tea dashboard for interactive checks.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/plugver/internal/diff"
	"github.com/sprite-ai/plugver/internal/governance"
)

// startMsg carries the plugins a check is about to classify.
type startMsg []string

// resultMsg carries one finished plugin.
type resultMsg governance.PluginStatus

// doneMsg ends the check.
type doneMsg struct {
	report *governance.CheckReport
	err    error
}

type pluginRow struct {
	name   string
	status *governance.PluginStatus
	lines  []renderedLine
}

// Model is the top-level Bubble Tea model for the check dashboard.
type Model struct {
	rows    []pluginRow
	spinner spinner.Model

	report *governance.CheckReport
	err    error
	done   bool

	// UI state
	width  int
	height int

	rowIndex     int
	scrollOffset int
	viewHeight   int

	splitView bool
	showHelp  bool
}

// New creates an empty dashboard; rows arrive as the check reports them.
func New() Model {
	return Model{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(spinnerStyle),
		),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = m.height - 4
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startMsg:
		m.rows = make([]pluginRow, len(msg))
		for i, name := range msg {
			m.rows[i] = pluginRow{name: name}
		}
		return m, nil

	case resultMsg:
		st := governance.PluginStatus(msg)
		m.setResult(st)
		return m, nil

	case doneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.scrollOffset < len(m.lines())-1 {
				m.scrollOffset++
			}

		case key.Matches(msg, keys.Up):
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}

		case key.Matches(msg, keys.NextPlugin):
			if m.rowIndex < len(m.rows)-1 {
				m.rowIndex++
				m.scrollOffset = 0
			}

		case key.Matches(msg, keys.PrevPlugin):
			if m.rowIndex > 0 {
				m.rowIndex--
				m.scrollOffset = 0
			}

		case key.Matches(msg, keys.NextHunk):
			m.jumpToNextHunk()

		case key.Matches(msg, keys.PrevHunk):
			m.jumpToPrevHunk()

		case key.Matches(msg, keys.Toggle):
			m.splitView = !m.splitView

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
	}

	return m, nil
}

func (m *Model) setResult(st governance.PluginStatus) {
	var lines []renderedLine
	if st.Diff != "" {
		if ds, err := diff.Parse(st.Diff); err == nil {
			lines = renderDiff(ds)
		}
	}

	for i := range m.rows {
		if m.rows[i].name == st.Plugin {
			m.rows[i].status = &st
			m.rows[i].lines = lines
			return
		}
	}
	m.rows = append(m.rows, pluginRow{name: st.Plugin, status: &st, lines: lines})
}

// lines returns the rendered diff of the selected plugin.
func (m Model) lines() []renderedLine {
	if m.rowIndex >= len(m.rows) {
		return nil
	}
	return m.rows[m.rowIndex].lines
}

func (m *Model) jumpToNextHunk() {
	lines := m.lines()
	for i := m.scrollOffset + 1; i < len(lines); i++ {
		if lines[i].IsHunk {
			m.scrollOffset = i
			return
		}
	}
}

func (m *Model) jumpToPrevHunk() {
	lines := m.lines()
	for i := m.scrollOffset - 1; i >= 0; i-- {
		if lines[i].IsHunk {
			m.scrollOffset = i
			return
		}
	}
}

// Report returns the finished report, or nil while the check runs.
func (m Model) Report() *governance.CheckReport {
	return m.report
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	listWidth := m.pluginListWidth()
	diffWidth := m.width - listWidth - 1

	list := m.renderPluginList(listWidth, m.height-2)
	diffView := m.renderDiffView(diffWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", diffView)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) pluginListWidth() int {
	maxLen := 16
	for _, r := range m.rows {
		if len(r.name) > maxLen {
			maxLen = len(r.name)
		}
	}
	w := maxLen + 18
	if w > m.width/3 {
		w = m.width / 3
	}
	if w < 24 {
		w = 24
	}
	return w
}

func (m Model) rowLabel(r pluginRow) (string, lipgloss.Style) {
	switch {
	case r.status == nil:
		return m.spinner.View() + " " + r.name, pluginPendingStyle
	case !r.status.Changed:
		return "· " + r.name + "  unchanged", pluginUnchangedStyle
	case r.status.Required:
		return fmt.Sprintf("✗ %s  +%d -%d", r.name, r.status.Stats.Added, r.status.Stats.Deleted), pluginRequiredStyle
	default:
		return fmt.Sprintf("✓ %s  +%d -%d", r.name, r.status.Stats.Added, r.status.Stats.Deleted), pluginCompliantStyle
	}
}

func (m Model) renderPluginList(width, height int) string {
	var b strings.Builder

	if len(m.rows) == 0 {
		if m.done {
			b.WriteString(pluginPendingStyle.Render("No changed plugins"))
		} else {
			b.WriteString(m.spinner.View() + " Locating changes…")
		}
	}

	for i, r := range m.rows {
		label, style := m.rowLabel(r)
		label = truncate(label, width-4)
		if i == m.rowIndex {
			style = style.Inherit(pluginSelectedStyle)
		}
		b.WriteString(style.Width(width - 4).Render(label))
		if i < len(m.rows)-1 {
			b.WriteByte('\n')
		}
	}

	return pluginListStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderDiffView(width, height int) string {
	innerWidth := width - 4
	innerHeight := height - 2

	if m.rowIndex >= len(m.rows) {
		return diffViewStyle.Width(width).Height(innerHeight).Render("No changes")
	}

	r := m.rows[m.rowIndex]
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.name))
	b.WriteByte('\n')

	switch {
	case r.status == nil:
		b.WriteString(m.spinner.View() + " Classifying…")
	case len(r.lines) == 0:
		b.WriteString("No changes")
	default:
		visibleLines := innerHeight - 2
		if visibleLines < 1 {
			visibleLines = 1
		}
		if m.splitView {
			m.renderSplitDiff(&b, r.lines, innerWidth, visibleLines)
		} else {
			m.renderUnifiedDiff(&b, r.lines, innerWidth, visibleLines)
		}
	}

	return diffViewStyle.Width(width).Height(innerHeight).Render(b.String())
}

func (m Model) visibleRange(total, visibleLines int) (int, int) {
	start := m.scrollOffset
	if start > total {
		start = total
	}
	end := start + visibleLines
	if end > total {
		end = total
	}
	return start, end
}

func (m Model) renderUnifiedDiff(b *strings.Builder, lines []renderedLine, width, visibleLines int) {
	start, end := m.visibleRange(len(lines), visibleLines)
	for i := start; i < end; i++ {
		b.WriteString(styleLine(lines[i], width))
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
}

func (m Model) renderSplitDiff(b *strings.Builder, lines []renderedLine, width, visibleLines int) {
	halfWidth := (width - 3) / 2

	start, end := m.visibleRange(len(lines), visibleLines)
	for i := start; i < end; i++ {
		left, right := styleLineSplit(lines[i], halfWidth)
		b.WriteString(left)
		b.WriteString(" │ ")
		b.WriteString(right)
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
}

func (m Model) renderStatusBar() string {
	checked := 0
	for _, r := range m.rows {
		if r.status != nil {
			checked++
		}
	}

	left := fmt.Sprintf(" Plugin %d/%d  checked %d", min(m.rowIndex+1, len(m.rows)), len(m.rows), checked)

	var verdict string
	switch {
	case !m.done:
		verdict = m.spinner.View() + " checking"
	case m.err != nil:
		verdict = statusFailStyle.Render("error: " + m.err.Error())
	case m.report != nil && !m.report.Compliant():
		verdict = statusFailStyle.Render(fmt.Sprintf("%d plugin(s) need a version bump", len(m.report.NonCompliant)))
	default:
		verdict = statusPassStyle.Render("all plugins compliant")
	}

	mode := "unified"
	if m.splitView {
		mode = "split"
	}
	right := fmt.Sprintf("%s  %s  ? help ", verdict, mode)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("plugver check: Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, binding := range keys.helpItems() {
		h := binding.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// CheckFunc runs a check, reporting progress through opts.
type CheckFunc func(ctx context.Context, opts governance.CheckOptions) (*governance.CheckReport, error)

// Run shows the dashboard while check runs and returns its outcome once the
// user quits. Quitting before the check finishes cancels it.
func Run(ctx context.Context, check CheckFunc, opts ...tea.ProgramOption) (*governance.CheckReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(), opts...)

	var (
		report   *governance.CheckReport
		checkErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		report, checkErr = check(ctx, governance.CheckOptions{
			OnStart:  func(plugins []string) { p.Send(startMsg(plugins)) },
			OnResult: func(st governance.PluginStatus) { p.Send(resultMsg(st)) },
		})
		p.Send(doneMsg{report: report, err: checkErr})
	}()

	_, runErr := p.Run()
	cancel()
	<-done

	if checkErr != nil {
		return nil, checkErr
	}
	if runErr != nil {
		return nil, fmt.Errorf("running dashboard: %w", runErr)
	}
	return report, nil
}
