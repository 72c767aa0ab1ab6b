package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/flappy-lab/internal/storage"
)

// Run board layout constants
const (
	maxRuns        = 200
	boardChrome    = 8 // title, tabs, borders and help
	minTableHeight = 3
)

// BoardSource supplies the run board. *storage.Store satisfies it.
type BoardSource interface {
	Runs(limit int) ([]storage.Run, error)
	AllPolicyStats() (map[string]*storage.PolicyStats, error)
}

var _ BoardSource = (*storage.Store)(nil)

// boardTab selects which table the board shows.
type boardTab int

const (
	tabRuns boardTab = iota
	tabPolicies
)

func (t boardTab) String() string {
	if t == tabPolicies {
		return "Policies"
	}
	return "Runs"
}

// RunBoardKeyMap defines the key bindings for the run board.
type RunBoardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k RunBoardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k RunBoardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab},
		{k.Refresh, k.Quit},
	}
}

// DefaultRunBoardKeyMap returns default key bindings.
func DefaultRunBoardKeyMap() RunBoardKeyMap {
	return RunBoardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next view"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev view"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// RunBoard is the Bubble Tea model listing experiment runs and per-policy
// episode statistics.
type RunBoard struct {
	source   BoardSource
	tab      boardTab
	runs     []storage.Run
	stats    []*storage.PolicyStats
	err      error
	table    table.Model
	help     help.Model
	keys     RunBoardKeyMap
	width    int
	height   int
	quitting bool
}

// NewRunBoard creates a run board and loads its data.
func NewRunBoard(source BoardSource, width, height int) RunBoard {
	m := RunBoard{
		source: source,
		keys:   DefaultRunBoardKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.load()
	m.table = m.createTable()
	return m
}

// load refreshes both data sets from the source.
func (m *RunBoard) load() {
	m.err = nil
	if m.source == nil {
		return
	}

	runs, err := m.source.Runs(maxRuns)
	if err != nil {
		m.err = err
		return
	}
	m.runs = runs

	stats, err := m.source.AllPolicyStats()
	if err != nil {
		m.err = err
		return
	}
	m.stats = make([]*storage.PolicyStats, 0, len(stats))
	for _, ps := range stats {
		m.stats = append(m.stats, ps)
	}
	sort.Slice(m.stats, func(i, j int) bool {
		if m.stats[i].HighScore != m.stats[j].HighScore {
			return m.stats[i].HighScore > m.stats[j].HighScore
		}
		return m.stats[i].Policy < m.stats[j].Policy
	})
}

// createTable builds the table for the current tab.
func (m *RunBoard) createTable() table.Model {
	columns, rows := m.runTable()
	if m.tab == tabPolicies {
		columns, rows = m.policyTable()
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(minTableHeight, m.height-boardChrome)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func (m *RunBoard) runTable() ([]table.Column, []table.Row) {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Run", Width: 8},
		{Title: "Episodes", Width: 8},
		{Title: "Gap", Width: 5},
		{Title: "Epsilon", Width: 7},
		{Title: "LR", Width: 6},
		{Title: "Epochs", Width: 6},
		{Title: "Deg", Width: 3},
		{Title: "Samples", Width: 8},
		{Title: "Train", Width: 6},
		{Title: "Val", Width: 6},
	}

	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		rows[i] = table.Row{
			fmt.Sprintf("%d", r.Index),
			shortID(r.RunID),
			fmt.Sprintf("%d", r.Episodes),
			fmt.Sprintf("%g", r.Gap),
			fmt.Sprintf("%g", r.Epsilon),
			fmt.Sprintf("%g", r.LearningRate),
			fmt.Sprintf("%d", r.Epochs),
			fmt.Sprintf("%d", r.Degree),
			fmt.Sprintf("%d", r.Samples),
			fmt.Sprintf("%.3f", r.TrainAcc),
			fmt.Sprintf("%.3f", r.ValAcc),
		}
	}
	return columns, rows
}

func (m *RunBoard) policyTable() ([]table.Column, []table.Row) {
	columns := []table.Column{
		{Title: "Policy", Width: 14},
		{Title: "Episodes", Width: 8},
		{Title: "Best", Width: 6},
		{Title: "Avg", Width: 7},
		{Title: "Steps", Width: 8},
		{Title: "Success", Width: 8},
		{Title: "Last", Width: 12},
	}

	rows := make([]table.Row, len(m.stats))
	for i, ps := range m.stats {
		rows[i] = table.Row{
			ps.Policy,
			fmt.Sprintf("%d", ps.Episodes),
			fmt.Sprintf("%d", ps.HighScore),
			fmt.Sprintf("%.2f", ps.AvgScore),
			fmt.Sprintf("%.1f", ps.AvgSteps),
			fmt.Sprintf("%.0f%%", ps.SuccessRate*100),
			ps.LastPlayed.Format("Jan 02 15:04"),
		}
	}
	return columns, rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Init initializes the run board.
func (m RunBoard) Init() tea.Cmd {
	return nil
}

// Update handles messages for the run board.
func (m RunBoard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextTab), key.Matches(msg, m.keys.PrevTab):
			m.tab = 1 - m.tab
			m.table = m.createTable()
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			m.load()
			m.table = m.createTable()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the run board.
func (m RunBoard) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	b.WriteString(titleStyle.Render("FLAPPY LAB"))
	b.WriteString("\n\n")

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	tabs := make([]string, 0, 2)
	for _, t := range []boardTab{tabRuns, tabPolicies} {
		if t == m.tab {
			tabs = append(tabs, activeTabStyle.Render(t.String()))
		} else {
			tabs = append(tabs, tabStyle.Render(t.String()))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(tableStyle.Render(m.renderTableContent()))

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or a placeholder.
func (m RunBoard) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(1, 4)

	switch {
	case m.err != nil:
		return emptyStyle.Render("Could not load data:\n" + m.err.Error())
	case m.tab == tabRuns && len(m.runs) == 0:
		return emptyStyle.Render("No runs recorded yet.\nRun 'flappylab experiments' to sweep a grid.")
	case m.tab == tabPolicies && len(m.stats) == 0:
		return emptyStyle.Render("No episodes recorded yet.\nRun 'flappylab evaluate' or 'flappylab play'.")
	}

	return m.table.View()
}

// RunRunBoard runs the board in the current terminal.
func RunRunBoard(source BoardSource, width, height int) error {
	p := tea.NewProgram(
		NewRunBoard(source, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
