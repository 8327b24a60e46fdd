package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pong-arena/internal/storage"
)

// Scoreboard layout constants
const (
	maxRows      = 100 // rows loaded per board
	loadTimeout  = 5 * time.Second
	tableMargins = 8 // header, tabs, help and borders
)

// Board is one of the scoreboard tabs.
type Board int

const (
	BoardLeaderboard Board = iota
	BoardRecent
	boardCount
)

// Title returns the tab title.
func (b Board) Title() string {
	switch b {
	case BoardLeaderboard:
		return "Leaderboard"
	case BoardRecent:
		return "Recent matches"
	default:
		return "Unknown"
	}
}

// BoardSource is the part of the store the scoreboard reads.
type BoardSource interface {
	Leaderboard(ctx context.Context, limit int) ([]storage.PlayerStats, error)
	RecentMatches(ctx context.Context, limit int) ([]storage.MatchResult, error)
}

// ScoreboardKeyMap defines the key bindings for the scoreboard.
type ScoreboardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Next, k.Prev, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Next, k.Prev},
		{k.Refresh, k.Quit},
	}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next board"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev board"),
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

// ScoreboardModel is the Bubble Tea model for browsing stored results.
type ScoreboardModel struct {
	source   BoardSource
	board    Board
	rows     []table.Row
	loadErr  error
	table    table.Model
	help     help.Model
	keys     ScoreboardKeyMap
	width    int
	height   int
	quitting bool
}

// NewScoreboardModel creates a new scoreboard model.
func NewScoreboardModel(source BoardSource, width, height int) ScoreboardModel {
	h := help.New()
	h.ShowAll = false

	m := ScoreboardModel{
		source: source,
		keys:   DefaultScoreboardKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

func (m *ScoreboardModel) columns() []table.Column {
	switch m.board {
	case BoardRecent:
		return []table.Column{
			{Title: "When", Width: 12},
			{Title: "Player 1", Width: 14},
			{Title: "Score", Width: 7},
			{Title: "Player 2", Width: 14},
			{Title: "Result", Width: 12},
		}
	default:
		return []table.Column{
			{Title: "Rank", Width: 6},
			{Title: "Player", Width: 18},
			{Title: "Wins", Width: 6},
			{Title: "Losses", Width: 7},
			{Title: "Win %", Width: 7},
		}
	}
}

// createTable creates a new table with the columns of the current board.
func (m *ScoreboardModel) createTable() table.Model {
	t := table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(max(m.height-tableMargins, 3)),
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

// load reads the current board from the source.
func (m *ScoreboardModel) load() {
	m.rows, m.loadErr = nil, nil
	if m.source == nil {
		m.table.SetRows(nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	switch m.board {
	case BoardLeaderboard:
		stats, err := m.source.Leaderboard(ctx, maxRows)
		m.loadErr = err
		m.rows = LeaderboardRows(stats)
	case BoardRecent:
		matches, err := m.source.RecentMatches(ctx, maxRows)
		m.loadErr = err
		m.rows = MatchRows(matches)
	}
	m.table.SetRows(m.rows)
	m.table.GotoTop()
}

// LeaderboardRows formats player stats as table rows.
func LeaderboardRows(stats []storage.PlayerStats) []table.Row {
	rows := make([]table.Row, len(stats))
	for i, s := range stats {
		pct := 0.0
		if s.Played() > 0 {
			pct = 100 * float64(s.Wins) / float64(s.Played())
		}
		name := s.Name
		if name == "" {
			name = s.PlayerID
		}
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			name,
			fmt.Sprintf("%d", s.Wins),
			fmt.Sprintf("%d", s.Losses),
			fmt.Sprintf("%.0f%%", pct),
		}
	}
	return rows
}

// MatchRows formats match results as table rows.
func MatchRows(matches []storage.MatchResult) []table.Row {
	rows := make([]table.Row, len(matches))
	for i, r := range matches {
		result := r.Reason
		switch {
		case r.WinnerID == "":
			result = "no result"
		case r.TournamentID != "":
			result = "tournament"
		}
		rows[i] = table.Row{
			r.EndedAt.Local().Format("Jan 02 15:04"),
			displayName(r.Player1Name, r.Player1ID),
			fmt.Sprintf("%d-%d", r.ScorePlayer1, r.ScorePlayer2),
			displayName(r.Player2Name, r.Player2ID),
			result,
		}
	}
	return rows
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

// Init initializes the scoreboard model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Next):
			m.switchBoard((m.board + 1) % boardCount)
			return m, nil

		case key.Matches(msg, m.keys.Prev):
			m.switchBoard((m.board + boardCount - 1) % boardCount)
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			m.load()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.table.SetRows(m.rows)
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *ScoreboardModel) switchBoard(b Board) {
	m.board = b
	m.table = m.createTable()
	m.load()
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)
	b.WriteString(titleStyle.Render(centerText("PONG ARENA - "+strings.ToUpper(m.board.Title()), m.width)))
	b.WriteString("\n\n")
	b.WriteString(centerText(m.renderTabs(), m.width))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(centerText(tableStyle.Render(m.renderTableContent()), m.width))

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m ScoreboardModel) renderTabs() string {
	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	tabs := make([]string, 0, boardCount)
	for b := Board(0); b < boardCount; b++ {
		if b == m.board {
			tabs = append(tabs, activeTabStyle.Render(b.Title()))
		} else {
			tabs = append(tabs, tabStyle.Render(" "+b.Title()+" "))
		}
	}
	return strings.Join(tabs, " ")
}

// renderTableContent renders the table or an empty message.
func (m ScoreboardModel) renderTableContent() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)
	if m.loadErr != nil {
		return emptyStyle.Render("Could not load results:\n" + m.loadErr.Error())
	}
	if len(m.rows) == 0 {
		return emptyStyle.Render("No matches recorded yet.\nPlay a game to get on the board!")
	}
	return m.table.View()
}

// centerText pads s so that it is centred in width columns.
func centerText(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return strings.Repeat(" ", (width-w)/2) + s
}

// RunScoreboard runs the scoreboard screen until the user quits.
func RunScoreboard(source BoardSource, width, height int) error {
	p := tea.NewProgram(
		NewScoreboardModel(source, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
