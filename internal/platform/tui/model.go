package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/netsync"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

const (
	// holdWindow is how long one key event keeps the paddle moving.
	// Terminals report held keys as repeated presses.
	holdWindow = 150 * time.Millisecond

	headerLines = 2
	footerLines = 2
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	ownStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	oppStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Options configures the match screen.
type Options struct {
	Route          string
	TournamentName string // sent with joinTournament on the tournament route
	FrameRate      int
	Settings       game.Settings // assumed until the first broadcast arrives
}

// Model is the Bubble Tea model for one connection to the arena.
type Model struct {
	conn Conn
	opts Options
	keys KeyMap
	help help.Model

	screen *core.Screen
	input  core.InputFrame
	held   map[core.Action]time.Time

	player  game.PlayerNumber
	gameID  string
	client  *netsync.Client
	lobby   *protocol.LobbyState
	queue   *protocol.TournamentQueue
	bracket *protocol.TournamentGameStart
	over    *protocol.GameOver
	results *protocol.TournamentResults

	status   string
	failure  string
	closed   bool
	quitting bool
	width    int
	height   int
}

// NewModel creates the match screen over conn.
func NewModel(conn Conn, opts Options, width, height int) Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	if opts.Settings == (game.Settings{}) {
		opts.Settings = game.DefaultSettings()
	}
	h := help.New()
	h.Width = width
	return Model{
		conn:   conn,
		opts:   opts,
		keys:   DefaultKeyMap(),
		help:   h,
		screen: core.NewScreen(width, max(height-headerLines-footerLines, 3)),
		input:  core.NewInputFrame(),
		held:   make(map[core.Action]time.Time),
		status: "connecting...",
		width:  width,
		height: height,
	}
}

// Init starts receiving and the frame loop. On the tournament route it
// joins the queue.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.conn.Receive(), frameCmd(m.opts.FrameRate)}
	if m.opts.Route == RouteTournament {
		cmds = append(cmds, m.send(protocol.JoinTournament{Name: m.opts.TournamentName}))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg, time.Now())
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.screen.Resize(msg.Width, max(msg.Height-headerLines-footerLines, 3))
		m.help.Width = msg.Width
		return m, nil
	case FrameMsg:
		return m, tea.Batch(m.handleFrame(time.Time(msg)), frameCmd(m.opts.FrameRate))
	case ServerMsg:
		cmd := m.handleServer(msg.Msg, time.Now())
		return m, tea.Batch(cmd, m.conn.Receive())
	case DisconnectedMsg:
		m.closed = true
		m.status = "connection closed"
		if msg.Err != nil {
			m.failure = msg.Err.Error()
		}
		return m, nil
	case sendFailedMsg:
		m.failure = msg.err.Error()
		return m, nil
	}
	return m, nil
}

type sendFailedMsg struct{ err error }

// send writes msg off the update loop.
func (m Model) send(msg protocol.ClientMessage) tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		if err := conn.Send(msg); err != nil {
			return sendFailedMsg{err: err}
		}
		return nil
	}
}

func (m Model) handleKey(msg tea.KeyMsg, now time.Time) (tea.Model, tea.Cmd) {
	switch a := m.keys.MapKey(msg); a {
	case core.ActionQuit:
		m.quitting = true
		_ = m.conn.Close()
		return m, tea.Quit
	case core.ActionUp, core.ActionDown:
		m.held[a] = now.Add(holdWindow)
	case core.ActionReady:
		return m, m.send(protocol.PlayerReady{PlayerNumber: m.player})
	case core.ActionStart:
		return m, m.send(protocol.StartGameRequest{GameID: m.gameID})
	case core.ActionServe:
		return m, m.send(protocol.StartGame{GameID: m.gameID})
	case core.ActionRematch:
		return m, m.send(protocol.RematchRequest{})
	case core.ActionHelp:
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// handleFrame turns held movement keys into a predicted paddle move.
func (m Model) handleFrame(now time.Time) tea.Cmd {
	m.input.Clear()
	for a, until := range m.held {
		if now.Before(until) {
			m.input.Set(a)
		}
	}
	dir := m.input.Direction()
	if dir == 0 || m.client == nil || m.over != nil || m.closed {
		return nil
	}
	speed := m.client.View(now).Own.Speed
	mv := m.client.Move(dir * speed / float64(m.opts.FrameRate))
	return m.send(mv)
}

func (m *Model) handleServer(msg protocol.ServerMessage, now time.Time) tea.Cmd {
	switch msg := msg.(type) {
	case protocol.PlayerNumberMsg:
		client, err := netsync.NewClient(msg.PlayerNumber, m.opts.Settings)
		if err != nil {
			m.failure = err.Error()
			return nil
		}
		m.player, m.gameID, m.client = msg.PlayerNumber, msg.GameID, client
		m.over, m.lobby, m.queue = nil, nil, nil
		m.status = fmt.Sprintf("you are player %d", msg.PlayerNumber)
	case protocol.GameState:
		if m.client != nil {
			m.client.ApplyState(msg, now)
		}
	case protocol.Sync:
		if m.client != nil {
			if err := m.client.ApplySync(msg); err != nil {
				m.failure = err.Error()
			}
		}
	case protocol.Ping:
		return m.send(protocol.Pong{Timestamp: msg.Timestamp})
	case protocol.LobbyState:
		m.lobby = &msg
		m.opts.Settings = msg.Settings
		m.status = fmt.Sprintf("lobby %s", msg.LobbyID)
	case protocol.GameStarting:
		m.opts.Settings = msg.Settings
		m.gameID = msg.GameID
		m.lobby = nil
		m.status = "game starting"
	case protocol.GameOver:
		m.over = &msg
		m.status = "game over"
	case protocol.TournamentQueue:
		m.queue = &msg
		m.status = fmt.Sprintf("tournament queue: %d more needed", msg.Needed)
	case protocol.TournamentGameStart:
		m.bracket = &msg
		m.queue = nil
		m.status = fmt.Sprintf("%s vs %s", msg.Round, msg.Opponent)
	case protocol.TournamentResults:
		m.results = &msg
		m.status = "tournament finished"
	case protocol.PowerUpCollected:
		m.status = fmt.Sprintf("player %d collected %s", msg.PlayerNumber, msg.PowerUp.Type)
	case protocol.Error:
		m.failure = msg.Message
	}
	return nil
}

// View renders the header, the field or an overlay, and the help line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	if m.client != nil {
		v := m.client.View(time.Now())
		drawField(m.screen, v, game.DefaultTable())
	} else {
		m.screen.Clear()
		m.screen.DrawBox(0, 0, m.screen.Width(), m.screen.Height(), core.ColorGray)
	}
	m.drawOverlay()
	b.WriteString(RenderScreen(m.screen))

	b.WriteString("\n")
	if m.failure != "" {
		b.WriteString(errorStyle.Render(m.failure) + "  ")
	}
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) header() string {
	if m.client == nil {
		return titleStyle.Render("PONG ARENA")
	}
	v := m.client.View(time.Now())
	own, opp := v.Score.Of(m.player), v.Score.Of(m.player.Opponent())
	ownName, oppName := v.Score.Name(m.player), v.Score.Name(m.player.Opponent())
	return fmt.Sprintf("%s  %s %d : %d %s",
		titleStyle.Render("PONG ARENA"),
		ownStyle.Render(ownName), own, opp, oppStyle.Render(oppName))
}

// drawOverlay writes the current prompt in the middle of the field.
func (m Model) drawOverlay() {
	var lines []string
	switch {
	case m.results != nil:
		lines = append(lines, "TOURNAMENT RESULTS")
		for _, p := range m.results.Placements {
			lines = append(lines, fmt.Sprintf("%d. %s", p.Place, p.Player.Name))
		}
	case m.over != nil:
		lines = append(lines, overText(*m.over, m.player))
		if m.bracket == nil {
			lines = append(lines, "press m for a rematch")
		}
	case m.lobby != nil:
		lines = append(lines, "LOBBY "+m.lobby.LobbyID)
		for _, p := range m.lobby.Players {
			mark := " "
			if p.Ready {
				mark = "✓"
			}
			lines = append(lines, fmt.Sprintf("[%s] P%d %s", mark, p.PlayerNumber, p.Name))
		}
		lines = append(lines, "r: ready  enter: start (player 1)")
	case m.queue != nil:
		lines = append(lines, "TOURNAMENT QUEUE", strings.Join(m.queue.Players, ", "),
			fmt.Sprintf("waiting for %d more", m.queue.Needed))
	case m.client == nil:
		lines = append(lines, "waiting for the server...")
	default:
		v := m.client.View(time.Now())
		if !v.Started {
			if v.Serving == m.player {
				lines = append(lines, "r: ready  space: serve")
			} else {
				lines = append(lines, "r: ready  waiting for the serve")
			}
		}
	}

	top := (m.screen.Height() - len(lines)) / 2
	for i, l := range lines {
		m.screen.DrawTextCentered(top+i, l, core.ColorBrightWhite)
	}
}

func overText(g protocol.GameOver, me game.PlayerNumber) string {
	switch {
	case g.Reason == protocol.ReasonTournamentEnded:
		return "the tournament was cancelled"
	case g.Winner == me && g.Reason == protocol.ReasonForfeit:
		return "YOU WIN (opponent left)"
	case g.Winner == me:
		return "YOU WIN"
	default:
		return "YOU LOSE"
	}
}

// Run connects the terminal to conn until the player quits.
func Run(conn Conn, opts Options) error {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		width, height = 80, 24
	}

	p := tea.NewProgram(NewModel(conn, opts, width, height), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
