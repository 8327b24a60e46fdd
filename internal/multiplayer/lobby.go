package multiplayer

import (
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// Lobby is a waiting room where two players agree on settings and get
// ready before a match is created for them.
type Lobby struct {
	id        string
	settings  game.Settings
	seats     seatSet
	ready     [3]bool
	createdAt time.Time
}

func newLobby(id string, settings game.Settings, now time.Time) *Lobby {
	return &Lobby{id: id, settings: settings, createdAt: now}
}

// ID returns the lobby identifier.
func (l *Lobby) ID() string {
	return l.id
}

func (l *Lobby) view() protocol.LobbyState {
	ls := protocol.LobbyState{LobbyID: l.id, Settings: l.settings}
	for _, p := range []game.PlayerNumber{game.Player1, game.Player2} {
		if st := l.seats.get(p); st != nil {
			ls.Players = append(ls.Players, protocol.LobbyPlayer{
				PlayerNumber: p,
				Name:         st.name,
				Ready:        l.ready[p],
			})
		}
	}
	return ls
}

func (l *Lobby) broadcastView() {
	l.seats.broadcast(l.view())
}

func (l *Lobby) leave(p game.PlayerNumber) {
	l.seats.set(p, nil)
	l.ready = [3]bool{}
}

// handle applies a lobby message. It reports true when player 1 asked to
// start and everyone is ready.
func (l *Lobby) handle(p game.PlayerNumber, msg protocol.ClientMessage) (bool, error) {
	switch msg := msg.(type) {
	case protocol.PlayerReady:
		if msg.PlayerNumber != game.NoPlayer && msg.PlayerNumber != p {
			return false, ErrWrongPlayer
		}
		l.ready[p] = true
		l.broadcastView()
		return false, nil
	case protocol.UpdateSettings:
		if p != game.Player1 {
			return false, ErrNotPlayerOne
		}
		if err := msg.Settings.Validate(); err != nil {
			return false, err
		}
		l.settings = msg.Settings
		l.broadcastView()
		return false, nil
	case protocol.StartGameRequest:
		if p != game.Player1 {
			return false, ErrNotPlayerOne
		}
		if l.seats.count() < 2 || !l.ready[game.Player1] || !l.ready[game.Player2] {
			return false, ErrNotReady
		}
		return true, nil
	case protocol.StartGame, protocol.MovePaddle, protocol.RematchRequest:
		return false, ErrWrongPhase
	default:
		return false, ErrUnsupported
	}
}

func (c *Coordinator) connectLobby(cn *conn, id string, now time.Time) error {
	if _, ok := c.reg.matches[id]; ok {
		return ErrIDInUse
	}
	l, ok := c.reg.lobbies[id]
	if !ok {
		l = newLobby(id, c.cfg.Settings, now)
		c.reg.lobbies[id] = l
		c.log.Info("lobby created", "lobby", id)
	}

	p, replaced, err := l.seats.claim(cn.session)
	if err != nil {
		return err
	}
	c.dropReplaced(replaced)
	cn.phase = PhaseLobby
	cn.lobbyID = id

	l.seats.send(p, protocol.PlayerNumberMsg{PlayerNumber: p, GameID: id})
	l.broadcastView()
	return nil
}

func (c *Coordinator) lobbyMessage(cn *conn, msg protocol.ClientMessage, now time.Time) error {
	l, ok := c.reg.lobbies[cn.lobbyID]
	if !ok {
		return ErrNotAttached
	}
	p := l.seats.of(cn.session.ID())
	if p == game.NoPlayer {
		return ErrNotAttached
	}
	start, err := l.handle(p, msg)
	if err != nil || !start {
		return err
	}
	c.startFromLobby(l, now)
	return nil
}

// startFromLobby hands both players over to a new match that keeps their
// seats and skips the ready check.
func (c *Coordinator) startFromLobby(l *Lobby, now time.Time) {
	gameID := l.id
	if _, exists := c.reg.matches[gameID]; exists {
		gameID = uuid.NewString()
	}

	m := c.newMatch(gameID, "", l.settings)
	for _, p := range []game.PlayerNumber{game.Player1, game.Player2} {
		st := l.seats.get(p)
		m.seat(p, st)
		if cn, ok := c.reg.conns[st.session.ID()]; ok {
			cn.phase = PhaseMatch
			cn.lobbyID = ""
			cn.matchID = gameID
		}
	}
	m.ready[game.Player1], m.ready[game.Player2] = true, true
	m.serveFrom(m.randomServer())
	delete(c.reg.lobbies, l.id)

	m.seats.broadcast(protocol.GameStarting{GameID: gameID, Settings: l.settings})
	for _, p := range []game.PlayerNumber{game.Player1, game.Player2} {
		m.seats.send(p, protocol.PlayerNumberMsg{PlayerNumber: p, GameID: gameID})
	}
	m.broadcastState(now)
	c.log.Info("lobby started match", "lobby", l.id, "match", gameID, "serving", m.state.ServingPlayer)
}

func (c *Coordinator) leaveLobby(cn *conn) {
	l, ok := c.reg.lobbies[cn.lobbyID]
	if !ok {
		return
	}
	if p := l.seats.of(cn.session.ID()); p != game.NoPlayer {
		l.leave(p)
	}
	if l.seats.count() == 0 {
		delete(c.reg.lobbies, l.id)
		c.log.Info("lobby closed", "lobby", l.id)
		return
	}
	l.broadcastView()
}
