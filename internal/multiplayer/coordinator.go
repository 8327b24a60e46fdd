package multiplayer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// Coordinator owns every match, lobby and tournament and advances them on
// one goroutine.
type Coordinator struct {
	cfg   Config
	log   *log.Logger
	reg   *Registry
	saver ResultSaver // optional

	msgChan chan CoordinatorMessage
	done    chan struct{}
	stop    sync.Once

	rng       *rand.Rand
	lastSweep time.Time
	saves     sync.WaitGroup
}

// NewCoordinator creates a coordinator over reg. saver may be nil.
func NewCoordinator(cfg Config, reg *Registry, logger *log.Logger, saver ResultSaver) *Coordinator {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultConfig().TickRate
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if logger == nil {
		logger = log.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Coordinator{
		cfg:     cfg,
		log:     logger.WithPrefix("coordinator"),
		reg:     reg,
		saver:   saver,
		msgChan: make(chan CoordinatorMessage, 256),
		done:    make(chan struct{}),
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // gameplay randomness
	}
}

// SetResultSaver sets the match result saver. Call before Run.
func (c *Coordinator) SetResultSaver(saver ResultSaver) {
	c.saver = saver
}

// Config returns the coordinator configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Run processes messages and ticks matches until ctx is cancelled. On
// return every session has been closed and pending saves have finished.
func (c *Coordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.tickDuration())
	defer ticker.Stop()

	c.log.Info("coordinator started", "tick_rate", c.cfg.TickRate, "broadcast_rate", c.cfg.BroadcastRate)
	for {
		select {
		case msg := <-c.msgChan:
			c.handle(msg, time.Now())
		case now := <-ticker.C:
			c.tick(now)
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		}
	}
}

// Send queues a message for the loop. It returns without delivering once
// the coordinator has stopped.
func (c *Coordinator) Send(msg CoordinatorMessage) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	}
}

// Stats returns registry counts from inside the loop.
func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case c.msgChan <- statsMsg{reply: reply}:
	case <-c.done:
		return Stats{}, context.Canceled
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (c *Coordinator) handle(msg CoordinatorMessage, now time.Time) {
	switch m := msg.(type) {
	case ConnectMsg:
		c.handleConnect(m, now)
	case ClientMsg:
		c.handleClient(m, now)
	case DisconnectMsg:
		c.handleDisconnect(m.SessionID, now)
	case cleanupMatchMsg:
		if cur, ok := c.reg.matches[m.match.id]; ok && cur == m.match {
			c.log.Info("cleaning up match", "match", m.match.id)
			c.cleanupMatch(m.match, true)
		}
	case statsMsg:
		m.reply <- c.reg.stats()
	}
}

func (c *Coordinator) handleConnect(m ConnectMsg, now time.Time) {
	id := m.Session.ID()
	if _, exists := c.reg.conns[id]; exists {
		return
	}
	cn := &conn{session: m.Session, route: m.Route}
	c.reg.conns[id] = cn

	var err error
	switch m.Route {
	case RouteGame:
		err = c.connectGame(cn, m.ID, now)
	case RouteLobby:
		err = c.connectLobby(cn, m.ID, now)
	case RouteTournament:
		cn.session.Send(c.queueStatus())
	default:
		err = ErrUnsupported
	}
	if err != nil {
		c.log.Warn("connection rejected", "session", id, "route", m.Route, "id", m.ID, "err", err)
		delete(c.reg.conns, id)
		m.Session.Send(protocol.Error{Message: err.Error()})
		m.Session.Close(ClosePolicyViolation, err.Error())
		return
	}
	c.log.Debug("connected", "session", id, "route", m.Route, "id", m.ID)
}

func (c *Coordinator) connectGame(cn *conn, id string, now time.Time) error {
	if _, ok := c.reg.lobbies[id]; ok {
		return ErrIDInUse
	}
	m, existed := c.reg.matches[id]
	if existed && m.tournamentID != "" {
		return ErrTournamentMatch
	}
	if !existed {
		m = c.newMatch(id, "", c.cfg.Settings)
	}

	_, replaced, err := m.join(cn.session, now)
	if err != nil {
		if !existed {
			c.cleanupMatch(m, false)
		}
		return err
	}
	c.dropReplaced(replaced)
	cn.phase = PhaseMatch
	cn.matchID = id
	return nil
}

func (c *Coordinator) handleClient(m ClientMsg, now time.Time) {
	cn, ok := c.reg.conns[m.SessionID]
	if !ok {
		return
	}
	switch msg := m.Msg.(type) {
	case protocol.Ping:
		cn.session.Send(protocol.Pong{Timestamp: msg.Timestamp})
		return
	case protocol.Pong:
		return
	}
	if err := c.dispatch(cn, m.Msg, now); err != nil {
		c.log.Debug("client message rejected", "session", m.SessionID, "type", m.Msg.MessageType(), "err", err)
		cn.session.Send(protocol.Error{Message: err.Error()})
	}
}

// dispatch routes a client message by the connection's phase.
func (c *Coordinator) dispatch(cn *conn, msg protocol.ClientMessage, now time.Time) error {
	switch msg := msg.(type) {
	case protocol.JoinTournament:
		if cn.route != RouteTournament {
			return ErrUnsupported
		}
		return c.joinTournament(cn, msg, now)
	case protocol.LeaveTournament:
		if cn.route != RouteTournament {
			return ErrUnsupported
		}
		return c.leaveTournament(cn, now)
	}

	switch cn.phase {
	case PhaseLobby:
		return c.lobbyMessage(cn, msg, now)
	case PhaseMatch, PhaseTournamentMatch:
		return c.matchMessage(cn, msg, now)
	case PhaseTournamentQueue, PhaseTournamentWaiting:
		return ErrWrongPhase
	default:
		return ErrNotAttached
	}
}

func (c *Coordinator) matchMessage(cn *conn, msg protocol.ClientMessage, now time.Time) error {
	m, ok := c.reg.matches[cn.matchID]
	if !ok {
		return ErrNotAttached
	}
	p := m.seats.of(cn.session.ID())
	if p == game.NoPlayer {
		return ErrNotAttached
	}
	return m.handle(p, msg, now)
}

// tick advances every match by one step.
func (c *Coordinator) tick(now time.Time) {
	dt := 1 / float64(c.cfg.TickRate)

	matches := make([]*Match, 0, len(c.reg.matches))
	for _, m := range c.reg.matches {
		matches = append(matches, m)
	}
	for _, m := range matches {
		if m.closed {
			continue
		}
		if out := m.step(now, dt); out != nil {
			c.finishMatch(m, *out, now)
		}
	}

	if now.Sub(c.lastSweep) >= time.Second {
		c.lastSweep = now
		c.sweepLobbies(now)
	}
}

// finishMatch handles a match that reached its score limit.
func (c *Coordinator) finishMatch(m *Match, out Outcome, now time.Time) {
	c.persist(m.record(out, now))
	if m.tournamentID != "" {
		c.tournamentMatchOver(m, out, now)
	}
}

// newMatch creates and registers a match with its own random source.
func (c *Coordinator) newMatch(id, tournamentID string, settings game.Settings) *Match {
	rng := rand.New(rand.NewSource(c.rng.Int63())) //nolint:gosec // gameplay randomness
	m := newMatch(id, tournamentID, c.cfg, settings, rng, c.log)
	c.reg.matches[id] = m
	c.log.Info("match created", "match", id, "tournament", tournamentID)
	return m
}

func (c *Coordinator) shutdown() {
	c.stop.Do(func() {
		close(c.done)
		for id, m := range c.reg.matches {
			m.release()
			delete(c.reg.matches, id)
		}
		for id, cn := range c.reg.conns {
			cn.session.Close(CloseGoingAway, "server shutting down")
			delete(c.reg.conns, id)
		}
		clear(c.reg.lobbies)
		clear(c.reg.tournaments)
		clear(c.reg.names)
		c.saves.Wait()
		c.log.Info("coordinator stopped")
	})
}
