package multiplayer

import (
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/physics"
	"github.com/vovakirdan/pong-arena/internal/powerup"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// MatchPhase is the state of a match.
type MatchPhase int

const (
	WaitingForPlayers MatchPhase = iota
	ReadyCheck
	Serving
	Playing
	PointScored
	GameOver
)

// String returns a human-readable name for the phase.
func (p MatchPhase) String() string {
	switch p {
	case WaitingForPlayers:
		return "waiting"
	case ReadyCheck:
		return "ready-check"
	case Serving:
		return "serving"
	case Playing:
		return "playing"
	case PointScored:
		return "point-scored"
	case GameOver:
		return "game-over"
	default:
		return "unknown"
	}
}

// inProgress reports whether a rally sequence has begun and not finished.
func (p MatchPhase) inProgress() bool {
	return p == Serving || p == Playing || p == PointScored
}

// Match is the authoritative controller of one game. It owns the state, the
// power-up engine and the seats, and is driven by the coordinator.
type Match struct {
	id           string
	tournamentID string
	cfg          Config
	settings     game.Settings
	state        game.State
	phase        MatchPhase
	seats        seatSet
	ready        [3]bool // indexed by game.PlayerNumber
	rematch      [3]bool
	lastMove     [3]uint64 // tick of the last accepted move
	moves        [3]moveWindow
	rng          *rand.Rand
	powerups     *powerup.Engine
	tick         uint64
	startedAt    time.Time

	cleanupTimer *time.Timer
	closed       bool
	log          *log.Logger
}

func newMatch(id, tournamentID string, cfg Config, settings game.Settings, rng *rand.Rand, logger *log.Logger) *Match {
	m := &Match{
		id:           id,
		tournamentID: tournamentID,
		cfg:          cfg,
		settings:     settings,
		rng:          rng,
		powerups:     powerup.New(cfg.PowerUps, rng),
		log:          logger.With("match", id),
	}
	m.state = game.NewState(settings)
	return m
}

// ID returns the match identifier.
func (m *Match) ID() string {
	return m.id
}

// Phase returns the current phase.
func (m *Match) Phase() MatchPhase {
	return m.phase
}

// State returns a copy of the game state.
func (m *Match) State() game.State {
	return m.state
}

// Settings returns the match settings.
func (m *Match) Settings() game.Settings {
	return m.settings
}

// join seats a session on a free side. Free seats are only handed out
// before the game starts.
func (m *Match) join(sess SessionHandle, now time.Time) (game.PlayerNumber, SessionHandle, error) {
	if m.seats.ofIdentity(sess.Identity().ID) == game.NoPlayer && m.phase != WaitingForPlayers {
		return game.NoPlayer, nil, ErrMatchFull
	}
	p, replaced, err := m.seats.claim(sess)
	if err != nil {
		return game.NoPlayer, nil, err
	}
	m.state.Score.SetName(p, m.seats.get(p).name)
	if m.phase == WaitingForPlayers && m.seats.count() == 2 {
		m.phase = ReadyCheck
	}
	m.seats.send(p, protocol.PlayerNumberMsg{PlayerNumber: p, GameID: m.id})
	m.broadcastState(now)
	return p, replaced, nil
}

// seat places a player directly, for lobby hand-off and bracket matches.
func (m *Match) seat(p game.PlayerNumber, st *seat) {
	m.seats.set(p, st)
	m.state.Score.SetName(p, st.name)
}

// leave frees a seat. Before the game starts the match goes back to waiting
// for an opponent.
func (m *Match) leave(p game.PlayerNumber) {
	m.seats.set(p, nil)
	m.ready[p] = false
	m.rematch[p] = false
	if m.phase == ReadyCheck {
		m.phase = WaitingForPlayers
	}
}

// handle applies one client message from player p.
func (m *Match) handle(p game.PlayerNumber, msg protocol.ClientMessage, now time.Time) error {
	switch msg := msg.(type) {
	case protocol.PlayerReady:
		return m.playerReady(p, msg.PlayerNumber, now)
	case protocol.StartGameRequest:
		return m.startGameRequest(p, now)
	case protocol.StartGame:
		return m.startGame(p, now)
	case protocol.MovePaddle:
		return m.movePaddle(p, msg)
	case protocol.UpdateSettings:
		return m.updateSettings(p, msg.Settings, now)
	case protocol.RematchRequest:
		return m.requestRematch(p, now)
	default:
		return ErrUnsupported
	}
}

func (m *Match) playerReady(p, claimed game.PlayerNumber, now time.Time) error {
	if claimed != game.NoPlayer && claimed != p {
		return ErrWrongPlayer
	}
	switch m.phase {
	case WaitingForPlayers, ReadyCheck:
		m.ready[p] = true
		if m.phase == ReadyCheck && m.bothReady() {
			m.serveFrom(m.randomServer())
			m.log.Info("players ready", "serving", m.state.ServingPlayer)
		}
		m.broadcastState(now)
		return nil
	case GameOver:
		return m.requestRematch(p, now)
	default:
		return ErrWrongPhase
	}
}

func (m *Match) bothReady() bool {
	return m.ready[game.Player1] && m.ready[game.Player2]
}

// startGameRequest moves a ready match to Serving. In Serving it is an
// acknowledgement and only re-sends the state.
func (m *Match) startGameRequest(p game.PlayerNumber, now time.Time) error {
	if p != game.Player1 {
		return ErrNotPlayerOne
	}
	switch m.phase {
	case WaitingForPlayers:
		return ErrNotReady
	case ReadyCheck:
		if !m.bothReady() {
			return ErrNotReady
		}
		m.serveFrom(m.randomServer())
	case Serving:
	default:
		return ErrWrongPhase
	}
	m.broadcastState(now)
	return nil
}

// startGame serves the ball.
func (m *Match) startGame(p game.PlayerNumber, now time.Time) error {
	if m.phase != Serving {
		return ErrWrongPhase
	}
	if p != m.state.ServingPlayer {
		return ErrNotServing
	}
	m.state.GameStarted = true
	m.phase = Playing
	if m.startedAt.IsZero() {
		m.startedAt = now
	}
	m.broadcastState(now)
	return nil
}

// moveWindow bounds the movement of one player during a single tick. Every
// move in the tick is measured from the position held when the tick's first
// move arrived, so splitting a jump into many messages gains nothing.
type moveWindow struct {
	tick  uint64
	from  float64
	ticks uint64 // ticks since the previous accepted move, at least one
}

// movePaddle validates a predicted paddle position against how far the
// paddle could have travelled since the last accepted move.
func (m *Match) movePaddle(p game.PlayerNumber, mv protocol.MovePaddle) error {
	if mv.PlayerNumber != p {
		return ErrWrongPlayer
	}
	pd := m.state.Paddle(p)
	if mv.InputSequence <= pd.LastProcessedInput {
		return nil
	}
	pd.LastProcessedInput = mv.InputSequence

	w := &m.moves[p]
	if w.ticks == 0 || w.tick != m.tick {
		*w = moveWindow{tick: m.tick, from: pd.Y, ticks: max(1, m.tick-m.lastMove[p])}
	}
	allowance := pd.Speed * float64(w.ticks) / float64(max(1, m.cfg.TickRate))
	target := game.ClampPaddleY(mv.PaddlePosition, pd.Height, m.state.Table)
	delta := target - w.from

	switch {
	case math.Abs(delta) > 2*allowance:
		// Snap back: keep the last accepted position.
		m.sendSync(p)
	case math.Abs(delta) > allowance:
		pd.Y = w.from + math.Copysign(allowance, delta)
		pd.ClampY(m.state.Table)
		m.lastMove[p] = m.tick
		m.sendSync(p)
	default:
		pd.Y = target
		m.lastMove[p] = m.tick
	}
	return nil
}

func (m *Match) sendSync(p game.PlayerNumber) {
	pd := m.state.Paddle(p)
	m.seats.send(p, protocol.Sync{
		PlayerNumber:       p,
		PaddlePosition:     pd.Y,
		LastProcessedInput: pd.LastProcessedInput,
	})
}

func (m *Match) updateSettings(p game.PlayerNumber, s game.Settings, now time.Time) error {
	if p != game.Player1 {
		return ErrNotPlayerOne
	}
	if m.phase != WaitingForPlayers && m.phase != ReadyCheck {
		return ErrWrongPhase
	}
	if err := s.Validate(); err != nil {
		return err
	}
	m.settings = s
	m.rebuildState()
	m.log.Info("settings updated", "ball_speed", s.BallSpeed, "map", s.MapType, "max_score", s.MaxScore)
	m.broadcastState(now)
	return nil
}

// rebuildState recreates the state from the settings, keeping names and
// acknowledged input sequences.
func (m *Match) rebuildState() {
	prev := m.state
	m.state = game.NewState(m.settings)
	m.state.Score.Player1Name = prev.Score.Player1Name
	m.state.Score.Player2Name = prev.Score.Player2Name
	m.state.Paddle1.LastProcessedInput = prev.Paddle1.LastProcessedInput
	m.state.Paddle2.LastProcessedInput = prev.Paddle2.LastProcessedInput
	m.moves = [3]moveWindow{}
}

func (m *Match) requestRematch(p game.PlayerNumber, now time.Time) error {
	if m.tournamentID != "" {
		return ErrRematchDisabled
	}
	if m.phase != GameOver {
		return ErrWrongPhase
	}
	m.rematch[p] = true
	if !m.rematch[game.Player1] || !m.rematch[game.Player2] {
		return nil
	}

	m.broadcastPowerUps(m.powerups.ClearAll(&m.state))
	m.rebuildState()
	m.ready = [3]bool{}
	m.rematch = [3]bool{}
	m.lastMove = [3]uint64{}
	m.startedAt = time.Time{}
	m.serveFrom(m.randomServer())
	m.log.Info("rematch started")
	m.broadcastState(now)
	return nil
}

func (m *Match) randomServer() game.PlayerNumber {
	if m.rng.Intn(2) == 0 {
		return game.Player1
	}
	return game.Player2
}

// serveFrom puts the ball at the centre aimed at the receiver and waits for
// the server to start the rally.
func (m *Match) serveFrom(server game.PlayerNumber) {
	m.phase = Serving
	m.state.ServingPlayer = server
	m.state.GameStarted = false
	physics.ResetBall(&m.state.Ball, m.state.Table, m.settings.BallSpeed, server.Opponent(), m.rng)
}

// step advances the match by one tick. It returns an outcome when the score
// limit is reached during this tick.
func (m *Match) step(now time.Time, dt float64) *Outcome {
	m.tick++

	if m.settings.PowerUpsEnabled {
		m.broadcastPowerUps(m.powerups.Tick(now, dt, &m.state))
	}

	var out *Outcome
	if m.phase == Playing {
		out = m.simulate(now, dt)
	}

	if out == nil && m.tick%m.cfg.broadcastEvery() == 0 {
		m.broadcastState(now)
	}
	return out
}

func (m *Match) simulate(now time.Time, dt float64) *Outcome {
	st := &m.state
	b := &st.Ball

	physics.AdvanceBall(b, dt)
	if physics.ResolveWallCollision(b, st.Table, m.rng) {
		m.seats.broadcast(protocol.WallBounce{X: b.X, Y: b.Y})
	}
	physics.ResolveObstacleCollision(b, st.Obstacles, st.Table)
	if hit, ok := physics.ResolvePaddleCollision(b, &st.Paddle1, &st.Paddle2, st.Table, m.rng); ok {
		m.seats.broadcast(protocol.PaddleHit{PlayerNumber: hit.Player, X: hit.X, Y: hit.Y})
	}
	if m.settings.PowerUpsEnabled {
		m.broadcastPowerUps(m.powerups.CheckCollection(now, st))
	}

	if sc := physics.ResolveScoring(b, st.Table); sc.Scored {
		return m.pointScored(sc.Scorer, now)
	}
	return nil
}

// pointScored awards a point, then either ends the game or sets up the
// next serve by the scorer.
func (m *Match) pointScored(scorer game.PlayerNumber, now time.Time) *Outcome {
	m.phase = PointScored
	m.state.Score.Add(scorer)
	m.broadcastPowerUps(m.powerups.ClearAll(&m.state))

	if w := m.state.Score.Winner(m.settings.MaxScore); w != game.NoPlayer {
		out := m.endGame(w, protocol.ReasonScoreLimit, now)
		m.log.Info("game over", "winner", w, "score1", out.Score.Player1, "score2", out.Score.Player2)
		return &out
	}

	m.serveFrom(scorer)
	m.broadcastState(now)
	return nil
}

// endGame stops the simulation and announces the result.
func (m *Match) endGame(winner game.PlayerNumber, reason string, now time.Time) Outcome {
	m.phase = GameOver
	m.state.GameStarted = false
	m.state.CenterBall()
	m.rematch = [3]bool{}
	m.broadcastPowerUps(m.powerups.ClearAll(&m.state))

	out := Outcome{Winner: winner, Reason: reason, Score: m.state.Score}
	m.broadcastState(now)
	m.seats.broadcast(protocol.GameOver{
		Reason:     reason,
		Winner:     winner,
		WinnerName: m.state.Score.Name(winner),
		FinalScore: m.state.Score,
	})
	return out
}

func (m *Match) snapshot(now time.Time) protocol.GameState {
	return protocol.GameState{
		State:     m.state,
		Tick:      m.tick,
		Timestamp: now.UnixMilli(),
		PowerUps:  m.powerups.Snapshot(),
	}
}

func (m *Match) broadcastState(now time.Time) {
	m.seats.broadcast(m.snapshot(now))
}

func (m *Match) broadcastPowerUps(events []powerup.Event) {
	for _, ev := range events {
		switch ev.Kind {
		case powerup.EventSpawn:
			m.seats.broadcast(protocol.PowerUpSpawn{PowerUp: ev.PowerUp})
		case powerup.EventCollected:
			m.seats.broadcast(protocol.PowerUpCollected{PowerUp: ev.PowerUp, PlayerNumber: ev.PowerUp.ActivatedBy})
		case powerup.EventDeactivated:
			m.seats.broadcast(protocol.PowerUpDeactivated{ID: ev.PowerUp.ID, Kind: ev.PowerUp.Type})
		}
	}
}

// record builds the persisted result. It must be called while both seats
// are still occupied.
func (m *Match) record(out Outcome, now time.Time) MatchRecord {
	rec := MatchRecord{
		MatchID:      m.id,
		TournamentID: m.tournamentID,
		Player1Name:  out.Score.Player1Name,
		Player2Name:  out.Score.Player2Name,
		ScorePlayer1: out.Score.Player1,
		ScorePlayer2: out.Score.Player2,
		Reason:       out.Reason,
		StartedAt:    m.startedAt,
		EndedAt:      now,
	}
	if st := m.seats.get(game.Player1); st != nil {
		rec.Player1ID = st.identity.ID
	}
	if st := m.seats.get(game.Player2); st != nil {
		rec.Player2ID = st.identity.ID
	}
	if out.Winner == game.Player1 {
		rec.WinnerID, rec.LoserID = rec.Player1ID, rec.Player2ID
	} else if out.Winner == game.Player2 {
		rec.WinnerID, rec.LoserID = rec.Player2ID, rec.Player1ID
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = now
	}
	return rec
}

// release stops owned timers and drops every power-up. It is idempotent.
func (m *Match) release() {
	if m.closed {
		return
	}
	m.closed = true
	if m.cleanupTimer != nil {
		m.cleanupTimer.Stop()
		m.cleanupTimer = nil
	}
	m.powerups.ClearAll(&m.state)
}
