package multiplayer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/protocol"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// Tournament runs one bracket. Participants are keyed by session id.
type Tournament struct {
	id        string
	bracket   *tournament.Bracket
	players   []tournament.Player
	lastScore map[string]game.Score // most recent score of each participant's match
}

// ID returns the tournament identifier.
func (t *Tournament) ID() string {
	return t.id
}

// Bracket returns the underlying bracket.
func (t *Tournament) Bracket() *tournament.Bracket {
	return t.bracket
}

func (c *Coordinator) queueStatus() protocol.TournamentQueue {
	return protocol.TournamentQueue{
		Players: c.reg.queue.Names(),
		Needed:  tournament.Size - c.reg.queue.Len(),
	}
}

func (c *Coordinator) broadcastQueue() {
	msg := c.queueStatus()
	for _, p := range c.reg.queue.Players() {
		if sess, ok := c.reg.session(SessionID(p.ID)); ok {
			sess.Send(msg)
		}
	}
}

func (c *Coordinator) joinTournament(cn *conn, msg protocol.JoinTournament, now time.Time) error {
	if cn.phase != PhaseIdle {
		return ErrTournamentLocked
	}
	name := msg.Name
	if name == "" {
		name = cn.session.Identity().Name
	}
	if _, reserved := c.reg.names[name]; reserved {
		return fmt.Errorf("%w: %q", tournament.ErrNameTaken, name)
	}
	if err := c.reg.queue.Join(tournament.Player{ID: string(cn.session.ID()), Name: name}); err != nil {
		return err
	}
	cn.phase = PhaseTournamentQueue
	cn.name = name
	c.log.Info("joined tournament queue", "session", cn.session.ID(), "name", name, "queued", c.reg.queue.Len())
	c.broadcastQueue()

	if players, ok := c.reg.queue.Take(); ok {
		c.startTournament(players, now)
	}
	return nil
}

func (c *Coordinator) leaveTournament(cn *conn, now time.Time) error {
	switch cn.phase {
	case PhaseTournamentQueue:
		c.reg.queue.Leave(string(cn.session.ID()))
		c.reg.detach(cn.session.ID())
		c.broadcastQueue()
		cn.session.Send(c.queueStatus())
		return nil
	case PhaseTournamentWaiting, PhaseTournamentMatch:
		if t, ok := c.reg.tournaments[cn.tournamentID]; ok {
			c.abortTournament(t, cn.session.ID(), now)
		}
		return nil
	default:
		return ErrWrongPhase
	}
}

func (c *Coordinator) startTournament(players []tournament.Player, now time.Time) {
	id := uuid.NewString()
	b, err := tournament.NewBracket(id, players, c.rng)
	if err != nil {
		c.log.Error("create bracket", "err", err)
		for _, p := range players {
			c.reg.detach(SessionID(p.ID))
			if sess, ok := c.reg.session(SessionID(p.ID)); ok {
				sess.Send(protocol.Error{Message: err.Error()})
			}
		}
		return
	}

	t := &Tournament{
		id:        id,
		bracket:   b,
		players:   players,
		lastScore: make(map[string]game.Score),
	}
	c.reg.tournaments[id] = t
	for _, p := range players {
		c.reg.names[p.Name] = id
		if cn, ok := c.reg.conns[SessionID(p.ID)]; ok {
			cn.phase = PhaseTournamentWaiting
			cn.tournamentID = id
		}
	}
	c.log.Info("tournament started", "tournament", id, "players", len(players))

	for _, d := range b.Matches() {
		c.startBracketMatch(t, d, now)
	}
}

// startBracketMatch creates the match for a descriptor and seats both
// players in ReadyCheck.
func (c *Coordinator) startBracketMatch(t *Tournament, d tournament.Descriptor, now time.Time) {
	m := c.newMatch(d.MatchID, t.id, c.cfg.Settings)
	for i, pl := range d.Players {
		p := game.PlayerNumber(i + 1)
		cn, ok := c.reg.conns[SessionID(pl.ID)]
		if !ok {
			continue
		}
		m.seat(p, &seat{session: cn.session, identity: cn.session.Identity(), name: pl.Name})
		cn.phase = PhaseTournamentMatch
		cn.matchID = d.MatchID
	}
	m.phase = ReadyCheck

	for i := range d.Players {
		p := game.PlayerNumber(i + 1)
		m.seats.send(p, protocol.TournamentGameStart{
			TournamentID: t.id,
			MatchID:      d.MatchID,
			Round:        d.Round,
			PlayerNumber: p,
			Opponent:     d.Players[1-i].Name,
		})
		m.seats.send(p, protocol.PlayerNumberMsg{PlayerNumber: p, GameID: d.MatchID})
	}
	m.broadcastState(now)
	c.log.Info("bracket match started", "tournament", t.id, "match", d.MatchID, "round", d.Round)
}

// tournamentMatchOver records a finished bracket match, starts the final
// and third-place matches once both semifinals are decided, and publishes
// the standings when the bracket is complete.
func (c *Coordinator) tournamentMatchOver(m *Match, out Outcome, now time.Time) {
	t, ok := c.reg.tournaments[m.tournamentID]
	if !ok || m.closed {
		return
	}
	winner := m.seats.get(out.Winner)
	if winner == nil {
		return
	}
	for _, p := range []game.PlayerNumber{game.Player1, game.Player2} {
		if st := m.seats.get(p); st != nil {
			t.lastScore[string(st.session.ID())] = out.Score
			if cn, ok := c.reg.conns[st.session.ID()]; ok {
				cn.phase = PhaseTournamentWaiting
				cn.matchID = ""
			}
		}
	}
	c.cleanupMatch(m, false)

	created, err := t.bracket.Record(m.id, string(winner.session.ID()))
	if err != nil {
		c.log.Error("record bracket result", "tournament", t.id, "match", m.id, "err", err)
		return
	}
	for _, d := range created {
		c.startBracketMatch(t, d, now)
	}

	placements, done := t.bracket.Placements()
	if !done {
		return
	}
	results := protocol.TournamentResults{
		TournamentID: t.id,
		Placements:   placements,
		Bracket:      t.bracket.Matches(),
	}
	for _, p := range t.players {
		if sess, ok := c.reg.session(SessionID(p.ID)); ok {
			sess.Send(results)
		}
	}
	c.log.Info("tournament finished", "tournament", t.id, "winner", placements[0].Player.Name)
	c.teardownTournament(t)
}

// abortTournament ends the whole tournament because leaver dropped out.
// Everyone else is told the last known score of their match.
func (c *Coordinator) abortTournament(t *Tournament, leaver SessionID, now time.Time) {
	current := make(map[string]game.Score)
	for _, m := range c.tournamentMatches(t.id) {
		if p := m.seats.of(leaver); p != game.NoPlayer && m.seats.count() == 2 && m.phase != GameOver {
			winner := forfeitWinner(m.state.Score, m.settings.MaxScore, p)
			c.persist(m.record(Outcome{Winner: winner, Reason: protocol.ReasonForfeit, Score: m.state.Score}, now))
		}
		for _, st := range m.seats {
			if st != nil {
				current[string(st.session.ID())] = m.state.Score
			}
		}
	}

	for _, p := range t.players {
		if p.ID == string(leaver) {
			continue
		}
		score, ok := current[p.ID]
		if !ok {
			score = t.lastScore[p.ID]
		}
		if sess, ok := c.reg.session(SessionID(p.ID)); ok {
			sess.Send(protocol.GameOver{Reason: protocol.ReasonTournamentEnded, FinalScore: score})
		}
	}
	c.log.Warn("tournament aborted", "tournament", t.id, "leaver", leaver)
	c.teardownTournament(t)
}

// teardownTournament releases every match, name reservation and
// per-player mapping of the tournament.
func (c *Coordinator) teardownTournament(t *Tournament) {
	for _, m := range c.tournamentMatches(t.id) {
		c.cleanupMatch(m, false)
	}
	for name, id := range c.reg.names {
		if id == t.id {
			delete(c.reg.names, name)
		}
	}
	for _, p := range t.players {
		if cn, ok := c.reg.conns[SessionID(p.ID)]; ok && cn.tournamentID == t.id {
			c.reg.detach(SessionID(p.ID))
		}
	}
	delete(c.reg.tournaments, t.id)
}

func (c *Coordinator) tournamentMatches(id string) []*Match {
	var ms []*Match
	for _, m := range c.reg.matches {
		if m.tournamentID == id {
			ms = append(ms, m)
		}
	}
	return ms
}
