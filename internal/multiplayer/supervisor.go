package multiplayer

import (
	"context"
	"time"

	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// saveTimeout bounds one persistence call.
const saveTimeout = 5 * time.Second

// handleDisconnect runs once per connection. A session that was replaced
// by a reconnect is no longer registered and is ignored here.
func (c *Coordinator) handleDisconnect(id SessionID, now time.Time) {
	cn, ok := c.reg.conns[id]
	if !ok {
		return
	}
	c.log.Info("disconnected", "session", id, "phase", cn.phase)

	switch cn.phase {
	case PhaseLobby:
		c.leaveLobby(cn)
	case PhaseMatch:
		c.matchDisconnect(cn, now)
	case PhaseTournamentQueue:
		c.reg.queue.Leave(string(id))
		c.broadcastQueue()
	case PhaseTournamentWaiting, PhaseTournamentMatch:
		if t, ok := c.reg.tournaments[cn.tournamentID]; ok {
			c.abortTournament(t, id, now)
		}
	}

	delete(c.reg.conns, id)
	cn.session.Close(CloseNormal, "disconnected")
}

// matchDisconnect frees the leaver's seat. Leaving a game in progress
// forfeits it; the match is then kept for a grace period so the remaining
// player can read the result.
func (c *Coordinator) matchDisconnect(cn *conn, now time.Time) {
	m, ok := c.reg.matches[cn.matchID]
	if !ok {
		return
	}
	p := m.seats.of(cn.session.ID())
	if p == game.NoPlayer {
		return
	}

	if m.phase.inProgress() && m.seats.count() == 2 {
		winner := forfeitWinner(m.state.Score, m.settings.MaxScore, p)
		out := m.endGame(winner, protocol.ReasonForfeit, now)
		c.persist(m.record(out, now))
		m.log.Info("forfeit", "leaver", p, "winner", winner)
	}
	m.leave(p)

	switch {
	case m.seats.count() == 0:
		c.cleanupMatch(m, false)
	case m.phase == GameOver:
		c.scheduleCleanup(m)
	default:
		m.broadcastState(now)
	}
}

// scheduleCleanup destroys m after the grace period unless it is cleaned
// up earlier.
func (c *Coordinator) scheduleCleanup(m *Match) {
	if m.cleanupTimer != nil || m.closed {
		return
	}
	m.cleanupTimer = time.AfterFunc(c.cfg.CleanupGrace, func() {
		c.Send(cleanupMatchMsg{match: m})
	})
}

// cleanupMatch releases m and removes it from the registry. Calling it
// again for the same match does nothing.
func (c *Coordinator) cleanupMatch(m *Match, closeSessions bool) {
	if m.closed {
		return
	}
	m.release()
	if cur, ok := c.reg.matches[m.id]; ok && cur == m {
		delete(c.reg.matches, m.id)
	}
	for _, st := range m.seats {
		if st == nil {
			continue
		}
		id := st.session.ID()
		if cn, ok := c.reg.conns[id]; ok && cn.matchID == m.id {
			c.reg.detach(id)
		}
		if closeSessions {
			st.session.Close(CloseNormal, "match closed")
		}
	}
}

// dropReplaced closes a session whose seat was taken over by a reconnect.
func (c *Coordinator) dropReplaced(replaced SessionHandle) {
	if replaced == nil {
		return
	}
	id := replaced.ID()
	delete(c.reg.conns, id)
	replaced.Close(ClosePolicyViolation, "replaced by a newer connection")
	c.log.Info("session replaced", "session", id, "player", replaced.Identity().ID)
}

// persist saves rec in the background. Failures are logged only.
func (c *Coordinator) persist(rec MatchRecord) {
	if c.saver == nil {
		return
	}
	saver, logger := c.saver, c.log
	c.saves.Add(1)
	go func() {
		defer c.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := saver.SaveMatchResult(ctx, rec); err != nil {
			logger.Error("save match result", "match", rec.MatchID, "err", err)
		}
	}()
}

// sweepLobbies expires lobbies nobody joined in time.
func (c *Coordinator) sweepLobbies(now time.Time) {
	if c.cfg.LobbyTimeout <= 0 {
		return
	}
	for id, l := range c.reg.lobbies {
		if l.seats.count() >= 2 || now.Sub(l.createdAt) <= c.cfg.LobbyTimeout {
			continue
		}
		l.seats.broadcast(protocol.Error{Message: "lobby expired"})
		for _, st := range l.seats {
			if st == nil {
				continue
			}
			c.reg.detach(st.session.ID())
			st.session.Close(CloseNormal, "lobby expired")
		}
		delete(c.reg.lobbies, id)
		c.log.Info("lobby expired", "lobby", id)
	}
}
