package multiplayer

import (
	"github.com/vovakirdan/pong-arena/internal/auth"
	"github.com/vovakirdan/pong-arena/internal/game"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// seat is one occupied side of a match or lobby.
type seat struct {
	session  SessionHandle
	identity auth.Identity
	name     string // display name shown to the opponent
}

// seatSet holds the two sides. Index 0 is player 1.
type seatSet [2]*seat

func (s *seatSet) get(p game.PlayerNumber) *seat {
	if !p.Valid() {
		return nil
	}
	return s[p-1]
}

func (s *seatSet) set(p game.PlayerNumber, st *seat) {
	s[p-1] = st
}

// of returns the seat held by the given connection.
func (s *seatSet) of(id SessionID) game.PlayerNumber {
	for i, st := range s {
		if st != nil && st.session.ID() == id {
			return game.PlayerNumber(i + 1)
		}
	}
	return game.NoPlayer
}

// ofIdentity returns the seat held by the given player identity.
func (s *seatSet) ofIdentity(id string) game.PlayerNumber {
	for i, st := range s {
		if st != nil && st.identity.ID == id {
			return game.PlayerNumber(i + 1)
		}
	}
	return game.NoPlayer
}

func (s *seatSet) firstFree() game.PlayerNumber {
	for i, st := range s {
		if st == nil {
			return game.PlayerNumber(i + 1)
		}
	}
	return game.NoPlayer
}

func (s *seatSet) count() int {
	n := 0
	for _, st := range s {
		if st != nil {
			n++
		}
	}
	return n
}

func (s *seatSet) send(p game.PlayerNumber, msg protocol.ServerMessage) {
	if st := s.get(p); st != nil {
		st.session.Send(msg)
	}
}

func (s *seatSet) broadcast(msg protocol.ServerMessage) {
	for _, st := range s {
		if st != nil {
			st.session.Send(msg)
		}
	}
}

// claim seats a session. A session whose identity already holds a seat
// takes it over and the previous session is returned for closing.
func (s *seatSet) claim(sess SessionHandle) (p game.PlayerNumber, replaced SessionHandle, err error) {
	id := sess.Identity()
	if p = s.ofIdentity(id.ID); p != game.NoPlayer {
		old := s.get(p)
		replaced = old.session
		old.session = sess
		return p, replaced, nil
	}
	if p = s.firstFree(); p == game.NoPlayer {
		return game.NoPlayer, nil, ErrMatchFull
	}
	s.set(p, &seat{session: sess, identity: id, name: id.Name})
	return p, nil, nil
}
