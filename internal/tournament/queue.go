package tournament

import (
	"errors"
	"fmt"
)

// Queue errors.
var (
	ErrAlreadyQueued = errors.New("tournament: already in the queue")
	ErrNameTaken     = errors.New("tournament: display name already taken")
	ErrEmptyName     = errors.New("tournament: display name required")
)

// Queue collects players until a tournament can be formed.
type Queue struct {
	players []Player
}

// Join adds a player. Display names are unique within the queue.
func (q *Queue) Join(p Player) error {
	if p.Name == "" {
		return ErrEmptyName
	}
	for _, e := range q.players {
		if e.ID == p.ID {
			return ErrAlreadyQueued
		}
		if e.Name == p.Name {
			return fmt.Errorf("%w: %q", ErrNameTaken, p.Name)
		}
	}
	q.players = append(q.players, p)
	return nil
}

// Leave removes a player. It reports whether the player was queued.
func (q *Queue) Leave(id string) bool {
	for i, e := range q.players {
		if e.ID == id {
			q.players = append(q.players[:i], q.players[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether the player is queued.
func (q *Queue) Contains(id string) bool {
	for _, e := range q.players {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Len returns the number of queued players.
func (q *Queue) Len() int {
	return len(q.players)
}

// Players returns a copy of the queue in arrival order.
func (q *Queue) Players() []Player {
	return append([]Player(nil), q.players...)
}

// Names returns the queued display names in arrival order.
func (q *Queue) Names() []string {
	names := make([]string, len(q.players))
	for i, p := range q.players {
		names[i] = p.Name
	}
	return names
}

// Take removes and returns the first Size players once enough are queued.
func (q *Queue) Take() ([]Player, bool) {
	if len(q.players) < Size {
		return nil, false
	}
	taken := append([]Player(nil), q.players[:Size]...)
	q.players = append(q.players[:0], q.players[Size:]...)
	return taken, true
}
