// Package netsync implements the client half of the match protocol: local
// paddle prediction reconciled against authoritative broadcasts, and
// buffered interpolation of everything the client does not control.
package netsync

import (
	"github.com/vovakirdan/pong-arena/internal/game"
)

// maxHistory bounds the unacknowledged input history.
const maxHistory = 256

// Input is one predicted paddle move.
type Input struct {
	Sequence uint64
	Delta    float64 // requested displacement before clamping
	Position float64 // predicted position after applying Delta
}

// Predictor applies local paddle input immediately and corrects it when
// the server acknowledges inputs.
type Predictor struct {
	table   game.Table
	height  float64
	pos     float64
	nextSeq uint64
	lastAck uint64
	history []Input
}

// NewPredictor starts predicting from the given paddle position.
func NewPredictor(y, height float64, t game.Table) *Predictor {
	return &Predictor{
		table:  t,
		height: height,
		pos:    game.ClampPaddleY(y, height, t),
	}
}

// Position returns the predicted paddle centre.
func (p *Predictor) Position() float64 {
	return p.pos
}

// LastAcknowledged returns the newest sequence the server reported as
// processed.
func (p *Predictor) LastAcknowledged() uint64 {
	return p.lastAck
}

// Pending returns the number of unacknowledged inputs.
func (p *Predictor) Pending() int {
	return len(p.history)
}

// SetHeight updates the paddle height, for example after a power-up.
func (p *Predictor) SetHeight(h float64) {
	p.height = h
	p.pos = game.ClampPaddleY(p.pos, h, p.table)
}

// Move applies delta locally and records it under the next sequence
// number.
func (p *Predictor) Move(delta float64) Input {
	p.nextSeq++
	p.pos = game.ClampPaddleY(p.pos+delta, p.height, p.table)
	in := Input{Sequence: p.nextSeq, Delta: delta, Position: p.pos}

	p.history = append(p.history, in)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
	return in
}

// Reconcile snaps to the authoritative position, drops every input the
// server has processed and replays the rest on top. A report older than
// one already applied is ignored, so the acknowledged sequence never moves
// backwards. Applying the same report twice gives the same result.
func (p *Predictor) Reconcile(authY float64, lastProcessed uint64) {
	if lastProcessed < p.lastAck {
		return
	}
	p.lastAck = lastProcessed
	if lastProcessed > p.nextSeq {
		// Sequences from an earlier connection; continue above them.
		p.nextSeq = lastProcessed
	}

	keep := p.history[:0]
	for _, in := range p.history {
		if in.Sequence > lastProcessed {
			keep = append(keep, in)
		}
	}
	p.history = keep

	pos := game.ClampPaddleY(authY, p.height, p.table)
	for i := range p.history {
		pos = game.ClampPaddleY(pos+p.history[i].Delta, p.height, p.table)
		p.history[i].Position = pos
	}
	p.pos = pos
}
