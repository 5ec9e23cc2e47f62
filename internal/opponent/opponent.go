// Package opponent provides the automated players: a UCI chess engine
// driven over a subprocess pipe and a heuristic checkers engine. Both are
// consumed through the Player interface and run off the poll loop via
// Compute, which hands back a pollable handle.
package opponent

import (
	"context"
	"errors"

	"github.com/thyrook/squire/internal/board"
)

// Move is a computed opponent move.
type Move struct {
	From, To  board.Position
	Promotion string
}

// ErrNoMove means the engine had no move to offer (mate, stalemate, or a
// dead position).
var ErrNoMove = errors.New("opponent: no move available")

// Player computes the best move for the current position of the game it was
// built around.
type Player interface {
	// BestMove blocks until a move is found or ctx is done.
	BestMove(ctx context.Context) (Move, error)

	// NewGame resets any engine-side game state.
	NewGame() error

	Close() error
}

type result struct {
	move Move
	err  error
}

// Pending is one in-flight move computation. The orchestrator polls it each
// loop iteration so sensor reads and rendering continue while the engine
// thinks.
type Pending struct {
	done   chan result
	cancel context.CancelFunc
}

// Compute starts p.BestMove on its own goroutine.
func Compute(ctx context.Context, p Player) *Pending {
	ctx, cancel := context.WithCancel(ctx)
	h := &Pending{done: make(chan result, 1), cancel: cancel}
	go func() {
		mv, err := p.BestMove(ctx)
		h.done <- result{move: mv, err: err}
	}()
	return h
}

// Poll returns the move when the computation has finished. ok is false
// while it is still running.
func (h *Pending) Poll() (mv Move, ok bool, err error) {
	select {
	case r := <-h.done:
		return r.move, true, r.err
	default:
		return Move{}, false, nil
	}
}

// Cancel aborts the computation; a late result is dropped.
func (h *Pending) Cancel() {
	h.cancel()
}
