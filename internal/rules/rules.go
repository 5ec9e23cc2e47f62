// Package rules exposes the game engines behind one capability interface.
// The reconciliation loop consumes this as a black box: it asks which piece
// sits where, which destinations are legal, and applies moves. Chess is
// backed by notnil/chess; checkers is an in-tree American draughts engine.
package rules

import (
	"errors"

	"github.com/thyrook/squire/internal/board"
)

// Color of a side.
type Color int8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Piece is what sits on a square, as far as the controller cares: its side
// and a one-letter symbol for logs and the console renderer.
type Piece struct {
	Color  Color
	Symbol string
	King   bool
}

// MoveSet partitions the legal destinations from one square the way the LED
// feedback needs them: plain moves, captures, and the transit squares of
// multi-jump sequences.
type MoveSet struct {
	Destinations []board.Position
	Captures     []board.Position
	Intermediate []board.Position
}

// HasMoves reports whether the square has at least one legal destination.
// Intermediate squares alone do not count.
func (m MoveSet) HasMoves() bool {
	return len(m.Destinations) > 0
}

// IsCapture reports whether dest is one of the capture destinations.
func (m MoveSet) IsCapture(dest board.Position) bool {
	for _, p := range m.Captures {
		if p == dest {
			return true
		}
	}
	return false
}

// Options modify MakeMove. Promotion is the chosen piece letter
// ("q", "r", "b", "n") once the player has answered the promotion prompt.
type Options struct {
	Promotion string
}

// Move describes an applied move with everything the physical layer needs
// to track its completion on the board.
type Move struct {
	From, To     board.Position
	Auxiliary    []board.Position // castling rook leg: [rookFrom, rookTo]
	Removals     []board.Position // jumped squares that must be vacated
	Intermediate []board.Position // transit squares, for display
	Capture      bool
	GaveCheck    bool
	Promotion    string
}

var (
	// ErrIllegalMove means the destination is not legal from the origin.
	ErrIllegalMove = errors.New("illegal move")

	// ErrNeedsChoice means the move is legal but ambiguous until the
	// player picks a promotion piece.
	ErrNeedsChoice = errors.New("promotion choice required")
)

// Engine is the rules capability the reconciliation state machine runs
// against.
type Engine interface {
	// Reset returns the game to the starting position.
	Reset()

	// PieceAt reports the piece on a square, if any.
	PieceAt(p board.Position) (Piece, bool)

	// LegalMoves returns the legal destinations from a square, partitioned
	// for feedback. Empty set if the square is empty or the piece cannot
	// move.
	LegalMoves(from board.Position) MoveSet

	// MakeMove applies a move. ErrNeedsChoice is returned for promotions
	// until Options.Promotion is supplied; ErrIllegalMove for anything the
	// rules reject. The game state is only mutated on success.
	MakeMove(from, to board.Position, opts Options) (Move, error)

	// Undo takes back the last move. Returns false with nothing to undo.
	Undo() bool

	// GameOver reports whether the game has ended.
	GameOver() bool

	// Result is a display string ("Checkmate!", "White wins!", ...).
	Result() string

	// InCheck reports whether the side to move is in check after the last
	// applied move. Always false for checkers.
	InCheck() bool

	// Turn is the side to move.
	Turn() Color

	// PieceCount is the number of pieces on the board. The reconciliation
	// loop compares counts around a move to infer captures.
	PieceCount() int
}

// ExpectedOccupancy builds the snapshot the sensors should report if the
// physical board matches the engine exactly.
func ExpectedOccupancy(e Engine) board.Snapshot {
	var snap board.Snapshot
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			p := board.Pos(f, r)
			if _, ok := e.PieceAt(p); ok {
				snap = snap.Set(p, true)
			}
		}
	}
	return snap
}

// ParseUCI splits a UCI move string ("e2e4", "e7e8q") into board positions
// and an optional promotion letter.
func ParseUCI(s string) (from, to board.Position, promo string, ok bool) {
	if len(s) != 4 && len(s) != 5 {
		return from, to, "", false
	}
	from, ok = board.Parse(s[0:2])
	if !ok {
		return from, to, "", false
	}
	to, ok = board.Parse(s[2:4])
	if !ok {
		return from, to, "", false
	}
	if len(s) == 5 {
		promo = s[4:5]
	}
	return from, to, promo, true
}
