package rules

import (
	"github.com/thyrook/squire/internal/board"
)

// cell contents for the checkers board.
type ckCell int8

const (
	ckEmpty     ckCell = 0
	ckWhiteMan  ckCell = 1
	ckWhiteKing ckCell = 2
	ckBlackMan  ckCell = -1
	ckBlackKing ckCell = -2
)

func (c ckCell) color() Color {
	if c > 0 {
		return White
	}
	return Black
}

func (c ckCell) king() bool { return c == ckWhiteKing || c == ckBlackKing }

// ckHistory records one applied move for Undo.
type ckHistory struct {
	from, to board.Position
	moved    ckCell
	promoted bool
	captured []ckCapture
	turn     Color
}

type ckCapture struct {
	at    board.Position
	piece ckCell
}

// jumpSeq is one complete jump sequence: the landing squares in order plus
// the squares jumped over.
type jumpSeq struct {
	landings []board.Position
	captured []board.Position
}

// CheckersEngine implements Engine for American draughts (8x8, men move
// forward only, captures are forced, kings move both ways). White sits on
// ranks 1-3 and moves first, matching the board orientation of the
// controller.
type CheckersEngine struct {
	cells   map[board.Position]ckCell
	turn    Color
	history []ckHistory
}

// NewCheckersEngine starts a game in the initial position: 12 men per side
// on the dark squares.
func NewCheckersEngine() *CheckersEngine {
	e := &CheckersEngine{}
	e.Reset()
	return e
}

func (e *CheckersEngine) Reset() {
	e.cells = make(map[board.Position]ckCell, 24)
	for n := 1; n <= 12; n++ {
		p, _ := board.CheckersToPosition(n)
		e.cells[p] = ckBlackMan
	}
	for n := 21; n <= 32; n++ {
		p, _ := board.CheckersToPosition(n)
		e.cells[p] = ckWhiteMan
	}
	e.turn = White
	e.history = e.history[:0]
}

func (e *CheckersEngine) PieceAt(p board.Position) (Piece, bool) {
	c, ok := e.cells[p]
	if !ok || c == ckEmpty {
		return Piece{}, false
	}
	sym := "b"
	if c.color() == White {
		sym = "w"
	}
	if c.king() {
		sym = map[string]string{"w": "W", "b": "B"}[sym]
	}
	return Piece{Color: c.color(), Symbol: sym, King: c.king()}, true
}

// directions a cell may step in, as (file, rank) deltas.
func ckDirections(c ckCell) [][2]int {
	if c.king() {
		return [][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	}
	if c.color() == White {
		return [][2]int{{1, 1}, {-1, 1}} // toward rank 8
	}
	return [][2]int{{1, -1}, {-1, -1}} // toward rank 1
}

func ckPromotes(c ckCell, p board.Position) bool {
	if c.king() {
		return false
	}
	if c.color() == White {
		return p.Rank == 7
	}
	return p.Rank == 0
}

// jumpsFrom enumerates all complete jump sequences starting at from. A
// sequence ends when no further jump exists or the man promotes (American
// rule: promotion ends the move).
func (e *CheckersEngine) jumpsFrom(from board.Position, piece ckCell, occupied map[board.Position]ckCell, taken map[board.Position]bool) []jumpSeq {
	var out []jumpSeq
	for _, d := range ckDirections(piece) {
		mid := board.Pos(int(from.File)+d[0], int(from.Rank)+d[1])
		land := board.Pos(int(from.File)+2*d[0], int(from.Rank)+2*d[1])
		if !land.Valid() {
			continue
		}
		victim, hasVictim := occupied[mid]
		if !hasVictim || victim == ckEmpty || victim.color() == piece.color() || taken[mid] {
			continue
		}
		if c, busy := occupied[land]; busy && c != ckEmpty {
			continue
		}

		taken[mid] = true
		var tails []jumpSeq
		if !ckPromotes(piece, land) {
			// Jump chains continue from the landing square; the origin is
			// treated as vacated while the moving piece is airborne.
			moved := map[board.Position]ckCell{}
			for k, v := range occupied {
				moved[k] = v
			}
			delete(moved, from)
			tails = e.jumpsFrom(land, piece, moved, taken)
		}
		delete(taken, mid)

		if len(tails) == 0 {
			out = append(out, jumpSeq{
				landings: []board.Position{land},
				captured: []board.Position{mid},
			})
			continue
		}
		for _, tail := range tails {
			seq := jumpSeq{
				landings: append([]board.Position{land}, tail.landings...),
				captured: append([]board.Position{mid}, tail.captured...),
			}
			out = append(out, seq)
		}
	}
	return out
}

// sideHasJump reports whether any piece of the side to move can capture;
// captures are forced in American draughts.
func (e *CheckersEngine) sideHasJump() bool {
	for p, c := range e.cells {
		if c == ckEmpty || c.color() != e.turn {
			continue
		}
		if len(e.jumpsFrom(p, c, e.cells, map[board.Position]bool{})) > 0 {
			return true
		}
	}
	return false
}

func (e *CheckersEngine) LegalMoves(from board.Position) MoveSet {
	var set MoveSet
	c, ok := e.cells[from]
	if !ok || c == ckEmpty || c.color() != e.turn {
		return set
	}

	jumps := e.jumpsFrom(from, c, e.cells, map[board.Position]bool{})
	if len(jumps) > 0 {
		seenDest := make(map[board.Position]bool)
		seenInter := make(map[board.Position]bool)
		for _, j := range jumps {
			final := j.landings[len(j.landings)-1]
			if !seenDest[final] {
				seenDest[final] = true
				set.Destinations = append(set.Destinations, final)
				set.Captures = append(set.Captures, final)
			}
			for _, mid := range j.landings[:len(j.landings)-1] {
				if !seenInter[mid] {
					seenInter[mid] = true
					set.Intermediate = append(set.Intermediate, mid)
				}
			}
		}
		return set
	}

	if e.sideHasJump() {
		return set // another piece must capture
	}

	for _, d := range ckDirections(c) {
		dest := board.Pos(int(from.File)+d[0], int(from.Rank)+d[1])
		if !dest.Valid() {
			continue
		}
		if cc, busy := e.cells[dest]; busy && cc != ckEmpty {
			continue
		}
		set.Destinations = append(set.Destinations, dest)
	}
	return set
}

func (e *CheckersEngine) MakeMove(from, to board.Position, _ Options) (Move, error) {
	c, ok := e.cells[from]
	if !ok || c == ckEmpty || c.color() != e.turn {
		return Move{}, ErrIllegalMove
	}

	jumps := e.jumpsFrom(from, c, e.cells, map[board.Position]bool{})
	var chosen *jumpSeq
	for i := range jumps {
		if jumps[i].landings[len(jumps[i].landings)-1] == to {
			// Of equal destinations, the longest chain wins; more captures
			// is the sequence the player physically performed most likely.
			if chosen == nil || len(jumps[i].captured) > len(chosen.captured) {
				chosen = &jumps[i]
			}
		}
	}

	if chosen == nil {
		if len(jumps) > 0 || e.sideHasJump() {
			return Move{}, ErrIllegalMove // capture is forced
		}
		legal := false
		for _, d := range ckDirections(c) {
			dest := board.Pos(int(from.File)+d[0], int(from.Rank)+d[1])
			if dest == to {
				if cc, busy := e.cells[dest]; !busy || cc == ckEmpty {
					legal = true
				}
			}
		}
		if !legal {
			return Move{}, ErrIllegalMove
		}
	}

	rec := ckHistory{from: from, to: to, moved: c, turn: e.turn}
	out := Move{From: from, To: to}

	if chosen != nil {
		for _, cap := range chosen.captured {
			rec.captured = append(rec.captured, ckCapture{at: cap, piece: e.cells[cap]})
			delete(e.cells, cap)
			out.Removals = append(out.Removals, cap)
		}
		out.Intermediate = append(out.Intermediate, chosen.landings[:len(chosen.landings)-1]...)
		out.Capture = true
	}

	delete(e.cells, from)
	placed := c
	if ckPromotes(c, to) {
		rec.promoted = true
		if c.color() == White {
			placed = ckWhiteKing
		} else {
			placed = ckBlackKing
		}
	}
	e.cells[to] = placed

	e.history = append(e.history, rec)
	if e.turn == White {
		e.turn = Black
	} else {
		e.turn = White
	}
	return out, nil
}

func (e *CheckersEngine) Undo() bool {
	if len(e.history) == 0 {
		return false
	}
	rec := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]

	delete(e.cells, rec.to)
	e.cells[rec.from] = rec.moved
	for _, cap := range rec.captured {
		e.cells[cap.at] = cap.piece
	}
	e.turn = rec.turn
	return true
}

// GameOver: the side to move loses when it has no pieces or no legal move.
func (e *CheckersEngine) GameOver() bool {
	for p, c := range e.cells {
		if c == ckEmpty || c.color() != e.turn {
			continue
		}
		if e.LegalMoves(p).HasMoves() {
			return false
		}
	}
	return true
}

func (e *CheckersEngine) Result() string {
	if !e.GameOver() {
		return "Game in progress"
	}
	if e.turn == White {
		return "Black wins!"
	}
	return "White wins!"
}

func (e *CheckersEngine) InCheck() bool { return false }

func (e *CheckersEngine) Turn() Color { return e.turn }

func (e *CheckersEngine) PieceCount() int {
	n := 0
	for _, c := range e.cells {
		if c != ckEmpty {
			n++
		}
	}
	return n
}

// Clone copies the position and side to move. History does not carry over;
// Undo on the clone only reaches moves made after the clone. The opponent
// search runs on a clone so the live game keeps serving reads from the poll
// loop while the search mutates its own copy.
func (e *CheckersEngine) Clone() *CheckersEngine {
	cp := &CheckersEngine{
		cells: make(map[board.Position]ckCell, len(e.cells)),
		turn:  e.turn,
	}
	for p, c := range e.cells {
		cp.cells[p] = c
	}
	return cp
}

// Pieces returns a copy of the occupied cells; the checkers AI evaluates
// positions through this.
func (e *CheckersEngine) Pieces() map[board.Position]Piece {
	out := make(map[board.Position]Piece, len(e.cells))
	for p := range e.cells {
		if pc, ok := e.PieceAt(p); ok {
			out[p] = pc
		}
	}
	return out
}

// MovablePieces returns the squares of the side to move that have at least
// one legal destination.
func (e *CheckersEngine) MovablePieces() []board.Position {
	var out []board.Position
	for p, c := range e.cells {
		if c == ckEmpty || c.color() != e.turn {
			continue
		}
		if e.LegalMoves(p).HasMoves() {
			out = append(out, p)
		}
	}
	return out
}
