package rules

import (
	"strings"

	"github.com/notnil/chess"

	"github.com/thyrook/squire/internal/board"
)

// ChessEngine implements Engine on top of notnil/chess.
type ChessEngine struct {
	game *chess.Game
	// Applied moves in UCI form. notnil/chess has no pop, so Undo rebuilds
	// the game from this history.
	history       []string
	lastGaveCheck bool
}

// NewChessEngine starts a game in the initial position.
func NewChessEngine() *ChessEngine {
	return &ChessEngine{game: chess.NewGame()}
}

func (e *ChessEngine) Reset() {
	e.game = chess.NewGame()
	e.history = e.history[:0]
	e.lastGaveCheck = false
}

func squareOf(p board.Position) chess.Square {
	return chess.Square(int(p.Rank)*8 + int(p.File))
}

func posOf(sq chess.Square) board.Position {
	return board.Pos(int(sq.File()), int(sq.Rank()))
}

var pieceLetters = map[chess.PieceType]string{
	chess.King:   "k",
	chess.Queen:  "q",
	chess.Rook:   "r",
	chess.Bishop: "b",
	chess.Knight: "n",
	chess.Pawn:   "p",
}

func (e *ChessEngine) PieceAt(p board.Position) (Piece, bool) {
	if !p.Valid() {
		return Piece{}, false
	}
	pc := e.game.Position().Board().Piece(squareOf(p))
	if pc == chess.NoPiece {
		return Piece{}, false
	}
	sym := pieceLetters[pc.Type()]
	out := Piece{Color: Black, Symbol: sym}
	if pc.Color() == chess.White {
		out.Color = White
		out.Symbol = strings.ToUpper(sym)
	}
	return out, true
}

func (e *ChessEngine) LegalMoves(from board.Position) MoveSet {
	var set MoveSet
	if !from.Valid() {
		return set
	}
	sq := squareOf(from)
	seen := make(map[board.Position]bool)
	for _, mv := range e.game.ValidMoves() {
		if mv.S1() != sq {
			continue
		}
		dest := posOf(mv.S2())
		if seen[dest] {
			continue // promotion variants share a destination
		}
		seen[dest] = true
		set.Destinations = append(set.Destinations, dest)
		if mv.HasTag(chess.Capture) || mv.HasTag(chess.EnPassant) {
			set.Captures = append(set.Captures, dest)
		}
	}
	return set
}

var promoTypes = map[string]chess.PieceType{
	"q": chess.Queen,
	"r": chess.Rook,
	"b": chess.Bishop,
	"n": chess.Knight,
}

func (e *ChessEngine) MakeMove(from, to board.Position, opts Options) (Move, error) {
	s1, s2 := squareOf(from), squareOf(to)

	var candidates []*chess.Move
	for _, mv := range e.game.ValidMoves() {
		if mv.S1() == s1 && mv.S2() == s2 {
			candidates = append(candidates, mv)
		}
	}
	if len(candidates) == 0 {
		return Move{}, ErrIllegalMove
	}

	chosen := candidates[0]
	if chosen.Promo() != chess.NoPieceType {
		// All candidates are promotions of the same pawn move.
		want, ok := promoTypes[strings.ToLower(opts.Promotion)]
		if !ok {
			return Move{}, ErrNeedsChoice
		}
		chosen = nil
		for _, mv := range candidates {
			if mv.Promo() == want {
				chosen = mv
				break
			}
		}
		if chosen == nil {
			return Move{}, ErrIllegalMove
		}
	}

	if err := e.game.Move(chosen); err != nil {
		return Move{}, ErrIllegalMove
	}

	out := Move{
		From:      from,
		To:        to,
		Capture:   chosen.HasTag(chess.Capture) || chosen.HasTag(chess.EnPassant),
		GaveCheck: chosen.HasTag(chess.Check),
	}

	uci := chosen.S1().String() + chosen.S2().String()
	if chosen.Promo() != chess.NoPieceType {
		out.Promotion = pieceLetters[chosen.Promo()]
		uci += out.Promotion
	}
	e.history = append(e.history, uci)
	e.lastGaveCheck = out.GaveCheck

	if chosen.HasTag(chess.EnPassant) {
		// The captured pawn sits beside the destination, not on it.
		out.Removals = []board.Position{board.Pos(int(to.File), int(from.Rank))}
	}

	if chosen.HasTag(chess.KingSideCastle) {
		out.Auxiliary = []board.Position{
			board.Pos(7, int(from.Rank)), // H-file rook
			board.Pos(5, int(from.Rank)), // to F
		}
	} else if chosen.HasTag(chess.QueenSideCastle) {
		out.Auxiliary = []board.Position{
			board.Pos(0, int(from.Rank)), // A-file rook
			board.Pos(3, int(from.Rank)), // to D
		}
	}
	return out, nil
}

// Undo rebuilds the game without the last move.
func (e *ChessEngine) Undo() bool {
	if len(e.history) == 0 {
		return false
	}
	e.history = e.history[:len(e.history)-1]
	game := chess.NewGame()
	for _, uci := range e.history {
		mv, err := chess.UCINotation{}.Decode(game.Position(), uci)
		if err != nil {
			break
		}
		if err := game.Move(mv); err != nil {
			break
		}
	}
	e.game = game
	// Decoded moves carry no tags; read the check tag off the applied
	// history instead.
	e.lastGaveCheck = false
	if applied := game.Moves(); len(applied) > 0 {
		e.lastGaveCheck = applied[len(applied)-1].HasTag(chess.Check)
	}
	return true
}

func (e *ChessEngine) GameOver() bool {
	return e.game.Outcome() != chess.NoOutcome
}

func (e *ChessEngine) Result() string {
	switch e.game.Method() {
	case chess.Checkmate:
		return "Checkmate!"
	case chess.Stalemate:
		return "Stalemate"
	case chess.InsufficientMaterial:
		return "Draw - Insufficient material"
	case chess.FiftyMoveRule:
		return "Draw - 50 move rule"
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return "Draw - Repetition"
	}
	if e.game.Outcome() == chess.NoOutcome {
		return "Game in progress"
	}
	return "Draw"
}

// InCheck reports whether the last applied move gave check. notnil/chess
// tags checking moves, which is exactly the post-move signal the sound and
// message feedback needs.
func (e *ChessEngine) InCheck() bool {
	return e.lastGaveCheck
}

func (e *ChessEngine) Turn() Color {
	if e.game.Position().Turn() == chess.White {
		return White
	}
	return Black
}

func (e *ChessEngine) PieceCount() int {
	n := 0
	for sq := 0; sq < board.NumCells; sq++ {
		if e.game.Position().Board().Piece(chess.Square(sq)) != chess.NoPiece {
			n++
		}
	}
	return n
}

// FEN returns the current position for the UCI engine.
func (e *ChessEngine) FEN() string {
	return e.game.Position().String()
}

// History returns the applied moves in UCI form, oldest first.
func (e *ChessEngine) History() []string {
	out := make([]string, len(e.history))
	copy(out, e.history)
	return out
}
