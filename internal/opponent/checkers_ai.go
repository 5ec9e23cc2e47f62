package opponent

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/rules"
)

// CheckersAI is the heuristic checkers opponent: random with a capture
// preference at low difficulty, one-ply material search with noise above.
type CheckersAI struct {
	game       *rules.CheckersEngine
	difficulty int
	log        *zap.Logger
	rng        *rand.Rand
}

// NewCheckersAI builds the opponent for the given game. Difficulty is
// clamped to 1-10.
func NewCheckersAI(game *rules.CheckersEngine, difficulty int, log *zap.Logger) *CheckersAI {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 10 {
		difficulty = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckersAI{
		game:       game,
		difficulty: difficulty,
		log:        log,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetDifficulty adjusts the level between games.
func (a *CheckersAI) SetDifficulty(difficulty int) {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 10 {
		difficulty = 10
	}
	a.difficulty = difficulty
}

func (a *CheckersAI) NewGame() error { return nil }
func (a *CheckersAI) Close() error   { return nil }

type candidate struct {
	from, to board.Position
	capture  bool
}

// BestMove picks a move for the side to move. The search runs entirely on a
// clone of the position: the orchestrator polls the handle while this runs,
// and the live game keeps serving reads from the poll loop the whole time.
func (a *CheckersAI) BestMove(ctx context.Context) (Move, error) {
	game := a.game.Clone()

	var moves []candidate
	for _, from := range game.MovablePieces() {
		set := game.LegalMoves(from)
		for _, to := range set.Destinations {
			moves = append(moves, candidate{from: from, to: to, capture: set.IsCapture(to)})
		}
	}
	if len(moves) == 0 {
		return Move{}, ErrNoMove
	}

	if a.difficulty <= 3 {
		var captures []candidate
		for _, c := range moves {
			if c.capture {
				captures = append(captures, c)
			}
		}
		pool := moves
		if len(captures) > 0 {
			pool = captures
		}
		pick := pool[a.rng.Intn(len(pool))]
		return Move{From: pick.from, To: pick.to}, nil
	}

	best := moves[0]
	bestScore := -999999.0
	for _, c := range moves {
		if err := ctx.Err(); err != nil {
			return Move{}, err
		}
		mv, err := game.MakeMove(c.from, c.to, rules.Options{})
		if err != nil {
			continue
		}
		score := -evaluate(game)
		score += float64(len(mv.Removals)) * 100
		score += a.rng.Float64() * float64(11-a.difficulty)
		game.Undo()

		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	a.log.Debug("checkers ai move",
		zap.Stringer("from", best.from),
		zap.Stringer("to", best.to),
		zap.Float64("score", bestScore))
	return Move{From: best.from, To: best.to}, nil
}

// evaluate scores the position for the side to move: men count once, kings
// 2.5 times.
func evaluate(game *rules.CheckersEngine) float64 {
	var white, black float64
	for _, pc := range game.Pieces() {
		value := 1.0
		if pc.King {
			value = 2.5
		}
		if pc.Color == rules.White {
			white += value
		} else {
			black += value
		}
	}
	if game.Turn() == rules.White {
		return white - black
	}
	return black - white
}
