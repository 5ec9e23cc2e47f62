package opponent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/rules"
)

func TestParseBestMove(t *testing.T) {
	mv, err := parseBestMove("bestmove e2e4 ponder e7e5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mv.From.String() != "E2" || mv.To.String() != "E4" || mv.Promotion != "" {
		t.Errorf("got %+v", mv)
	}

	mv, err = parseBestMove("bestmove e7e8q")
	if err != nil || mv.Promotion != "q" {
		t.Errorf("promotion parse: %+v err=%v", mv, err)
	}

	if _, err := parseBestMove("bestmove (none)"); !errors.Is(err, ErrNoMove) {
		t.Errorf("(none) should map to ErrNoMove, got %v", err)
	}
	if _, err := parseBestMove("bestmove zzzz"); err == nil {
		t.Error("garbage move should error")
	}
}

func TestCheckersAIPicksLegalMove(t *testing.T) {
	game := rules.NewCheckersEngine()
	ai := NewCheckersAI(game, 5, nil)

	mv, err := ai.BestMove(context.Background())
	if err != nil {
		t.Fatalf("BestMove: %v", err)
	}
	if _, err := game.MakeMove(mv.From, mv.To, rules.Options{}); err != nil {
		t.Fatalf("AI chose an illegal move %s->%s: %v", mv.From, mv.To, err)
	}
}

func TestCheckersAISearchLeavesGameUntouched(t *testing.T) {
	game := rules.NewCheckersEngine()
	ai := NewCheckersAI(game, 10, nil)

	before := rules.ExpectedOccupancy(game)
	turn := game.Turn()
	if _, err := ai.BestMove(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rules.ExpectedOccupancy(game) != before {
		t.Error("search must undo every probed move")
	}
	if game.Turn() != turn {
		t.Error("search must not flip the turn")
	}
}

func TestCheckersAISearchRunsConcurrentlyWithReaders(t *testing.T) {
	game := rules.NewCheckersEngine()
	ai := NewCheckersAI(game, 8, nil)

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 100; i++ {
			if _, err := ai.BestMove(context.Background()); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	// The poll loop keeps reading the live game for mismatch validation
	// while the search thinks; the search must never touch it.
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
			return
		default:
			rules.ExpectedOccupancy(game)
		}
	}
}

func TestCheckersAIPrefersCaptures(t *testing.T) {
	// Captures are forced by the rules, so any difficulty must return the
	// jump when one exists.
	game := rules.NewCheckersEngine()
	white := NewCheckersAI(game, 2, nil)

	// Steer into a position with a forced white capture: C3-D4, D6-C5.
	for _, m := range [][2]string{{"C3", "D4"}, {"D6", "C5"}} {
		if _, err := game.MakeMove(mustPos(t, m[0]), mustPos(t, m[1]), rules.Options{}); err != nil {
			t.Fatalf("setup %v: %v", m, err)
		}
	}

	mv, err := white.BestMove(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if mv.From.String() != "D4" || mv.To.String() != "B6" {
		t.Errorf("expected the forced jump D4->B6, got %s->%s", mv.From, mv.To)
	}
}

func mustPos(t *testing.T, s string) board.Position {
	t.Helper()
	p, ok := board.Parse(s)
	if !ok {
		t.Fatalf("bad square %q", s)
	}
	return p
}

func TestComputePollsWithoutBlocking(t *testing.T) {
	game := rules.NewCheckersEngine()
	ai := NewCheckersAI(game, 3, nil)

	h := Compute(context.Background(), ai)
	deadline := time.Now().Add(2 * time.Second)
	for {
		mv, ok, err := h.Poll()
		if ok {
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			if !mv.From.Valid() {
				t.Fatalf("bad move %+v", mv)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("computation never finished")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCancelledComputeDoesNotLeak(t *testing.T) {
	game := rules.NewCheckersEngine()
	ai := NewCheckersAI(game, 10, nil)

	h := Compute(context.Background(), ai)
	h.Cancel()
	// The buffered result channel lets the goroutine finish regardless of
	// whether anyone polls; a later poll just reports whatever happened.
	time.Sleep(10 * time.Millisecond)
	h.Poll()
}
