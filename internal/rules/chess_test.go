package rules

import (
	"errors"
	"testing"

	"github.com/thyrook/squire/internal/board"
)

func mustParse(t *testing.T, s string) board.Position {
	t.Helper()
	p, ok := board.Parse(s)
	if !ok {
		t.Fatalf("bad square %q", s)
	}
	return p
}

func TestChessOpeningMove(t *testing.T) {
	e := NewChessEngine()
	e2 := mustParse(t, "E2")
	e4 := mustParse(t, "E4")

	set := e.LegalMoves(e2)
	if !set.HasMoves() {
		t.Fatal("E2 pawn should have moves in the initial position")
	}
	found := false
	for _, d := range set.Destinations {
		if d == e4 {
			found = true
		}
	}
	if !found {
		t.Fatalf("E4 missing from E2 destinations: %v", set.Destinations)
	}
	if len(set.Captures) != 0 {
		t.Errorf("no captures expected from E2, got %v", set.Captures)
	}

	mv, err := e.MakeMove(e2, e4, Options{})
	if err != nil {
		t.Fatalf("MakeMove e2e4: %v", err)
	}
	if mv.Capture || mv.GaveCheck || len(mv.Auxiliary) != 0 {
		t.Errorf("unexpected flags on quiet pawn move: %+v", mv)
	}
	if e.Turn() != Black {
		t.Error("turn should pass to black")
	}
	if _, ok := e.PieceAt(e2); ok {
		t.Error("E2 should be empty after the move")
	}
	if pc, ok := e.PieceAt(e4); !ok || pc.Symbol != "P" {
		t.Errorf("E4 should hold the white pawn, got %+v ok=%v", pc, ok)
	}
}

func TestChessIllegalMoveLeavesStateUntouched(t *testing.T) {
	e := NewChessEngine()
	e2 := mustParse(t, "E2")
	e5 := mustParse(t, "E5")

	if _, err := e.MakeMove(e2, e5, Options{}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if e.Turn() != White {
		t.Error("failed move must not flip the turn")
	}
	if _, ok := e.PieceAt(e2); !ok {
		t.Error("failed move must not vacate the origin")
	}
}

func TestChessCastlingAuxiliary(t *testing.T) {
	e := NewChessEngine()
	for _, uci := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6"} {
		from, to, _, ok := ParseUCI(uci)
		if !ok {
			t.Fatalf("bad uci %q", uci)
		}
		if _, err := e.MakeMove(from, to, Options{}); err != nil {
			t.Fatalf("setup move %s: %v", uci, err)
		}
	}

	e1 := mustParse(t, "E1")
	g1 := mustParse(t, "G1")
	mv, err := e.MakeMove(e1, g1, Options{})
	if err != nil {
		t.Fatalf("castle: %v", err)
	}
	want := []board.Position{mustParse(t, "H1"), mustParse(t, "F1")}
	if len(mv.Auxiliary) != 2 || mv.Auxiliary[0] != want[0] || mv.Auxiliary[1] != want[1] {
		t.Errorf("auxiliary = %v, want %v", mv.Auxiliary, want)
	}
	if pc, ok := e.PieceAt(mustParse(t, "F1")); !ok || pc.Symbol != "R" {
		t.Error("rook should sit on F1 after castling")
	}
}

func TestChessPromotionNeedsChoice(t *testing.T) {
	e := NewChessEngine()
	// March the a-pawn through b7 to a8.
	for _, uci := range []string{"a2a4", "h7h6", "a4a5", "h6h5", "a5a6", "h5h4", "a6b7", "h4h3"} {
		from, to, _, ok := ParseUCI(uci)
		if !ok {
			t.Fatalf("bad uci %q", uci)
		}
		if _, err := e.MakeMove(from, to, Options{}); err != nil {
			t.Fatalf("setup move %s: %v", uci, err)
		}
	}

	b7 := mustParse(t, "B7")
	a8 := mustParse(t, "A8")
	if _, err := e.MakeMove(b7, a8, Options{}); !errors.Is(err, ErrNeedsChoice) {
		t.Fatalf("expected ErrNeedsChoice, got %v", err)
	}
	if e.Turn() != White {
		t.Error("pending promotion must not flip the turn")
	}

	mv, err := e.MakeMove(b7, a8, Options{Promotion: "q"})
	if err != nil {
		t.Fatalf("promotion with choice: %v", err)
	}
	if mv.Promotion != "q" || !mv.Capture {
		t.Errorf("expected capturing queen promotion, got %+v", mv)
	}
	if pc, ok := e.PieceAt(a8); !ok || pc.Symbol != "Q" {
		t.Errorf("A8 should hold a white queen, got %+v", pc)
	}
}

func TestChessUndoRestoresPosition(t *testing.T) {
	e := NewChessEngine()
	before := ExpectedOccupancy(e)

	e2 := mustParse(t, "E2")
	e4 := mustParse(t, "E4")
	if _, err := e.MakeMove(e2, e4, Options{}); err != nil {
		t.Fatal(err)
	}
	if !e.Undo() {
		t.Fatal("Undo returned false with a move to take back")
	}
	if after := ExpectedOccupancy(e); after != before {
		t.Error("occupancy differs after undo")
	}
	if e.Turn() != White {
		t.Error("turn should be white again")
	}
	if e.Undo() {
		t.Error("Undo on the initial position should return false")
	}
}

func TestChessScholarsMate(t *testing.T) {
	e := NewChessEngine()
	seq := []string{"e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6"}
	for _, uci := range seq {
		from, to, _, _ := ParseUCI(uci)
		if _, err := e.MakeMove(from, to, Options{}); err != nil {
			t.Fatalf("move %s: %v", uci, err)
		}
	}
	mv, err := e.MakeMove(mustParse(t, "H5"), mustParse(t, "F7"), Options{})
	if err != nil {
		t.Fatalf("Qxf7#: %v", err)
	}
	if !mv.Capture || !mv.GaveCheck {
		t.Errorf("mating move should be a capture giving check: %+v", mv)
	}
	if !e.GameOver() {
		t.Fatal("game should be over")
	}
	if got := e.Result(); got != "Checkmate!" {
		t.Errorf("Result = %q, want Checkmate!", got)
	}
}

func TestChessExpectedOccupancyInitial(t *testing.T) {
	e := NewChessEngine()
	snap := ExpectedOccupancy(e)
	if snap.Count() != 32 {
		t.Fatalf("initial occupancy = %d cells, want 32", snap.Count())
	}
	if e.PieceCount() != 32 {
		t.Errorf("PieceCount = %d, want 32", e.PieceCount())
	}
}

func TestParseUCI(t *testing.T) {
	from, to, promo, ok := ParseUCI("e7e8q")
	if !ok || promo != "q" {
		t.Fatalf("ParseUCI e7e8q: ok=%v promo=%q", ok, promo)
	}
	if from.String() != "E7" || to.String() != "E8" {
		t.Errorf("got %s->%s", from, to)
	}
	if _, _, _, ok := ParseUCI("nonsense"); ok {
		t.Error("garbage should not parse")
	}
}
