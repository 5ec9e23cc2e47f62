package iface

import (
	"bytes"
	"strings"
	"testing"

	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/reconcile"
	"github.com/thyrook/squire/internal/storage"
)

func TestColorizeRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	c := NewConsoleWriter(&bytes.Buffer{}, false)
	if got := c.Colorize("hello", ColorRed); got != "hello" {
		t.Errorf("NO_COLOR should strip codes, got %q", got)
	}

	t.Setenv("NO_COLOR", "")
	if got := c.Colorize("hello", ColorRed); !strings.Contains(got, "\033[31m") {
		t.Errorf("expected color codes, got %q", got)
	}
}

func TestRenderBoardShowsMarkers(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	var snap board.Snapshot
	snap = snap.Set(board.Pos(4, 1), true) // E2

	sel := board.Pos(4, 1)
	sum := &reconcile.Summary{
		Variant:      "chess",
		Turn:         "white",
		Selected:     &sel,
		Destinations: []board.Position{board.Pos(4, 3)},
	}
	c.RenderBoard(snap, sum)

	out := buf.String()
	if !strings.Contains(out, "A B C D E F G H") {
		t.Error("board should print the file labels")
	}
	if !strings.Contains(out, "●") {
		t.Error("selected square should render a filled marker")
	}
	if !strings.Contains(out, "*") {
		t.Error("destination should render as *")
	}
	if !strings.Contains(out, "White to move") {
		t.Errorf("missing turn line:\n%s", out)
	}
}

func TestRenderBoardGameOver(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	c.RenderBoard(board.Snapshot{}, &reconcile.Summary{
		Variant:  "chess",
		Turn:     "black",
		GameOver: true,
		Result:   "Checkmate!",
	})

	if !strings.Contains(buf.String(), "Checkmate!") {
		t.Error("game over should show the result instead of the turn")
	}
}

func TestQuietSuppressesBoard(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)
	c.RenderBoard(board.Snapshot{}, &reconcile.Summary{Turn: "white"})
	c.PrintBanner()
	if buf.Len() != 0 {
		t.Errorf("quiet mode should print nothing, got %q", buf.String())
	}
}

func TestQuietStillPrintsErrors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)
	c.PrintStatus("board mismatch", "error")
	if !strings.Contains(buf.String(), "board mismatch") {
		t.Error("errors should print even in quiet mode")
	}
}

func TestPrintGameTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	c.PrintGameTable([]storage.GameRecord{
		{ID: "0123456789abcdef", Variant: "chess", Result: "Draw",
			Moves: []storage.MoveRecord{{From: "E2", To: "E4"}}},
	})

	out := buf.String()
	if !strings.Contains(out, "01234567") {
		t.Error("table should show the truncated ID")
	}
	if strings.Contains(out, "89abcdef") {
		t.Error("ID should be truncated to 8 chars")
	}
	if !strings.Contains(out, "Draw") {
		t.Error("table should show the result")
	}

	buf.Reset()
	c.PrintGameTable(nil)
	if !strings.Contains(buf.String(), "No games") {
		t.Error("empty table should say so")
	}
}
