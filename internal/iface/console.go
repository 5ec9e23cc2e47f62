// Package iface renders the controller's state to the terminal. The board is
// primary feedback for the player through its LEDs; the console mirrors it
// for whoever is watching the attached screen, and handles the one input the
// board cannot express: the promotion piece choice.
package iface

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/reconcile"
	"github.com/thyrook/squire/internal/storage"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
)

// Console renders game state to the terminal
type Console struct {
	out   io.Writer
	in    *bufio.Reader
	quiet bool
	mu    sync.Mutex
}

// NewConsole creates a console renderer writing to stdout
func NewConsole(quiet bool) *Console {
	return &Console{
		out:   os.Stdout,
		in:    bufio.NewReader(os.Stdin),
		quiet: quiet,
	}
}

// NewConsoleWriter creates a console renderer writing to w (used by tests)
func NewConsoleWriter(w io.Writer, quiet bool) *Console {
	return NewConsoleIO(strings.NewReader(""), w, quiet)
}

// NewConsoleIO creates a console renderer over explicit streams
func NewConsoleIO(r io.Reader, w io.Writer, quiet bool) *Console {
	return &Console{
		out:   w,
		in:    bufio.NewReader(r),
		quiet: quiet,
	}
}

// PrintBanner displays the application banner
func (c *Console) PrintBanner() {
	if c.quiet {
		return
	}

	banner := `
╔════════════════════════════════════════════════════════╗
║                                                        ║
║   ███████╗  ██████╗  ██╗   ██╗ ██╗ ██████╗  ███████╗   ║
║   ██╔════╝ ██╔═══██╗ ██║   ██║ ██║ ██╔══██╗ ██╔════╝   ║
║   ███████╗ ██║   ██║ ██║   ██║ ██║ ██████╔╝ █████╗     ║
║   ╚════██║ ██║▄▄ ██║ ██║   ██║ ██║ ██╔══██╗ ██╔══╝     ║
║   ███████║ ╚██████╔╝ ╚██████╔╝ ██║ ██║  ██║ ███████╗   ║
║   ╚══════╝  ╚══▀▀═╝   ╚═════╝  ╚═╝ ╚═╝  ╚═╝ ╚══════╝   ║
║                                                        ║
║        Sensor-driven chess & checkers board            ║
║                                                        ║
╚════════════════════════════════════════════════════════╝
`
	fmt.Fprintln(c.out, banner)
}

// PrintStatus prints a timestamped status message
func (c *Console) PrintStatus(message string, level string) {
	if c.quiet && level != "error" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var prefix string
	switch level {
	case "info":
		prefix = c.Colorize("ℹ", ColorBlue)
	case "success":
		prefix = c.Colorize("✓", ColorGreen)
	case "warning":
		prefix = c.Colorize("⚠", ColorYellow)
	case "error":
		prefix = c.Colorize("✗", ColorRed)
	default:
		prefix = "•"
	}

	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "[%s] %s %s\n", timestamp, prefix, message)
}

// PrintError prints an error message
func (c *Console) PrintError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %v\n", c.Colorize("Error:", ColorRed+ColorBold), err)
}

// Colorize applies color to text if terminal supports it
func (c *Console) Colorize(text string, color string) string {
	if os.Getenv("NO_COLOR") != "" {
		return text
	}
	return color + text + ColorReset
}

// ClearScreen clears the terminal screen
func (c *Console) ClearScreen() {
	if c.quiet {
		return
	}
	fmt.Fprint(c.out, "\033[2J\033[H")
}

// cellGlyph picks the marker for one square: occupancy plus whatever the
// reconciliation state says about it. Mirrors the LED palette.
func (c *Console) cellGlyph(p board.Position, snap board.Snapshot, sum *reconcile.Summary) string {
	occupied := snap.Occupied(p)

	for _, m := range sum.Mismatches {
		if m == p {
			return c.Colorize("?", ColorRed+ColorBold)
		}
	}
	if sum.Selected != nil && *sum.Selected == p {
		return c.Colorize("●", ColorBlue+ColorBold)
	}
	for _, d := range sum.Captures {
		if d == p {
			return c.Colorize("x", ColorRed)
		}
	}
	for _, d := range sum.Destinations {
		if d == p {
			return c.Colorize("*", ColorGreen)
		}
	}
	for _, d := range sum.Intermediate {
		if d == p {
			return c.Colorize("+", ColorYellow)
		}
	}
	if sum.PendingFrom != nil && *sum.PendingFrom == p {
		return c.Colorize("●", ColorBlue)
	}
	if sum.PendingTo != nil && *sum.PendingTo == p {
		return c.Colorize("*", ColorGreen+ColorBold)
	}
	if sum.LastFrom != nil && *sum.LastFrom == p {
		return c.Colorize("·", ColorDim)
	}
	if sum.LastTo != nil && *sum.LastTo == p && occupied {
		return c.Colorize("●", ColorDim)
	}

	if occupied {
		return "●"
	}
	return c.Colorize("·", ColorDim)
}

// RenderBoard draws the occupancy grid with the current reconciliation
// markers overlaid, white's side at the bottom.
func (c *Console) RenderBoard(snap board.Snapshot, sum *reconcile.Summary) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&b, "  %d  ", rank+1)
		for file := 0; file < 8; file++ {
			b.WriteString(c.cellGlyph(board.Pos(file, rank), snap, sum))
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	b.WriteString("     A B C D E F G H\n")
	fmt.Fprint(c.out, b.String())

	c.printSummaryLine(sum)
}

// printSummaryLine prints turn, pending prompt and any blocking message under
// the board. Caller holds the mutex.
func (c *Console) printSummaryLine(sum *reconcile.Summary) {
	line := fmt.Sprintf("%s to move", capitalize(sum.Turn))
	if sum.GameOver {
		line = c.Colorize(sum.Result, ColorBold+ColorCyan)
	} else if sum.Paused {
		line = c.Colorize("PAUSED", ColorRed+ColorBold)
	}
	fmt.Fprintf(c.out, "\n  %s | %s\n", sum.Variant, line)

	if sum.Message != "" {
		fmt.Fprintf(c.out, "  %s\n", c.Colorize(sum.Message, ColorYellow))
	}
}

// PrintMessage prints a transient message from the reconciliation effects
func (c *Console) PrintMessage(message string) {
	if message == "" {
		return
	}
	c.PrintStatus(message, "info")
}

// PrintSound prints the audio cue name; the board has no speaker, so cues
// surface on the console instead.
func (c *Console) PrintSound(s reconcile.Sound) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch s {
	case reconcile.SoundError:
		fmt.Fprintln(c.out, c.Colorize("  ♪ buzz", ColorRed))
	case reconcile.SoundCapture:
		fmt.Fprintln(c.out, c.Colorize("  ♪ capture", ColorYellow))
	case reconcile.SoundCheck:
		fmt.Fprintln(c.out, c.Colorize("  ♪ check", ColorYellow))
	case reconcile.SoundGameOver:
		fmt.Fprintln(c.out, c.Colorize("  ♪ game over", ColorCyan))
	default:
		fmt.Fprintln(c.out, c.Colorize("  ♪ move", ColorDim))
	}
}

// PromptPromotion asks which piece the promoting pawn becomes. Returns one
// of q, r, b, n; anything unrecognized defaults to the queen. The mutex is
// not held across the read: the orchestrator runs the prompt on its own
// goroutine and keeps rendering through the same console while it waits.
func (c *Console) PromptPromotion() string {
	c.mu.Lock()
	fmt.Fprint(c.out, "\nPromote to [Q]ueen, [R]ook, [B]ishop, k[N]ight: ")
	c.mu.Unlock()

	line, err := c.in.ReadString('\n')
	if err != nil {
		return "q"
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "r", "rook":
		return "r"
	case "b", "bishop":
		return "b"
	case "n", "knight":
		return "n"
	}
	return "q"
}

// PrintGameTable lists stored games in a formatted table
func (c *Console) PrintGameTable(games []storage.GameRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(games) == 0 {
		fmt.Fprintln(c.out, "No games recorded.")
		return
	}

	headers := []string{"#", "ID", "Variant", "Date", "Moves", "Result"}
	rows := make([][]string, 0, len(games))
	for i, g := range games {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			shortID(g.ID),
			g.Variant,
			time.Unix(g.StartedAt, 0).Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", len(g.Moves)),
			g.Result,
		})
	}

	// Calculate column widths
	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	fmt.Fprintln(c.out)
	for i, h := range headers {
		fmt.Fprintf(c.out, "%-*s  ", colWidths[i], h)
	}
	fmt.Fprintln(c.out)
	for _, w := range colWidths {
		fmt.Fprint(c.out, strings.Repeat("─", w+2))
	}
	fmt.Fprintln(c.out)
	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprintf(c.out, "%-*s  ", colWidths[i], cell)
		}
		fmt.Fprintln(c.out)
	}
	fmt.Fprintln(c.out)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintSeparator prints a visual separator
func (c *Console) PrintSeparator() {
	if !c.quiet {
		fmt.Fprintln(c.out, strings.Repeat("━", 60))
	}
}
