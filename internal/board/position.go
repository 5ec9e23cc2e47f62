// Package board defines the coordinate and occupancy types shared by the
// sensor hardware, the rules engines and the reconciliation loop. The sensor
// and LED index space (0-63) is mapped onto board squares by fixed
// hardware-defined permutation tables, not by a formula: the shift-register
// chain is wired row-by-row with rows 5-8 running in the opposite direction
// of rows 1-4.
package board

import "fmt"

// NumCells is the number of sensor/LED cells on the board.
const NumCells = 64

// Position is a square on the 8x8 grid. File runs 0-7 (A-H), Rank 0-7 (1-8).
type Position struct {
	File int8
	Rank int8
}

// Pos builds a Position from zero-based file and rank.
func Pos(file, rank int) Position {
	return Position{File: int8(file), Rank: int8(rank)}
}

// Valid reports whether the position lies on the board.
func (p Position) Valid() bool {
	return p.File >= 0 && p.File < 8 && p.Rank >= 0 && p.Rank < 8
}

// String returns algebraic notation in upper case ("E4"), matching the
// notation used on the silkscreen of the sensor PCB.
func (p Position) String() string {
	if !p.Valid() {
		return "??"
	}
	return fmt.Sprintf("%c%d", 'A'+p.File, p.Rank+1)
}

// Parse converts notation like "e4" or "E4" into a Position.
func Parse(s string) (Position, bool) {
	if len(s) != 2 {
		return Position{}, false
	}
	f := s[0]
	if f >= 'a' && f <= 'h' {
		f -= 'a' - 'A'
	}
	if f < 'A' || f > 'H' || s[1] < '1' || s[1] > '8' {
		return Position{}, false
	}
	return Position{File: int8(f - 'A'), Rank: int8(s[1] - '1')}, true
}

// Dark reports whether the square is a dark square (used by checkers, which
// only plays on the 32 dark squares).
func (p Position) Dark() bool {
	return (p.File+p.Rank)%2 == 0
}
