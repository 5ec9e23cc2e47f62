package board

// sensorToSquare is the hardware permutation from sensor/LED index to square.
// The chain is soldered in four quadrants: rows 1-4 run left to right, rows
// 5-8 are mirrored. Copied from the board wiring plan; do not "simplify"
// this into arithmetic, the irregular E-H columns on rows 1-4 are real.
var sensorToSquare = map[int]string{
	// Row 1
	12: "A1", 13: "B1", 14: "C1", 15: "D1", 16: "E1", 20: "F1", 24: "G1", 28: "H1",
	// Row 2
	8: "A2", 9: "B2", 10: "C2", 11: "D2", 17: "E2", 21: "F2", 25: "G2", 29: "H2",
	// Row 3
	4: "A3", 5: "B3", 6: "C3", 7: "D3", 18: "E3", 22: "F3", 26: "G3", 30: "H3",
	// Row 4
	0: "A4", 1: "B4", 2: "C4", 3: "D4", 19: "E4", 23: "F4", 27: "G4", 31: "H4",
	// Row 5 (mirrored)
	32: "H5", 33: "G5", 34: "F5", 35: "E5", 51: "D5", 55: "C5", 59: "B5", 63: "A5",
	// Row 6 (mirrored)
	36: "H6", 37: "G6", 38: "F6", 39: "E6", 50: "D6", 54: "C6", 58: "B6", 62: "A6",
	// Row 7 (mirrored)
	40: "H7", 41: "G7", 42: "F7", 43: "E7", 49: "D7", 53: "C7", 57: "B7", 61: "A7",
	// Row 8 (mirrored)
	44: "H8", 45: "G8", 46: "F8", 47: "E8", 48: "D8", 52: "C8", 56: "B8", 60: "A8",
}

var (
	indexToPos [NumCells]Position
	posToIndex [8][8]int
)

func init() {
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			posToIndex[f][r] = -1
		}
	}
	for idx, name := range sensorToSquare {
		p, ok := Parse(name)
		if !ok {
			panic("board: bad square in sensor table: " + name)
		}
		indexToPos[idx] = p
		posToIndex[p.File][p.Rank] = idx
	}
}

// ToPosition converts a sensor/LED index to its square. The second return is
// false for indexes outside 0-63.
func ToPosition(index int) (Position, bool) {
	if index < 0 || index >= NumCells {
		return Position{}, false
	}
	return indexToPos[index], true
}

// ToIndex converts a square to its sensor/LED index, or -1 if the position
// is off the board.
func ToIndex(p Position) int {
	if !p.Valid() {
		return -1
	}
	return posToIndex[p.File][p.Rank]
}

// checkersSquares maps the American draughts numbering (1-32, dark squares
// only, counted from black's back rank) onto board squares. This is a
// distinct table layered on the same index space, not derived from the chess
// table: draughts notation has its own orientation.
var checkersSquares = map[int]string{
	1: "B8", 2: "D8", 3: "F8", 4: "H8",
	5: "A7", 6: "C7", 7: "E7", 8: "G7",
	9: "B6", 10: "D6", 11: "F6", 12: "H6",
	13: "A5", 14: "C5", 15: "E5", 16: "G5",
	17: "B4", 18: "D4", 19: "F4", 20: "H4",
	21: "A3", 22: "C3", 23: "E3", 24: "G3",
	25: "B2", 26: "D2", 27: "F2", 28: "H2",
	29: "A1", 30: "C1", 31: "E1", 32: "G1",
}

var (
	checkersToPos  [33]Position
	posToCheckers  [8][8]int
	checkersLoaded bool
)

func initCheckers() {
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			posToCheckers[f][r] = 0
		}
	}
	for n, name := range checkersSquares {
		p, ok := Parse(name)
		if !ok {
			panic("board: bad square in checkers table: " + name)
		}
		checkersToPos[n] = p
		posToCheckers[p.File][p.Rank] = n
	}
	checkersLoaded = true
}

// CheckersToPosition converts a draughts square number (1-32) to a Position.
func CheckersToPosition(n int) (Position, bool) {
	if !checkersLoaded {
		initCheckers()
	}
	if n < 1 || n > 32 {
		return Position{}, false
	}
	return checkersToPos[n], true
}

// CheckersNumber converts a Position to its draughts square number, or 0 for
// light squares and off-board positions.
func CheckersNumber(p Position) int {
	if !checkersLoaded {
		initCheckers()
	}
	if !p.Valid() {
		return 0
	}
	return posToCheckers[p.File][p.Rank]
}
