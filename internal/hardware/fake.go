package hardware

import (
	"sync"

	"github.com/thyrook/squire/internal/board"
)

// FakePins emulates the 74HC165 chain for tests and the desk simulator.
// Set Bits to the raw wire levels (in shift order: bit 0 comes out first);
// the latch pulse captures them and clock edges walk through them.
type FakePins struct {
	mu       sync.Mutex
	Bits     [board.NumCells]bool
	captured [board.NumCells]bool
	pos      int
	latch    bool
	clock    bool
}

func (f *FakePins) ConfigureOutput(Pin) error        { return nil }
func (f *FakePins) ConfigureInputPullDown(Pin) error { return nil }
func (f *FakePins) Close() error                     { return nil }

func (f *FakePins) Write(pin Pin, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch pin {
	case PinSensorLatch:
		// Rising edge of /PL going back high finishes the parallel load.
		if !f.latch && value {
			f.captured = f.Bits
			f.pos = 0
		}
		f.latch = value
	case PinSensorClock:
		if !f.clock && value {
			f.pos++
		}
		f.clock = value
	}
	return nil
}

func (f *FakePins) Read(pin Pin) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pin != PinSensorData || f.pos >= board.NumCells {
		return false
	}
	return f.captured[f.pos]
}

// SetOccupied programs the fake so a subsequent ReadAll sees exactly the
// given squares as occupied, taking chain reversal and the low-active Hall
// output into account.
func (f *FakePins) SetOccupied(positions ...board.Position) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Bits {
		f.Bits[i] = true // raw high = empty
	}
	for _, p := range positions {
		idx := board.ToIndex(p)
		if idx < 0 {
			continue
		}
		f.Bits[board.NumCells-1-idx] = false // raw low = piece
	}
}

// FakeStrip records committed frames for tests.
type FakeStrip struct {
	mu     sync.Mutex
	Pixels [board.NumCells]uint32
	Shows  int
	Frames [][board.NumCells]uint32
}

func (s *FakeStrip) SetPixel(index int, packed uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < board.NumCells {
		s.Pixels[index] = packed
	}
}

func (s *FakeStrip) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Shows++
	s.Frames = append(s.Frames, s.Pixels)
	return nil
}

func (s *FakeStrip) Close() error { return nil }

// LitCount returns how many pixels are currently non-zero.
func (s *FakeStrip) LitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.Pixels {
		if p != 0 {
			n++
		}
	}
	return n
}

// SimSensor is a Sensor whose snapshot is set programmatically. It backs the
// desk simulator (no board attached) and the loop tests.
type SimSensor struct {
	mu   sync.Mutex
	snap board.Snapshot
}

// NewSimSensor starts with the given occupancy.
func NewSimSensor(initial board.Snapshot) *SimSensor {
	return &SimSensor{snap: initial}
}

func (s *SimSensor) ReadAll() board.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *SimSensor) Close() error { return nil }

// Place sets or clears a square.
func (s *SimSensor) Place(p board.Position, occupied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = s.snap.Set(p, occupied)
}

// Load replaces the whole snapshot.
func (s *SimSensor) Load(snap board.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}
