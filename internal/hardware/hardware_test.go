package hardware

import (
	"testing"

	"github.com/thyrook/squire/internal/board"
)

func TestSensorReaderInversionAndOrder(t *testing.T) {
	pins := &FakePins{}
	e2, _ := board.Parse("E2")
	h8, _ := board.Parse("H8")
	pins.SetOccupied(e2, h8)

	r, err := NewSensorReader(pins, PinSensorData, PinSensorClock, PinSensorLatch)
	if err != nil {
		t.Fatalf("NewSensorReader: %v", err)
	}
	defer r.Close()

	snap := r.ReadAll()
	if !snap.Occupied(e2) || !snap.Occupied(h8) {
		t.Errorf("expected E2 and H8 occupied, got count=%d", snap.Count())
	}
	if snap.Count() != 2 {
		t.Errorf("expected exactly 2 occupied cells, got %d", snap.Count())
	}

	// A second read without changes yields the identical snapshot.
	if again := r.ReadAll(); again != snap {
		t.Error("repeat read differed from first read")
	}
}

func TestSensorReaderEmptyBoard(t *testing.T) {
	pins := &FakePins{}
	pins.SetOccupied() // all raw-high = all empty

	r, err := NewSensorReader(pins, PinSensorData, PinSensorClock, PinSensorLatch)
	if err != nil {
		t.Fatalf("NewSensorReader: %v", err)
	}
	if n := r.ReadAll().Count(); n != 0 {
		t.Errorf("empty board read %d occupied cells", n)
	}
}

func TestMatrixCommitIsAtomic(t *testing.T) {
	strip := &FakeStrip{}
	m := NewMatrix(strip, 100)

	e4, _ := board.Parse("E4")
	m.SetSquare(e4, Color{G: 255})
	if strip.Shows != 0 {
		t.Fatal("SetSquare must not transmit")
	}
	m.Clear()
	m.SetSquare(e4, Color{B: 255})
	if strip.Shows != 0 {
		t.Fatal("Clear must not transmit")
	}

	if err := m.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if strip.Shows != 1 {
		t.Fatalf("expected 1 show, got %d", strip.Shows)
	}
	idx := board.ToIndex(e4)
	if strip.Pixels[idx] != pack(Color{B: 255}) {
		t.Errorf("E4 pixel = %#x, want blue", strip.Pixels[idx])
	}
	if strip.LitCount() != 1 {
		t.Errorf("expected 1 lit pixel, got %d", strip.LitCount())
	}
}

func TestMatrixBrightnessFloor(t *testing.T) {
	strip := &FakeStrip{}
	m := NewMatrix(strip, 1) // 1% would round to scalar 2 of 255

	e4, _ := board.Parse("E4")
	m.SetSquare(e4, Color{R: 255})
	if err := m.Commit(); err != nil {
		t.Fatal(err)
	}

	idx := board.ToIndex(e4)
	r := byte(strip.Pixels[idx] >> 16)
	if r < minEffectiveBrightness {
		t.Errorf("red channel %d below effective floor %d", r, minEffectiveBrightness)
	}

	// Zero stays zero so the strip can actually be turned off.
	m.SetBrightnessPercent(0)
	m.Commit()
	if strip.Pixels[idx] != 0 {
		t.Error("brightness 0 should blank the strip")
	}
}

func TestMatrixAllOff(t *testing.T) {
	strip := &FakeStrip{}
	m := NewMatrix(strip, 50)
	for i := 0; i < board.NumCells; i++ {
		m.SetCell(i, Color{W: 200})
	}
	m.Commit()
	if strip.LitCount() != board.NumCells {
		t.Fatalf("expected all lit, got %d", strip.LitCount())
	}
	m.AllOff()
	if strip.LitCount() != 0 {
		t.Errorf("expected all off, got %d lit", strip.LitCount())
	}
}

func TestColorPacking(t *testing.T) {
	got := pack(Color{R: 0x11, G: 0x22, B: 0x33, W: 0x44})
	want := uint32(0x44112233)
	if got != want {
		t.Errorf("pack = %#x, want %#x", got, want)
	}
}
