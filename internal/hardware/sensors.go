package hardware

import (
	"fmt"
	"time"

	"github.com/thyrook/squire/internal/board"
)

// Sensor produces one occupancy snapshot per poll.
type Sensor interface {
	// ReadAll polls all 64 cells atomically. true = piece present.
	ReadAll() board.Snapshot

	// Close releases the underlying hardware.
	Close() error
}

// bitSettle is the settle time between clock edges; the 74HC165 is specified
// well below 1us but the level shifter adds slew.
const bitSettle = time.Microsecond

// SensorReader reads the Hall sensors through a chain of eight cascaded
// 74HC165 shift registers: one latch pulse loads all 64 inputs in parallel,
// then 64 clock pulses shift them out serially.
//
// Inversion policy: the Hall sensors pull their output LOW when a magnet is
// present, so raw low = piece present. That negation is applied exactly once,
// in ReadAll; every layer above sees true = occupied.
type SensorReader struct {
	pins  PinDriver
	data  Pin
	clock Pin
	latch Pin
}

// NewSensorReader configures the shift-register pins. A configuration error
// here is fatal for the process: the controller cannot operate without
// sensor ground truth.
func NewSensorReader(pins PinDriver, data, clock, latch Pin) (*SensorReader, error) {
	if err := pins.ConfigureInputPullDown(data); err != nil {
		return nil, fmt.Errorf("sensor data pin: %w", err)
	}
	if err := pins.ConfigureOutput(clock); err != nil {
		return nil, fmt.Errorf("sensor clock pin: %w", err)
	}
	if err := pins.ConfigureOutput(latch); err != nil {
		return nil, fmt.Errorf("sensor latch pin: %w", err)
	}

	r := &SensorReader{pins: pins, data: data, clock: clock, latch: latch}
	r.pins.Write(clock, false)
	r.pins.Write(latch, true)
	return r, nil
}

// ReadAll latches and shifts out all 64 sensor bits. The cascaded registers
// deliver the chain in reverse order, so the raw bits are flipped end to end
// before the presence inversion is applied.
func (r *SensorReader) ReadAll() board.Snapshot {
	// Parallel load.
	r.pins.Write(r.latch, false)
	time.Sleep(bitSettle)
	r.pins.Write(r.latch, true)
	time.Sleep(bitSettle)

	var raw [board.NumCells]bool
	for i := 0; i < board.NumCells; i++ {
		raw[i] = r.pins.Read(r.data)

		r.pins.Write(r.clock, true)
		time.Sleep(bitSettle)
		r.pins.Write(r.clock, false)
		time.Sleep(bitSettle)
	}

	var snap board.Snapshot
	for i := 0; i < board.NumCells; i++ {
		// Reverse chain order; raw LOW = magnet present.
		snap[i] = !raw[board.NumCells-1-i]
	}
	return snap
}

// Close releases the GPIO pins.
func (r *SensorReader) Close() error {
	return r.pins.Close()
}
