// Package hardware talks to the board electronics: the 74HC165 shift-register
// chain reading the 64 Hall sensors, and the SK6812 RGBW strip lighting the
// squares. Everything above this package works with the Sensor and Strip
// abstractions; nothing else may touch pins.
package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Pin identifies a GPIO pin (BCM numbering).
type Pin uint8

// Default wiring of the controller PCB.
const (
	PinSensorData  Pin = 9  // 74HC165 Q7 (MISO)
	PinSensorClock Pin = 11 // 74HC165 CLK
	PinSensorLatch Pin = 25 // 74HC165 /PL
	PinLEDData     Pin = 12 // SK6812 data in (PWM)
)

// PinDriver is the abstract GPIO interface the sensor chain is built on.
// Platform-specific implementations handle the actual hardware; tests use
// FakePins.
type PinDriver interface {
	// ConfigureOutput configures a pin as a digital output.
	ConfigureOutput(pin Pin) error

	// ConfigureInputPullDown configures a pin as a digital input with a
	// pull-down resistor (the sensor data line floats between reads).
	ConfigureInputPullDown(pin Pin) error

	// Write drives an output pin high (true) or low (false).
	Write(pin Pin, value bool) error

	// Read returns the current level of an input pin.
	Read(pin Pin) bool

	// Close releases all configured pins.
	Close() error
}

// SysfsPins drives GPIO through the Linux sysfs interface. It keeps the
// value file of every configured pin open so the 64-bit shift reads do not
// pay an open/close per bit.
type SysfsPins struct {
	base  string
	files map[Pin]*os.File
}

// NewSysfsPins returns a driver rooted at /sys/class/gpio.
func NewSysfsPins() *SysfsPins {
	return &SysfsPins{base: "/sys/class/gpio", files: make(map[Pin]*os.File)}
}

func (s *SysfsPins) export(pin Pin) error {
	dir := filepath.Join(s.base, fmt.Sprintf("gpio%d", pin))
	if _, err := os.Stat(dir); err == nil {
		return nil // already exported
	}
	if err := os.WriteFile(filepath.Join(s.base, "export"), []byte(fmt.Sprintf("%d", pin)), 0o200); err != nil {
		return fmt.Errorf("export gpio%d: %w", pin, err)
	}
	// The kernel needs a moment to create the pin directory and fix up
	// permissions after export.
	time.Sleep(50 * time.Millisecond)
	return nil
}

func (s *SysfsPins) configure(pin Pin, direction string) error {
	if err := s.export(pin); err != nil {
		return err
	}
	dir := filepath.Join(s.base, fmt.Sprintf("gpio%d", pin))
	if err := os.WriteFile(filepath.Join(dir, "direction"), []byte(direction), 0o200); err != nil {
		return fmt.Errorf("set gpio%d direction: %w", pin, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "value"), os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open gpio%d value: %w", pin, err)
	}
	s.files[pin] = f
	return nil
}

func (s *SysfsPins) ConfigureOutput(pin Pin) error {
	return s.configure(pin, "out")
}

func (s *SysfsPins) ConfigureInputPullDown(pin Pin) error {
	// sysfs has no pull configuration; the board has an external pull-down
	// on the sensor data line.
	return s.configure(pin, "in")
}

func (s *SysfsPins) Write(pin Pin, value bool) error {
	f, ok := s.files[pin]
	if !ok {
		return fmt.Errorf("gpio%d not configured", pin)
	}
	b := []byte("0")
	if value {
		b = []byte("1")
	}
	_, err := f.WriteAt(b, 0)
	return err
}

func (s *SysfsPins) Read(pin Pin) bool {
	f, ok := s.files[pin]
	if !ok {
		return false
	}
	var buf [1]byte
	if _, err := f.ReadAt(buf[:], 0); err != nil {
		return false
	}
	return buf[0] == '1'
}

func (s *SysfsPins) Close() error {
	var firstErr error
	for pin, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.files, pin)
	}
	return firstErr
}
