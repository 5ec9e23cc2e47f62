package hardware

import (
	"fmt"
	"os"

	"github.com/thyrook/squire/internal/board"
)

// SpidevStrip drives the SK6812 chain over a spidev device. Each strip bit
// becomes three SPI bits (110 for one, 100 for zero), which at the 2.4 MHz
// bus clock configured by the spi dtoverlay lands inside the SK6812 timing
// window. Four bytes per pixel, GRBW on the wire.
type SpidevStrip struct {
	dev    *os.File
	pixels [board.NumCells]uint32
}

// NewSpidevStrip opens the SPI device (e.g. /dev/spidev0.0). Failure is
// fatal for callers: there is no degraded mode without LEDs.
func NewSpidevStrip(path string) (*SpidevStrip, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open led spi device: %w", err)
	}
	return &SpidevStrip{dev: f}, nil
}

func (s *SpidevStrip) SetPixel(index int, packed uint32) {
	if index >= 0 && index < board.NumCells {
		s.pixels[index] = packed
	}
}

func (s *SpidevStrip) Show() error {
	// 32 strip bits -> 96 SPI bits = 12 bytes per pixel, plus >=80us low
	// tail for the reset latch.
	out := make([]byte, 0, board.NumCells*12+32)
	for _, p := range s.pixels {
		// Packed is W<<24|R<<16|G<<8|B; the chain wants G,R,B,W.
		w := byte(p >> 24)
		r := byte(p >> 16)
		g := byte(p >> 8)
		b := byte(p)
		for _, ch := range [4]byte{g, r, b, w} {
			out = append(out, encodeByte(ch)...)
		}
	}
	out = append(out, make([]byte, 32)...)

	if _, err := s.dev.Write(out); err != nil {
		return fmt.Errorf("write led frame: %w", err)
	}
	return nil
}

func (s *SpidevStrip) Close() error {
	return s.dev.Close()
}

// encodeByte expands one strip byte into its 3-bits-per-bit SPI form.
func encodeByte(v byte) []byte {
	var bits uint32 // 24 SPI bits
	for i := 7; i >= 0; i-- {
		bits <<= 3
		if v&(1<<uint(i)) != 0 {
			bits |= 0b110
		} else {
			bits |= 0b100
		}
	}
	return []byte{byte(bits >> 16), byte(bits >> 8), byte(bits)}
}
