package hardware

import (
	"github.com/thyrook/squire/internal/board"
)

// Color is one RGBW LED value. The SK6812 has a dedicated white channel next
// to RGB.
type Color struct {
	R, G, B, W uint8
}

// Off is the zero color.
var Off = Color{}

// pack encodes a color in the strip's wire order: W<<24 | R<<16 | G<<8 | B.
func pack(c Color) uint32 {
	return uint32(c.W)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Strip is the raw LED strip: 64 pixels addressed by sensor index.
type Strip interface {
	SetPixel(index int, packed uint32)
	Show() error
	Close() error
}

// minEffectiveBrightness is the floor for the global brightness scalar
// (out of 255). Below this the strip output rounds to invisible, so low
// settings are clamped up rather than letting the board go dark.
const minEffectiveBrightness = 16

// Matrix is the write-only framebuffer the reconciliation loop paints into.
// SetCell and Clear only touch the internal buffer; Commit transmits the
// whole frame at once so a partially drawn frame is never visible.
type Matrix struct {
	strip      Strip
	buf        [board.NumCells]Color
	brightness uint8 // 0-255 scalar applied at commit time
}

// NewMatrix wraps a strip with a framebuffer at the given brightness percent.
func NewMatrix(strip Strip, brightnessPercent int) *Matrix {
	m := &Matrix{strip: strip}
	m.SetBrightnessPercent(brightnessPercent)
	return m
}

// SetBrightnessPercent sets the global brightness (0-100%). The scalar is
// independent of per-cell color values and floor-clamped; 0 stays 0 so the
// strip can be turned fully off.
func (m *Matrix) SetBrightnessPercent(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	v := pct * 255 / 100
	if v > 0 && v < minEffectiveBrightness {
		v = minEffectiveBrightness
	}
	m.brightness = uint8(v)
}

// SetCell writes one cell of the buffer.
func (m *Matrix) SetCell(index int, c Color) {
	if index >= 0 && index < board.NumCells {
		m.buf[index] = c
	}
}

// SetSquare writes the cell under a board square.
func (m *Matrix) SetSquare(p board.Position, c Color) {
	m.SetCell(board.ToIndex(p), c)
}

// Clear zeroes the buffer without transmitting.
func (m *Matrix) Clear() {
	m.buf = [board.NumCells]Color{}
}

// Commit transmits the full buffer, applying the brightness scalar per
// channel.
func (m *Matrix) Commit() error {
	for i, c := range m.buf {
		scaled := Color{
			R: scale(c.R, m.brightness),
			G: scale(c.G, m.brightness),
			B: scale(c.B, m.brightness),
			W: scale(c.W, m.brightness),
		}
		m.strip.SetPixel(i, pack(scaled))
	}
	return m.strip.Show()
}

// AllOff clears the buffer and transmits, leaving every LED dark.
func (m *Matrix) AllOff() error {
	m.Clear()
	for i := 0; i < board.NumCells; i++ {
		m.strip.SetPixel(i, 0)
	}
	return m.strip.Show()
}

// Close turns the strip off and releases it.
func (m *Matrix) Close() error {
	m.AllOff()
	return m.strip.Close()
}

func scale(v, brightness uint8) uint8 {
	return uint8(uint16(v) * uint16(brightness) / 255)
}
