package reconcile

import (
	"time"

	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/hardware"
)

// Feedback palette. Dim last-move colors stay visible at low brightness
// through the matrix's effective-brightness floor.
var (
	colorLegal       = hardware.Color{G: 200}
	colorCapture     = hardware.Color{R: 200}
	colorTransit     = hardware.Color{R: 200, G: 200}
	colorSelected    = hardware.Color{B: 200}
	colorAlert       = hardware.Color{R: 200}
	colorLastMove    = hardware.Color{R: 30, G: 30, B: 30, W: 10}
	colorLastTransit = hardware.Color{R: 40, B: 40}
)

const blinkPeriod = 500 * time.Millisecond

// Frame is one full desired LED state, indexed by physical cell. Comparable
// so unchanged frames can be suppressed.
type Frame [board.NumCells]hardware.Color

// Set assigns a square's color; off-board positions are ignored.
func (f *Frame) Set(p board.Position, c hardware.Color) {
	if idx := board.ToIndex(p); idx >= 0 {
		f[idx] = c
	}
}

// render rebuilds the desired frame from the current state and attaches it
// to the effects only when it differs from the previously emitted frame, so
// idle polling produces no LED traffic.
func (e *Engine) render(fx *Effects, now time.Time) {
	blinkOn := (now.UnixMilli()/blinkPeriod.Milliseconds())%2 == 0

	var f Frame
	switch {
	case len(e.mismatches) > 0:
		if blinkOn {
			for _, p := range e.mismatches {
				f.Set(p, colorAlert)
			}
		}

	case e.pending.active():
		pd := &e.pending
		if !pd.PickedUp {
			f.Set(pd.From, colorSelected)
		}
		for _, p := range pd.Intermediate {
			f.Set(p, colorTransit)
		}
		for p := range pd.Removals {
			f.Set(p, colorCapture)
		}
		if pd.PickedUp || pd.Kind == PendingCaptureSweep {
			f.Set(pd.To, colorLegal)
		}

	case e.choice != nil:
		f.Set(e.choice.to, colorTransit)

	case e.selection != nil:
		for _, p := range e.selection.Set.Destinations {
			f.Set(p, colorLegal)
		}
		for _, p := range e.selection.Set.Intermediate {
			f.Set(p, colorTransit)
		}
		for _, p := range e.selection.Set.Captures {
			f.Set(p, colorCapture)
		}
		if blinkOn {
			f.Set(e.selection.Square, colorSelected)
		}
		if e.invalidReturn != nil {
			if blinkOn {
				f.Set(*e.invalidReturn, colorAlert)
			} else {
				f.Set(*e.invalidReturn, hardware.Color{})
			}
		}

	case e.lastMove != nil:
		for _, p := range e.lastMove.Intermediate {
			f.Set(p, colorLastTransit)
		}
		f.Set(e.lastMove.From, colorLastMove)
		f.Set(e.lastMove.To, colorLastMove)
	}

	if e.framePrimed && f == e.lastFrame {
		return
	}
	e.lastFrame = f
	e.framePrimed = true
	out := f
	fx.Frame = &out
}
