// Package anim renders the idle-state LED effects. The animator never runs
// its own goroutine: the orchestrator calls Step from the poll loop while no
// game is started and stops it the instant gameplay begins, so the matrix
// has exactly one writer at a time.
package anim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/hardware"
)

// rings are the concentric LED circles, outermost first. Cell numbers are
// physical strip indices; the grouping follows the board wiring, so it is a
// table, not a formula.
var rings = [4][]int{
	{28, 24, 20, 16, 15, 14, 13, 12, 29, 8, 30, 4, 31, 0, 32, 63, 36, 62, 40, 61, 44, 45, 46, 47, 48, 52, 56, 60},
	{25, 21, 17, 11, 10, 9, 26, 5, 27, 1, 33, 59, 37, 58, 41, 42, 43, 49, 53, 57},
	{22, 18, 7, 6, 23, 2, 34, 55, 38, 39, 50, 54},
	{19, 3, 35, 51}, // center: D4, D5, E4, E5
}

// hsv converts hue (0-360), saturation and value (0-1) to an RGB color.
func hsv(h, s, v float64) hardware.Color {
	h = math.Mod(h, 360) / 60
	i := int(h) % 6
	f := h - math.Floor(h)

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch i {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return hardware.Color{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255)}
}

// effect is one time-boxed generative pattern. render paints the matrix for
// elapsed time t (seconds since the effect started).
type effect struct {
	name     string
	interval time.Duration
	duration time.Duration
	render   func(a *Animator, t float64)
}

var effects = []effect{
	{"rainbow_wave", 50 * time.Millisecond, 15 * time.Second, (*Animator).rainbowWave},
	{"rainbow_ripple", 30 * time.Millisecond, 15 * time.Second, (*Animator).rainbowRipple},
	{"pulse_rings", 40 * time.Millisecond, 12 * time.Second, (*Animator).pulseRings},
	{"ring_chase", 80 * time.Millisecond, 15 * time.Second, (*Animator).ringChase},
	{"ring_chase_reverse", 80 * time.Millisecond, 15 * time.Second, (*Animator).ringChaseReverse},
	{"expanding_pulse", 50 * time.Millisecond, 12 * time.Second, (*Animator).expandingPulse},
	{"breathing", 20 * time.Millisecond, 12 * time.Second, (*Animator).breathing},
	{"color_fade", 50 * time.Millisecond, 12 * time.Second, (*Animator).colorFade},
	{"circular_wave", 30 * time.Millisecond, 15 * time.Second, (*Animator).circularWave},
	{"sparkle", 100 * time.Millisecond, 10 * time.Second, (*Animator).sparkle},
}

// Names lists the available effects.
func Names() []string {
	out := make([]string, len(effects))
	for i, ef := range effects {
		out[i] = ef.name
	}
	return out
}

// Animator cycles through the effects, each for its fixed duration, then
// picks a new one at random.
type Animator struct {
	matrix *hardware.Matrix
	rng    *rand.Rand

	current   int
	started   time.Time
	lastFrame time.Time
	running   bool
}

// New builds an animator over the shared matrix.
func New(matrix *hardware.Matrix) *Animator {
	return &Animator{
		matrix: matrix,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Current names the running effect, empty when stopped.
func (a *Animator) Current() string {
	if !a.running {
		return ""
	}
	return effects[a.current].name
}

// Step advances the animation. Frame pacing and effect rotation are both
// time-based, so calling it faster than the effect interval is free.
func (a *Animator) Step(now time.Time) error {
	if !a.running {
		a.running = true
		a.current = a.rng.Intn(len(effects))
		a.started = now
		a.lastFrame = time.Time{}
	}

	ef := &effects[a.current]
	if now.Sub(a.started) >= ef.duration {
		a.current = a.rng.Intn(len(effects))
		a.started = now
		ef = &effects[a.current]
	}
	if !a.lastFrame.IsZero() && now.Sub(a.lastFrame) < ef.interval {
		return nil
	}
	a.lastFrame = now

	ef.render(a, now.Sub(a.started).Seconds())
	return a.matrix.Commit()
}

// Play pins the animator to one named effect instead of the random
// rotation; used by the LED test tool.
func (a *Animator) Play(name string, now time.Time) error {
	for i, ef := range effects {
		if ef.name == name {
			a.running = true
			a.current = i
			a.started = now
			a.lastFrame = time.Time{}
			return nil
		}
	}
	return fmt.Errorf("unknown effect %q", name)
}

// StepCurrent renders the pinned effect without rotation.
func (a *Animator) StepCurrent(now time.Time) error {
	if !a.running {
		return fmt.Errorf("no effect playing")
	}
	ef := &effects[a.current]
	if !a.lastFrame.IsZero() && now.Sub(a.lastFrame) < ef.interval {
		return nil
	}
	a.lastFrame = now
	ef.render(a, now.Sub(a.started).Seconds())
	return a.matrix.Commit()
}

// Stop blanks the matrix and yields it back to the reconciliation engine.
func (a *Animator) Stop() error {
	if !a.running {
		return nil
	}
	a.running = false
	return a.matrix.AllOff()
}

func (a *Animator) rainbowWave(t float64) {
	for i := 0; i < board.NumCells; i++ {
		hue := math.Mod(float64(i)*360/64+t*100, 360)
		a.matrix.SetCell(i, hsv(hue, 1, 0.8))
	}
}

func (a *Animator) rainbowRipple(t float64) {
	offset := t * 100
	for depth := 0; depth < 4; depth++ {
		hue := math.Mod(offset+float64(depth)*90, 360)
		value := 0.5 + float64(3-depth)*0.1
		c := hsv(hue, 1, value)
		for _, cell := range rings[depth] {
			a.matrix.SetCell(cell, c)
		}
	}
}

func (a *Animator) pulseRings(t float64) {
	tt := t * 2
	for depth := 0; depth < 4; depth++ {
		phase := math.Mod(tt-float64(depth)*0.5, 2)
		if phase < 0 {
			phase += 2
		}
		value := phase
		if phase >= 1 {
			value = 2 - phase
		}
		hue := math.Mod(float64(depth)*60+tt*20, 360)
		c := hsv(hue, 1, value*0.7)
		for _, cell := range rings[depth] {
			a.matrix.SetCell(cell, c)
		}
	}
}

func (a *Animator) ringChase(t float64) {
	a.chase(t, false)
}

func (a *Animator) ringChaseReverse(t float64) {
	a.chase(t, true)
}

// chase lights one ring at a time with a cross-fade into the next,
// inward-out or outward-in.
func (a *Animator) chase(t float64, reverse bool) {
	tt := t * 3
	active := int(tt) % 4
	if reverse {
		active = 3 - active
	}
	fade := math.Mod(tt, 1)

	next := (active + 1) % 4
	if reverse {
		next = ((active-1)%4 + 4) % 4
	}

	for depth := 0; depth < 4; depth++ {
		var value float64
		switch depth {
		case active:
			value = 0.8 * (1 - fade*0.5)
		case next:
			value = 0.4 * fade
		}
		c := hsv(float64(depth)*90, 1, value)
		for _, cell := range rings[depth] {
			a.matrix.SetCell(cell, c)
		}
	}
}

func (a *Animator) expandingPulse(t float64) {
	tt := t * 2
	pulse := math.Mod(tt, 2)

	a.matrix.Clear()
	for depth := 3; depth >= 0; depth-- {
		distance := math.Abs(pulse - float64(3-depth)*0.5)
		if distance >= 0.3 {
			continue
		}
		value := 0.8 * (1 - distance/0.3)
		hue := math.Mod(tt*50+float64(depth)*30, 360)
		c := hsv(hue, 1, value)
		for _, cell := range rings[depth] {
			a.matrix.SetCell(cell, c)
		}
	}
}

func (a *Animator) breathing(t float64) {
	value := (math.Sin(t*2) + 1) / 2 * 0.6
	c := hardware.Color{
		R: uint8(255 * value),
		B: uint8(100 * value),
	}
	for i := 0; i < board.NumCells; i++ {
		a.matrix.SetCell(i, c)
	}
}

func (a *Animator) colorFade(t float64) {
	c := hsv(math.Mod(t*50, 360), 1, 0.7)
	for i := 0; i < board.NumCells; i++ {
		a.matrix.SetCell(i, c)
	}
}

func (a *Animator) circularWave(t float64) {
	offset := t * 5
	for i := 0; i < board.NumCells; i++ {
		hue := math.Mod(float64(i)*360/64+offset*10, 360)
		value := (math.Sin(float64(i)/10+offset) + 1) / 2 * 0.7
		a.matrix.SetCell(i, hsv(hue, 1, value))
	}
}

func (a *Animator) sparkle(t float64) {
	a.matrix.Clear()
	n := 5 + a.rng.Intn(11)
	for i := 0; i < n; i++ {
		value := 0.3 + a.rng.Float64()*0.5
		c := hardware.Color{
			R: uint8(100 * value),
			G: uint8(150 * value),
			B: uint8(255 * value),
		}
		a.matrix.SetCell(a.rng.Intn(board.NumCells), c)
	}
}
