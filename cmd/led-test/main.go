// Command led-test exercises the LED matrix: solid fills, a per-cell walk
// to verify the index mapping, and the idle effects.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/thyrook/squire/internal/anim"
	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/hardware"
)

func main() {
	var (
		device     = flag.String("device", "/dev/spidev0.0", "SPI device for the LED strip")
		brightness = flag.Int("brightness", 20, "Brightness percent (0-100)")
		mode       = flag.String("mode", "walk", "Test mode: walk, fill, effect, list")
		colorSpec  = flag.String("color", "0,200,0,0", "Fill color as R,G,B,W")
		effect     = flag.String("effect", "rainbow_wave", "Effect name for -mode effect")
		duration   = flag.Duration("duration", 10*time.Second, "How long to run")
	)
	flag.Parse()

	if *mode == "list" {
		for _, name := range anim.Names() {
			fmt.Println(name)
		}
		return
	}

	strip, err := hardware.NewSpidevStrip(*device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "led strip init: %v\n", err)
		os.Exit(1)
	}
	matrix := hardware.NewMatrix(strip, *brightness)
	defer matrix.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	switch *mode {
	case "walk":
		err = walk(ctx, matrix)
	case "fill":
		err = fill(ctx, matrix, *colorSpec)
	case "effect":
		err = runEffect(ctx, matrix, *effect)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// walk lights each cell in turn, printing the square it should be under.
func walk(ctx context.Context, m *hardware.Matrix) error {
	for i := 0; i < board.NumCells; i++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		m.Clear()
		m.SetCell(i, hardware.Color{R: 200})
		if err := m.Commit(); err != nil {
			return err
		}
		if p, ok := board.ToPosition(i); ok {
			fmt.Printf("cell %2d -> %s\n", i, p)
		}
		time.Sleep(300 * time.Millisecond)
	}
	return nil
}

func fill(ctx context.Context, m *hardware.Matrix, spec string) error {
	c, err := parseColor(spec)
	if err != nil {
		return err
	}
	for i := 0; i < board.NumCells; i++ {
		m.SetCell(i, c)
	}
	if err := m.Commit(); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func runEffect(ctx context.Context, m *hardware.Matrix, name string) error {
	a := anim.New(m)
	if err := a.Play(name, time.Now()); err != nil {
		return err
	}
	fmt.Printf("Playing %s\n", name)
	for {
		select {
		case <-ctx.Done():
			return a.Stop()
		case <-time.After(20 * time.Millisecond):
		}
		if err := a.StepCurrent(time.Now()); err != nil {
			return err
		}
	}
}

func parseColor(spec string) (hardware.Color, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return hardware.Color{}, fmt.Errorf("color must be R,G,B,W, got %q", spec)
	}
	var vals [4]uint8
	for i, p := range parts {
		var v int
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &v); err != nil || v < 0 || v > 255 {
			return hardware.Color{}, fmt.Errorf("bad channel value %q", p)
		}
		vals[i] = uint8(v)
	}
	return hardware.Color{R: vals[0], G: vals[1], B: vals[2], W: vals[3]}, nil
}
