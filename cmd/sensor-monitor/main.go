// Command sensor-monitor shows the live Hall-sensor occupancy grid. Useful
// when seating magnets or chasing a flaky shift-register connection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/hardware"
)

func main() {
	var (
		interval = flag.Duration("interval", 250*time.Millisecond, "Poll interval")
		raw      = flag.Bool("raw", false, "Also print raw sensor indices")
	)
	flag.Parse()

	pins := hardware.NewSysfsPins()
	sensor, err := hardware.NewSensorReader(pins,
		hardware.PinSensorData, hardware.PinSensorClock, hardware.PinSensorLatch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sensor init: %v\n", err)
		os.Exit(1)
	}
	defer sensor.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching sensors. Ctrl+C to stop.")
	var prev board.Snapshot
	first := true

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case <-time.After(*interval):
		}

		snap := sensor.ReadAll()
		if !first && snap == prev {
			continue
		}

		fmt.Print("\033[2J\033[H")
		fmt.Printf("Occupied: %d\n\n", snap.Count())
		for rank := 7; rank >= 0; rank-- {
			fmt.Printf("  %d  ", rank+1)
			for file := 0; file < 8; file++ {
				if snap.Occupied(board.Pos(file, rank)) {
					fmt.Print("● ")
				} else {
					fmt.Print("· ")
				}
			}
			fmt.Println()
		}
		fmt.Println("     A B C D E F G H")

		if !first {
			added, removed := board.Diff(prev, snap)
			for _, p := range added {
				fmt.Printf("  + %s\n", p)
			}
			for _, p := range removed {
				fmt.Printf("  - %s\n", p)
			}
		}
		if *raw {
			fmt.Print("\nraw:")
			for i := 0; i < board.NumCells; i++ {
				if snap[i] {
					fmt.Printf(" %d", i)
				}
			}
			fmt.Println()
		}

		prev = snap
		first = false
	}
}
