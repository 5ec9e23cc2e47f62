// Command replay-games lists and exports the journaled games.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/thyrook/squire/internal/iface"
	"github.com/thyrook/squire/internal/storage"
)

func main() {
	var (
		dbPath = flag.String("db", "data/games.db", "Path to the game journal")
		export = flag.String("export", "", "Export the given game ID as PGN")
		show   = flag.String("show", "", "Print the move list of the given game ID")
	)
	flag.Parse()

	journal, err := storage.NewJournal(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open journal: %v\n", err)
		os.Exit(1)
	}
	defer journal.Close()

	console := iface.NewConsole(false)

	switch {
	case *export != "":
		rec, err := journal.Game(*export)
		if err != nil {
			fatal(err)
		}
		pgn, err := storage.ExportPGN(rec)
		if err != nil {
			fatal(err)
		}
		fmt.Print(pgn)

	case *show != "":
		rec, err := journal.Game(*show)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s game %s (%s)\n\n", rec.Variant, rec.ID, rec.Result)
		for i, mv := range rec.Moves {
			line := fmt.Sprintf("%3d. %s-%s", i+1, mv.From, mv.To)
			if mv.Capture {
				line += " x"
			}
			if mv.Promotion != "" {
				line += "=" + mv.Promotion
			}
			if mv.Engine {
				line += "  (engine)"
			}
			fmt.Println(line)
		}

	default:
		games, err := journal.Games()
		if err != nil {
			fatal(err)
		}
		console.PrintGameTable(games)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
