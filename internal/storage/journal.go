// Package storage persists finished games in a BoltDB journal so they can
// be listed and replayed after the fact.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"go.etcd.io/bbolt"
)

const (
	// GamesBucket holds one record per finished game, keyed by sequence
	// number.
	GamesBucket = "games"

	// JournalMetaBucket stores journal metadata
	JournalMetaBucket = "journal_meta"

	// GameCountKey tracks the number of stored games
	GameCountKey = "count"
)

// MoveRecord is one applied move as the reconciliation engine reported it.
type MoveRecord struct {
	From         string   `json:"from"`
	To           string   `json:"to"`
	Auxiliary    []string `json:"auxiliary,omitempty"`
	Removals     []string `json:"removals,omitempty"`
	Intermediate []string `json:"intermediate,omitempty"`
	Capture      bool     `json:"capture"`
	Promotion    string   `json:"promotion,omitempty"`
	Engine       bool     `json:"engine"` // played by the automated opponent
	Timestamp    int64    `json:"timestamp"`
}

// GameRecord is one finished game.
type GameRecord struct {
	ID         string       `json:"id"`
	Variant    string       `json:"variant"`
	StartedAt  int64        `json:"started_at"`
	FinishedAt int64        `json:"finished_at"`
	Result     string       `json:"result"`
	Moves      []MoveRecord `json:"moves"`
}

// Journal manages the game database plus the in-progress game being
// accumulated.
type Journal struct {
	db       *bbolt.DB
	dbPath   string
	count    uint64
	current  *GameRecord
	isClosed bool
}

// NewJournal opens (or creates) the journal database
func NewJournal(dbPath string) (*Journal, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(GamesBucket)); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(JournalMetaBucket)); err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	j := &Journal{db: db, dbPath: dbPath}
	if j.count, err = j.CountGames(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Begin starts accumulating a new game. An unfinished previous game is
// dropped; only completed games are journaled.
func (j *Journal) Begin(variant string) {
	j.current = &GameRecord{
		ID:        uuid.New().String(),
		Variant:   variant,
		StartedAt: time.Now().Unix(),
	}
}

// AddMove appends a move to the in-progress game. A no-op when no game was
// begun.
func (j *Journal) AddMove(mr MoveRecord) {
	if j.current == nil {
		return
	}
	if mr.Timestamp == 0 {
		mr.Timestamp = time.Now().Unix()
	}
	j.current.Moves = append(j.current.Moves, mr)
}

// Finish persists the in-progress game with its result.
func (j *Journal) Finish(result string) error {
	if j.isClosed {
		return fmt.Errorf("journal is closed")
	}
	if j.current == nil {
		return fmt.Errorf("no game in progress")
	}

	rec := j.current
	j.current = nil
	rec.FinishedAt = time.Now().Unix()
	rec.Result = result

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(GamesBucket))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, j.count)
		if err := b.Put(key, data); err != nil {
			return fmt.Errorf("store game: %w", err)
		}
		j.count++

		meta := tx.Bucket([]byte(JournalMetaBucket))
		countBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(countBytes, j.count)
		return meta.Put([]byte(GameCountKey), countBytes)
	})
}

// CountGames returns the number of stored games
func (j *Journal) CountGames() (uint64, error) {
	var count uint64
	err := j.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(JournalMetaBucket))
		if meta == nil {
			return nil
		}
		if v := meta.Get([]byte(GameCountKey)); v != nil {
			count = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	return count, err
}

// Games returns all stored games in insertion order.
func (j *Journal) Games() ([]GameRecord, error) {
	var games []GameRecord
	err := j.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(GamesBucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var rec GameRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt game record: %w", err)
			}
			games = append(games, rec)
			return nil
		})
	})
	return games, err
}

// Game looks a stored game up by its ID.
func (j *Journal) Game(id string) (GameRecord, error) {
	games, err := j.Games()
	if err != nil {
		return GameRecord{}, err
	}
	for _, g := range games {
		if g.ID == id {
			return g, nil
		}
	}
	return GameRecord{}, fmt.Errorf("game %s not found", id)
}

// Close closes the journal database
func (j *Journal) Close() error {
	if j.isClosed {
		return nil
	}
	j.isClosed = true
	return j.db.Close()
}

// ExportPGN renders a stored chess game as PGN. Checkers games have no PGN
// form and return an error.
func ExportPGN(rec GameRecord) (string, error) {
	if rec.Variant != "chess" {
		return "", fmt.Errorf("pgn export: %s games are not supported", rec.Variant)
	}

	game := chess.NewGame()
	for i, mr := range rec.Moves {
		uci := strings.ToLower(mr.From + mr.To + mr.Promotion)
		mv, err := chess.UCINotation{}.Decode(game.Position(), uci)
		if err != nil {
			return "", fmt.Errorf("move %d (%s): %w", i+1, uci, err)
		}
		if err := game.Move(mv); err != nil {
			return "", fmt.Errorf("move %d (%s): %w", i+1, uci, err)
		}
	}

	game.AddTagPair("Event", "Squire board game")
	game.AddTagPair("Site", rec.ID)
	game.AddTagPair("Date", time.Unix(rec.StartedAt, 0).Format("2006.01.02"))
	if rec.Result != "" {
		game.AddTagPair("Termination", rec.Result)
	}
	return game.String(), nil
}
