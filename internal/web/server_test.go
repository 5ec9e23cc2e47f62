package web

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thyrook/squire/internal/reconcile"
	"github.com/thyrook/squire/internal/storage"
)

func testServer(t *testing.T) (*Server, *httptest.Server, *storage.Journal) {
	t.Helper()
	j, err := storage.NewJournal(filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })

	s := New(":0", j, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts, j
}

func TestStatusEndpoint(t *testing.T) {
	s, ts, _ := testServer(t)

	// Before any publish the endpoint serves an empty summary.
	resp, err := ts.Client().Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var empty reconcile.Summary
	if err := json.NewDecoder(resp.Body).Decode(&empty); err != nil {
		t.Fatalf("decode empty status: %v", err)
	}

	s.Publish(&reconcile.Summary{Variant: "chess", Turn: "white"})

	resp2, err := ts.Client().Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var sum reconcile.Summary
	if err := json.NewDecoder(resp2.Body).Decode(&sum); err != nil {
		t.Fatal(err)
	}
	if sum.Variant != "chess" || sum.Turn != "white" {
		t.Errorf("unexpected status: %+v", sum)
	}
}

func TestGamesEndpoints(t *testing.T) {
	_, ts, j := testServer(t)

	j.Begin("chess")
	j.AddMove(storage.MoveRecord{From: "E2", To: "E4"})
	if err := j.Finish("Draw"); err != nil {
		t.Fatal(err)
	}

	resp, err := ts.Client().Get(ts.URL + "/api/games")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var games []storage.GameRecord
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		t.Fatal(err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}

	resp2, err := ts.Client().Get(ts.URL + "/api/games/" + games[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != 200 {
		t.Errorf("game lookup returned %d", resp2.StatusCode)
	}

	resp3, err := ts.Client().Get(ts.URL + "/api/games/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp3.Body.Close()
	if resp3.StatusCode != 404 {
		t.Errorf("unknown game should 404, got %d", resp3.StatusCode)
	}

	resp4, err := ts.Client().Get(ts.URL + "/api/games/" + games[0].ID + "/pgn")
	if err != nil {
		t.Fatal(err)
	}
	defer resp4.Body.Close()
	if resp4.StatusCode != 200 {
		t.Errorf("pgn export returned %d", resp4.StatusCode)
	}
}

func TestWebsocketReceivesPublishes(t *testing.T) {
	s, ts, _ := testServer(t)

	// Seed a summary so the client gets state on connect.
	s.Publish(&reconcile.Summary{Variant: "checkers", Turn: "white"})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read initial state: %v", err)
	}
	var sum reconcile.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Variant != "checkers" {
		t.Errorf("initial state variant = %q", sum.Variant)
	}

	s.Publish(&reconcile.Summary{Variant: "checkers", Turn: "black"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, data, err = conn.ReadMessage(); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Turn != "black" {
		t.Errorf("broadcast turn = %q, want black", sum.Turn)
	}
}

func TestIndexServesPage(t *testing.T) {
	_, ts, _ := testServer(t)
	resp, err := ts.Client().Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("index returned %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
}
