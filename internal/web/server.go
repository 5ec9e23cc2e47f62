// Package web serves a read-only status page: a JSON API over the journal
// plus a websocket feed of the live reconciliation summary, one frame per
// loop cycle. Spectators only; the board stays the sole input device.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thyrook/squire/internal/reconcile"
	"github.com/thyrook/squire/internal/storage"
)

type client struct {
	conn *websocket.Conn
}

// Server is the HTTP status server
type Server struct {
	addr    string
	log     *zap.Logger
	journal *storage.Journal

	router   *mux.Router
	upgrader websocket.Upgrader
	httpSrv  *http.Server

	clientsLock sync.RWMutex
	clients     map[*client]struct{}

	latestLock sync.RWMutex
	latest     []byte
}

// New creates the status server. journal may be nil when game recording is
// disabled; the game endpoints then return 404.
func New(addr string, journal *storage.Journal, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		addr:    addr,
		log:     log,
		journal: journal,
		router:  mux.NewRouter(),
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Status is read-only; any origin may watch.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	s.router.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.wsHandler)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.statusHandler).Methods(http.MethodGet)
	api.HandleFunc("/games", s.gamesHandler).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", s.gameHandler).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/pgn", s.pgnHandler).Methods(http.MethodGet)

	return s
}

// Handler returns the server's HTTP handler with middleware applied; used by
// tests and by Start.
func (s *Server) Handler() http.Handler {
	return handlers.RecoveryHandler()(handlers.CORS(
		handlers.AllowedMethods([]string{http.MethodGet}),
	)(s.router))
}

// Start begins serving in a background goroutine
func (s *Server) Start() {
	s.httpSrv = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		s.log.Info("status server listening", zap.String("addr", s.addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("status server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the server and closes all websocket clients
func (s *Server) Shutdown(ctx context.Context) error {
	s.clientsLock.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.clients = make(map[*client]struct{})
	s.clientsLock.Unlock()

	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Publish pushes the cycle's summary to every connected client and keeps it
// as the answer for /api/status.
func (s *Server) Publish(sum *reconcile.Summary) {
	data, err := json.Marshal(sum)
	if err != nil {
		s.log.Error("marshal summary", zap.Error(err))
		return
	}

	s.latestLock.Lock()
	s.latest = data
	s.latestLock.Unlock()

	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()
	for c := range s.clients {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.log.Debug("websocket write failed", zap.Error(err))
		}
	}
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.log.Info("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	c := &client{conn: conn}
	s.clientsLock.Lock()
	s.clients[c] = struct{}{}
	s.clientsLock.Unlock()

	// Send the current state immediately so a new client does not wait for
	// the next board event.
	s.latestLock.RLock()
	if s.latest != nil {
		conn.WriteMessage(websocket.TextMessage, s.latest)
	}
	s.latestLock.RUnlock()

	// Clients never send anything meaningful; the read loop only detects
	// disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.clientsLock.Lock()
				delete(s.clients, c)
				s.clientsLock.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	s.latestLock.RLock()
	data := s.latest
	s.latestLock.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.Write([]byte(`{"variant":"","turn":"","paused":false,"needs_choice":false,"game_over":false}`))
		return
	}
	w.Write(data)
}

func (s *Server) gamesHandler(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "game recording disabled", http.StatusNotFound)
		return
	}
	games, err := s.journal.Games()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(games)
}

func (s *Server) gameHandler(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupGame(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) pgnHandler(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupGame(w, r)
	if !ok {
		return
	}
	pgn, err := storage.ExportPGN(rec)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn")
	fmt.Fprint(w, pgn)
}

func (s *Server) lookupGame(w http.ResponseWriter, r *http.Request) (storage.GameRecord, bool) {
	if s.journal == nil {
		http.Error(w, "game recording disabled", http.StatusNotFound)
		return storage.GameRecord{}, false
	}
	id := mux.Vars(r)["id"]
	rec, err := s.journal.Game(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return storage.GameRecord{}, false
	}
	return rec, true
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}
