package opponent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thyrook/squire/internal/rules"
)

// UCIConfig tunes the chess engine subprocess.
type UCIConfig struct {
	// Path to the engine binary; empty means probe the usual locations
	// and PATH.
	Path string

	SkillLevel int // 0-20
	Threads    int // 1-4
	Depth      int // search depth when ThinkTime is zero

	// ThinkTime, when set, is handed to the engine as remaining clock
	// time; it may move sooner when it is sure.
	ThinkTime time.Duration
}

// defaultPaths are probed in order when no path is configured.
var defaultPaths = []string{"/usr/games/stockfish", "/usr/bin/stockfish", "stockfish"}

// UCIEngine talks the UCI line protocol to a chess engine subprocess. A
// launch failure is returned from New so the caller can degrade to
// human-vs-human instead of aborting.
type UCIEngine struct {
	cfg   UCIConfig
	game  *rules.ChessEngine
	log   *zap.Logger
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
}

// NewUCIEngine launches and initializes the engine for the given game.
func NewUCIEngine(cfg UCIConfig, game *rules.ChessEngine, log *zap.Logger) (*UCIEngine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	path := cfg.Path
	if path == "" {
		path = probeEngine()
	}

	cmd := exec.Command(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("uci stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("uci stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", path, err)
	}

	e := &UCIEngine{
		cfg:   cfg,
		game:  game,
		log:   log,
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 64),
	}
	go e.readLines(stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.handshake(ctx); err != nil {
		e.Close()
		return nil, err
	}
	log.Info("uci engine ready",
		zap.String("path", path),
		zap.Int("skill", cfg.SkillLevel),
		zap.Int("threads", cfg.Threads))
	return e, nil
}

func probeEngine() string {
	for _, p := range defaultPaths[:2] {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return defaultPaths[2]
}

func (e *UCIEngine) readLines(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		e.lines <- strings.TrimSpace(sc.Text())
	}
	close(e.lines)
}

func (e *UCIEngine) send(cmd string) error {
	if _, err := io.WriteString(e.stdin, cmd+"\n"); err != nil {
		return fmt.Errorf("uci send %q: %w", cmd, err)
	}
	return nil
}

// waitFor discards lines until one contains want.
func (e *UCIEngine) waitFor(ctx context.Context, want string) (string, error) {
	for {
		select {
		case line, open := <-e.lines:
			if !open {
				return "", fmt.Errorf("uci: engine closed waiting for %q", want)
			}
			if strings.Contains(line, want) {
				return line, nil
			}
		case <-ctx.Done():
			return "", fmt.Errorf("uci: waiting for %q: %w", want, ctx.Err())
		}
	}
}

func (e *UCIEngine) handshake(ctx context.Context) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if _, err := e.waitFor(ctx, "uciok"); err != nil {
		return err
	}
	if err := e.send(fmt.Sprintf("setoption name Skill Level value %d", e.cfg.SkillLevel)); err != nil {
		return err
	}
	if err := e.send(fmt.Sprintf("setoption name Threads value %d", e.cfg.Threads)); err != nil {
		return err
	}
	return e.NewGame()
}

// NewGame resets the engine's internal game state.
func (e *UCIEngine) NewGame() error {
	if err := e.send("ucinewgame"); err != nil {
		return err
	}
	if err := e.send("isready"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := e.waitFor(ctx, "readyok")
	return err
}

// BestMove sends the current position and waits for the engine's choice.
func (e *UCIEngine) BestMove(ctx context.Context) (Move, error) {
	if err := e.send("position fen " + e.game.FEN()); err != nil {
		return Move{}, err
	}

	var goCmd string
	if e.cfg.ThinkTime > 0 {
		ms := e.cfg.ThinkTime.Milliseconds()
		goCmd = fmt.Sprintf("go wtime %d btime %d winc 0 binc 0", ms, ms)
	} else {
		goCmd = fmt.Sprintf("go depth %d", e.cfg.Depth)
	}
	if err := e.send(goCmd); err != nil {
		return Move{}, err
	}

	line, err := e.waitFor(ctx, "bestmove")
	if err != nil {
		return Move{}, err
	}
	return parseBestMove(line)
}

// parseBestMove decodes a "bestmove e2e4 ponder e7e5" line.
func parseBestMove(line string) (Move, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[1] == "(none)" {
		return Move{}, ErrNoMove
	}
	from, to, promo, ok := rules.ParseUCI(fields[1])
	if !ok {
		return Move{}, fmt.Errorf("uci: bad bestmove %q", fields[1])
	}
	return Move{From: from, To: to, Promotion: promo}, nil
}

// Close quits the engine, killing it if it will not exit.
func (e *UCIEngine) Close() error {
	_ = e.send("quit")

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		_ = e.cmd.Process.Kill()
		return <-done
	}
}
