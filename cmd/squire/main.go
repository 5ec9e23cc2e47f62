// Command squire runs the board controller: Hall sensors in, game rules in
// the middle, RGBW LEDs out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thyrook/squire/internal/anim"
	"github.com/thyrook/squire/internal/config"
	"github.com/thyrook/squire/internal/hardware"
	"github.com/thyrook/squire/internal/iface"
	"github.com/thyrook/squire/internal/iface/logger"
	"github.com/thyrook/squire/internal/loop"
	"github.com/thyrook/squire/internal/opponent"
	"github.com/thyrook/squire/internal/reconcile"
	"github.com/thyrook/squire/internal/rules"
	"github.com/thyrook/squire/internal/storage"
	"github.com/thyrook/squire/internal/web"
)

func main() {
	var (
		configPath = flag.String("config", "config.json", "Path to configuration file")
		variant    = flag.String("variant", "", "Game variant: chess or checkers (overrides config)")
		simulate   = flag.Bool("simulate", false, "Run without hardware (desk mode)")
		vsComputer = flag.Bool("vs-computer", false, "Play against the computer (overrides config)")
		webAddr    = flag.String("web", "", "Status server address, e.g. :8080 (overrides config)")
		quiet      = flag.Bool("quiet", false, "Suppress console output")
	)
	flag.Parse()

	console := iface.NewConsole(*quiet)
	console.PrintBanner()

	cfg := config.LoadOrDefault(*configPath)
	if *variant != "" {
		cfg.Gameplay.Variant = *variant
	}
	if *vsComputer {
		cfg.Gameplay.PlayVsComputer = true
	}
	if *simulate {
		cfg.Hardware.Simulate = true
	}
	if *webAddr != "" {
		cfg.Debug.WebAddr = *webAddr
	}
	if err := cfg.Validate(); err != nil {
		console.PrintError(fmt.Errorf("invalid configuration: %w", err))
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		console.PrintError(err)
		os.Exit(1)
	}

	if err := logger.Setup(logger.Level(cfg.Debug.LogLevel), cfg.Debug.LogPath); err != nil {
		console.PrintError(err)
		os.Exit(1)
	}
	zlog := newZapLogger(cfg.Debug.LogLevel)
	defer zlog.Sync()

	// Rules engine for the chosen variant.
	var game rules.Engine
	var chessGame *rules.ChessEngine
	var checkersGame *rules.CheckersEngine
	switch cfg.Gameplay.Variant {
	case "checkers":
		checkersGame = rules.NewCheckersEngine()
		game = checkersGame
	default:
		chessGame = rules.NewChessEngine()
		game = chessGame
	}

	// Hardware, or the desk simulator. A hardware failure here is fatal:
	// the controller is useless without sensors and LEDs.
	sensor, strip, err := openHardware(cfg, game)
	if err != nil {
		console.PrintError(err)
		os.Exit(1)
	}
	defer sensor.Close()

	matrix := hardware.NewMatrix(strip, cfg.EffectiveBrightness())
	defer matrix.Close()

	rec := reconcile.New(game, cfg.Gameplay.Variant, zlog, reconcile.Options{
		StrictTouchMove: cfg.Gameplay.StrictTouchMove,
		Validate:        cfg.Gameplay.ValidateBoardState,
	})

	// Automated opponent. Unlike the hardware, a missing engine degrades
	// to human-vs-human.
	var player opponent.Player
	if cfg.Gameplay.PlayVsComputer {
		player = openOpponent(cfg, chessGame, checkersGame, zlog, console)
	}
	if player != nil {
		defer player.Close()
	}

	var journal *storage.Journal
	if cfg.Debug.JournalPath != "" {
		journal, err = storage.NewJournal(cfg.Debug.JournalPath)
		if err != nil {
			console.PrintStatus(fmt.Sprintf("Game journal unavailable: %v", err), "warning")
		} else {
			defer journal.Close()
		}
	}

	var status *web.Server
	if cfg.Debug.WebAddr != "" {
		status = web.New(cfg.Debug.WebAddr, journal, zlog)
		status.Start()
		console.PrintStatus(fmt.Sprintf("Status page on %s", cfg.Debug.WebAddr), "info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console.PrintStatus(fmt.Sprintf("Playing %s. Touch a piece to begin.", cfg.Gameplay.Variant), "success")

	orch := loop.New(loop.Deps{
		Sensor:      sensor,
		Matrix:      matrix,
		Rules:       game,
		Rec:         rec,
		Anim:        anim.New(matrix),
		Opponent:    player,
		EngineColor: rules.Black,
		Journal:     journal,
		Web:         status,
		Console:     console,
		Config:      cfg,
		ConfigPath:  *configPath,
		Log:         zlog,
	})
	if err := orch.Run(ctx); err != nil {
		console.PrintError(err)
		os.Exit(1)
	}

	if status != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		status.Shutdown(shutdownCtx)
		cancel()
	}
	console.PrintStatus("Goodbye.", "info")
}

// openHardware returns the sensor and LED strip, real or simulated. In desk
// mode the simulated board starts at the variant's initial position so the
// controller comes up clean.
func openHardware(cfg *config.Config, game rules.Engine) (hardware.Sensor, hardware.Strip, error) {
	if cfg.Hardware.Simulate {
		return hardware.NewSimSensor(rules.ExpectedOccupancy(game)), &hardware.FakeStrip{}, nil
	}

	pins := hardware.NewSysfsPins()
	sensor, err := hardware.NewSensorReader(pins,
		hardware.PinSensorData, hardware.PinSensorClock, hardware.PinSensorLatch)
	if err != nil {
		return nil, nil, fmt.Errorf("sensor init: %w", err)
	}

	strip, err := hardware.NewSpidevStrip(cfg.Hardware.SPIDevice)
	if err != nil {
		sensor.Close()
		return nil, nil, fmt.Errorf("led strip init: %w", err)
	}
	return sensor, strip, nil
}

// openOpponent builds the automated player for the configured variant,
// returning nil (human-vs-human) when the chess engine cannot start.
func openOpponent(cfg *config.Config, chessGame *rules.ChessEngine, checkersGame *rules.CheckersEngine, zlog *zap.Logger, console *iface.Console) opponent.Player {
	if checkersGame != nil {
		return opponent.NewCheckersAI(checkersGame, cfg.Gameplay.CheckersDifficulty, zlog)
	}

	uci, err := opponent.NewUCIEngine(opponent.UCIConfig{
		Path:       cfg.Gameplay.EnginePath,
		SkillLevel: cfg.Gameplay.SkillLevel,
		Threads:    cfg.Gameplay.Threads,
		Depth:      cfg.Gameplay.Depth,
		ThinkTime:  time.Duration(cfg.Gameplay.ThinkTimeMillis) * time.Millisecond,
	}, chessGame, zlog)
	if err != nil {
		console.PrintStatus(fmt.Sprintf("Chess engine unavailable (%v); playing human vs human", err), "warning")
		return nil
	}
	return uci
}

// newZapLogger builds the structured logger used by the internals. Console
// encoding to stderr; the slog layer handles the log file.
func newZapLogger(level string) *zap.Logger {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		lvl,
	)
	return zap.New(core)
}
