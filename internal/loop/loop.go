// Package loop is the turn orchestrator: it owns the poll cycle that ties
// the sensors, the reconciliation engine, the LED matrix, the idle
// animations, the automated opponent, the game journal and the status
// surfaces together. Everything stateful it touches is single-goroutine;
// only the opponent search and the promotion prompt run concurrently, each
// behind a handle the loop polls.
package loop

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/thyrook/squire/internal/anim"
	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/config"
	"github.com/thyrook/squire/internal/hardware"
	"github.com/thyrook/squire/internal/iface"
	"github.com/thyrook/squire/internal/iface/logger"
	"github.com/thyrook/squire/internal/opponent"
	"github.com/thyrook/squire/internal/reconcile"
	"github.com/thyrook/squire/internal/rules"
	"github.com/thyrook/squire/internal/storage"
	"github.com/thyrook/squire/internal/web"
)

const (
	// activeInterval is the poll rate while a gesture or compound move is
	// in flight; idleInterval while the board is quiet.
	activeInterval = 33 * time.Millisecond
	idleInterval   = 100 * time.Millisecond

	// configCheckInterval paces the live settings re-read.
	configCheckInterval = 2 * time.Second
)

// Deps are the orchestrator's collaborators. Opponent, Journal, Web and
// Console are optional; nil disables the corresponding feature.
type Deps struct {
	Sensor hardware.Sensor
	Matrix *hardware.Matrix
	Rules  rules.Engine
	Rec    *reconcile.Engine
	Anim   *anim.Animator

	Opponent    opponent.Player
	EngineColor rules.Color

	Journal *storage.Journal
	Web     *web.Server
	Console *iface.Console

	Config     *config.Config
	ConfigPath string
	Log        *zap.Logger
}

// Orchestrator runs the main loop.
type Orchestrator struct {
	d   Deps
	log *zap.Logger

	search       *opponent.Pending
	promo        chan string // outstanding promotion prompt, nil when none
	awaitEngine  bool        // next completed move was played by the opponent
	gestureStart time.Time
	lastMessage  string
	lastConfig   time.Time
	configMtime  time.Time
	moves        int
	gameStart    time.Time
}

// New builds an orchestrator. Deps.Rec, Sensor and Matrix are required.
func New(d Deps) *Orchestrator {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Orchestrator{d: d, log: d.Log}
}

// Run polls until the context is cancelled. It returns nil on graceful
// shutdown; hardware failures during the loop are logged, not fatal, since
// a transient SPI error should not kill a game in progress.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.d.Journal != nil {
		o.d.Journal.Begin(o.variant())
	}
	start := time.Now()
	o.gameStart = start

	for {
		select {
		case <-ctx.Done():
			o.shutdown(start)
			return nil
		default:
		}

		now := time.Now()
		o.cycle(ctx, now)

		interval := idleInterval
		if o.d.Rec.Active() {
			interval = activeInterval
		}
		select {
		case <-ctx.Done():
			o.shutdown(start)
			return nil
		case <-time.After(interval):
		}
	}
}

// cycle is one pass: poll, reconcile, apply effects, advance the opponent.
func (o *Orchestrator) cycle(ctx context.Context, now time.Time) {
	wasActive := o.d.Rec.Active()

	snap := o.d.Sensor.ReadAll()
	fx := o.d.Rec.Reconcile(snap, now)

	if !wasActive && o.d.Rec.Active() {
		o.gestureStart = now
	}

	// Idle animations own the LEDs until the first touch of the game.
	if o.d.Anim != nil {
		if o.d.Rec.Started() {
			o.d.Anim.Stop()
		} else {
			if err := o.d.Anim.Step(now); err != nil {
				o.log.Warn("animation frame failed", zap.Error(err))
			}
			o.publish(&fx)
			return
		}
	}

	o.applyEffects(ctx, snap, &fx, now)

	if fx.NeedsChoice {
		o.askPromotion()
	}
	o.pollPromotion(ctx, snap, now)
	o.pollSearch()
	o.maybeReloadConfig(now)
}

// askPromotion starts the promotion prompt on its own goroutine. The loop
// keeps polling sensors and publishing while the player decides; the
// reconciliation engine stays suspended until the answer arrives.
func (o *Orchestrator) askPromotion() {
	if o.d.Console == nil || o.promo != nil {
		return
	}
	ch := make(chan string, 1)
	o.promo = ch
	go func() {
		ch <- o.d.Console.PromptPromotion()
	}()
}

// pollPromotion checks the outstanding prompt without blocking and resumes
// the suspended move when the choice lands.
func (o *Orchestrator) pollPromotion(ctx context.Context, snap board.Snapshot, now time.Time) {
	if o.promo == nil {
		return
	}
	select {
	case piece := <-o.promo:
		o.promo = nil
		fx := o.d.Rec.ChoosePromotion(piece, time.Now())
		o.applyEffects(ctx, snap, &fx, now)
	default:
	}
}

// applyEffects pushes one Effects batch out to the matrix, console, journal
// and opponent scheduling.
func (o *Orchestrator) applyEffects(ctx context.Context, snap board.Snapshot, fx *reconcile.Effects, now time.Time) {
	if fx.Frame != nil {
		for i, c := range fx.Frame {
			o.d.Matrix.SetCell(i, c)
		}
		if err := o.d.Matrix.Commit(); err != nil {
			o.log.Warn("led commit failed", zap.Error(err))
		}
	}

	if o.d.Console != nil {
		for _, s := range fx.Sounds {
			o.d.Console.PrintSound(s)
		}
		if fx.Message != "" && fx.Message != o.lastMessage {
			o.d.Console.PrintMessage(fx.Message)
		}
		if fx.Frame != nil {
			sum := o.d.Rec.Summary()
			o.d.Console.RenderBoard(snap, &sum)
		}
	}

	if fx.MoveApplied != nil {
		o.recordMove(fx.MoveApplied, now)
	}

	if fx.GameOver {
		o.finishGame()
	} else if fx.TurnFinished {
		o.scheduleOpponent(ctx)
	}

	o.publish(fx)
	o.lastMessage = fx.Message
}

func (o *Orchestrator) recordMove(mv *rules.Move, now time.Time) {
	o.moves++

	latency := 0.0
	if !o.gestureStart.IsZero() {
		latency = float64(now.Sub(o.gestureStart).Milliseconds())
		o.gestureStart = time.Time{}
	}

	if o.d.Journal != nil {
		rec := storage.MoveRecord{
			From:      mv.From.String(),
			To:        mv.To.String(),
			Capture:   mv.Capture,
			Promotion: mv.Promotion,
			Engine:    o.awaitEngine,
			Timestamp: now.Unix(),
		}
		for _, p := range mv.Auxiliary {
			rec.Auxiliary = append(rec.Auxiliary, p.String())
		}
		for _, p := range mv.Removals {
			rec.Removals = append(rec.Removals, p.String())
		}
		for _, p := range mv.Intermediate {
			rec.Intermediate = append(rec.Intermediate, p.String())
		}
		o.d.Journal.AddMove(rec)
	}

	compound := ""
	switch {
	case len(mv.Auxiliary) > 0:
		compound = "castling"
	case len(mv.Removals) > 0:
		compound = "capture"
	}
	logger.LogMove(logger.MoveMetrics{
		From:      mv.From.String(),
		To:        mv.To.String(),
		Capture:   mv.Capture,
		Compound:  compound,
		ByEngine:  o.awaitEngine,
		LatencyMs: latency,
	})

	o.awaitEngine = false
}

func (o *Orchestrator) finishGame() {
	if o.search != nil {
		o.search.Cancel()
		o.search = nil
	}
	sum := o.d.Rec.Summary()
	if o.d.Journal != nil {
		if err := o.d.Journal.Finish(sum.Result); err != nil {
			o.log.Error("journal finish failed", zap.Error(err))
		}
	}
	logger.LogGameSession(logger.GameMetrics{
		Variant:      sum.Variant,
		MovesPlayed:  o.moves,
		GameDuration: time.Since(o.gameStart).Seconds(),
		Result:       sum.Result,
	})
	o.log.Info("game over",
		zap.String("result", sum.Result),
		zap.Int("moves", o.moves))
}

// scheduleOpponent kicks off a search when it is the automated side's turn.
func (o *Orchestrator) scheduleOpponent(ctx context.Context) {
	if o.d.Opponent == nil || o.search != nil {
		return
	}
	if o.d.Rules.Turn() != o.d.EngineColor {
		return
	}
	o.log.Debug("opponent thinking")
	o.search = opponent.Compute(ctx, o.d.Opponent)
}

// pollSearch checks the in-flight opponent search without blocking and
// feeds a finished move into the reconciliation engine.
func (o *Orchestrator) pollSearch() {
	if o.search == nil {
		return
	}
	mv, ok, err := o.search.Poll()
	if !ok {
		return
	}
	o.search = nil
	if err != nil {
		o.log.Error("opponent search failed", zap.Error(err))
		return
	}

	fx, err := o.d.Rec.ApplyEngineMove(mv.From, mv.To, mv.Promotion)
	if err != nil {
		o.log.Error("opponent move rejected", zap.Error(err))
		return
	}
	o.awaitEngine = true

	if o.d.Console != nil && fx.Message != "" {
		o.d.Console.PrintMessage(fx.Message)
	}
	o.lastMessage = fx.Message
	o.publishNow()
}

// publish pushes the cycle summary to the status server when anything
// user-visible changed.
func (o *Orchestrator) publish(fx *reconcile.Effects) {
	if o.d.Web == nil {
		return
	}
	if fx.Frame == nil && fx.MoveApplied == nil && fx.Message == o.lastMessage && !fx.GameOver {
		return
	}
	o.publishNow()
}

func (o *Orchestrator) publishNow() {
	if o.d.Web == nil {
		return
	}
	sum := o.d.Rec.Summary()
	o.d.Web.Publish(&sum)
}

// maybeReloadConfig re-reads the settings file when its mtime changes and
// applies the live-tunable subset.
func (o *Orchestrator) maybeReloadConfig(now time.Time) {
	if o.d.ConfigPath == "" || now.Sub(o.lastConfig) < configCheckInterval {
		return
	}
	o.lastConfig = now

	info, err := os.Stat(o.d.ConfigPath)
	if err != nil {
		return
	}
	if !info.ModTime().After(o.configMtime) {
		return
	}
	o.configMtime = info.ModTime()

	cfg, err := config.Load(o.d.ConfigPath)
	if err != nil {
		o.log.Warn("settings reload failed", zap.Error(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		o.log.Warn("settings reload rejected", zap.Error(err))
		return
	}

	o.d.Config = cfg
	o.d.Rec.SetOptions(reconcile.Options{
		StrictTouchMove: cfg.Gameplay.StrictTouchMove,
		Validate:        cfg.Gameplay.ValidateBoardState,
	})
	o.d.Matrix.SetBrightnessPercent(cfg.EffectiveBrightness())
	o.log.Info("settings reloaded",
		zap.Int("brightness", cfg.EffectiveBrightness()),
		zap.Bool("strict_touch_move", cfg.Gameplay.StrictTouchMove))
}

func (o *Orchestrator) shutdown(start time.Time) {
	if o.search != nil {
		o.search.Cancel()
		o.search = nil
	}
	if o.d.Anim != nil {
		o.d.Anim.Stop()
	}

	sum := o.d.Rec.Summary()
	o.log.Info("session ended",
		zap.String("variant", sum.Variant),
		zap.Int("moves", o.moves),
		zap.Duration("duration", time.Since(start)))
}

func (o *Orchestrator) variant() string {
	return o.d.Rec.Summary().Variant
}
