// Package reconcile owns the sensor-to-game state machine: it turns
// occupancy snapshot deltas into validated moves, compound-move tracking and
// LED/sound feedback. It is the only writer of selection, pending-move,
// violation and mismatch state; everything it asks of the outside world goes
// out as Effects.
package reconcile

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/rules"
)

// Options are the live-toggled gameplay settings the engine consults.
type Options struct {
	// StrictTouchMove forbids putting a picked-up piece back on its own
	// square.
	StrictTouchMove bool

	// Validate enables the idle board-vs-engine mismatch check.
	Validate bool
}

// Engine is the reconciliation state machine. Single-writer: only the
// orchestrator's loop goroutine may call its methods.
type Engine struct {
	rules   rules.Engine
	variant string
	log     *zap.Logger
	opts    Options

	prev   board.Snapshot
	primed bool

	selection     *Selection
	pending       PendingMove
	invalidReturn *board.Position
	mismatches    []board.Position
	choice        *choiceState

	lastMove *rules.Move
	blocking string
	started  bool
	over     bool

	lastFrame   Frame
	framePrimed bool
}

// New builds an engine over the given rules implementation. variant names
// the game for the summary ("chess" or "checkers").
func New(r rules.Engine, variant string, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{rules: r, variant: variant, log: log, opts: opts}
}

// SetOptions applies live settings changes between passes.
func (e *Engine) SetOptions(opts Options) { e.opts = opts }

// Started reports whether gameplay has begun; the idle animation layer runs
// only while this is false.
func (e *Engine) Started() bool { return e.started }

// Active reports whether any gesture or pending state is in flight. The
// orchestrator polls faster while active.
func (e *Engine) Active() bool {
	return e.selection != nil || e.pending.active() || e.invalidReturn != nil ||
		len(e.mismatches) > 0 || e.choice != nil
}

// Reconcile processes one snapshot: diff against the previous one, run all
// removals then all additions through the transition rules, then the idle
// mismatch validation, then rebuild the LED frame. The first snapshot only
// establishes the baseline.
func (e *Engine) Reconcile(snap board.Snapshot, now time.Time) Effects {
	var fx Effects
	if !e.primed {
		e.prev = snap
		e.primed = true
		e.render(&fx, now)
		return fx
	}

	added, removed := board.Diff(e.prev, snap)
	e.prev = snap

	if e.choice != nil {
		// Suspended awaiting the promotion choice; sensor events are
		// ignored until ChoosePromotion resumes us.
		fx.NeedsChoice = true
		e.render(&fx, now)
		return fx
	}

	for _, p := range removed {
		e.handleRemoved(p, &fx)
	}
	for _, p := range added {
		e.handleAdded(p, &fx)
	}

	e.validate(snap, &fx)
	if fx.Message == "" {
		fx.Message = e.blocking
	}
	e.render(&fx, now)
	return fx
}

// handleRemoved applies the removal-event transition rules in priority
// order: pending-compound filter, touch-move re-entry, then pickup.
func (e *Engine) handleRemoved(p board.Position, fx *Effects) {
	if e.pending.active() {
		pd := &e.pending
		switch {
		case pd.Removals[p]:
			delete(pd.Removals, p)
			e.tryComplete(fx)
		case pd.Kind != PendingCaptureSweep && !pd.PickedUp && p == pd.From:
			pd.PickedUp = true
			e.log.Debug("compound pickup", zap.Stringer("square", p))
		default:
			fx.addSound(SoundError)
			fx.Message = e.pendingPrompt()
		}
		return
	}

	if e.invalidReturn != nil {
		if *e.invalidReturn != p {
			return // violation blocks everything but its own square
		}
		e.invalidReturn = nil
		e.log.Debug("touch-move violation cleared", zap.Stringer("square", p))
	}

	if len(e.mismatches) > 0 {
		return // paused; the validation pass tracks corrections
	}

	if e.selection != nil {
		if p == e.selection.Square {
			return // re-lift of the selected piece
		}
		if e.selection.Set.IsCapture(p) {
			return // capture target lifted ahead of the drop
		}
	}

	pc, ok := e.rules.PieceAt(p)
	if !ok || pc.Color != e.rules.Turn() {
		return // empty square or opponent piece: sensor noise policy
	}
	set := e.rules.LegalMoves(p)
	if !set.HasMoves() {
		return // blocked piece, no nagging
	}
	e.selection = &Selection{Square: p, Set: set}
	e.started = true
	e.log.Debug("piece selected",
		zap.Stringer("square", p),
		zap.Int("destinations", len(set.Destinations)))
}

// handleAdded applies the addition-event transition rules: pending filter
// first, then the drop handling for an active selection.
func (e *Engine) handleAdded(p board.Position, fx *Effects) {
	if e.pending.active() {
		pd := &e.pending
		if p == pd.To && pd.PickedUp {
			pd.Dropped = true
			e.tryComplete(fx)
			return
		}
		fx.addSound(SoundError)
		fx.Message = e.pendingPrompt()
		return
	}

	if e.invalidReturn != nil || len(e.mismatches) > 0 {
		return
	}
	if e.selection == nil {
		return // placement with no selection: noise or mismatch repair
	}

	sel := e.selection
	if p == sel.Square {
		if e.opts.StrictTouchMove {
			sq := sel.Square
			e.invalidReturn = &sq
			fx.addSound(SoundError)
			fx.Message = fmt.Sprintf("Touch move: the piece on %s must move", sq)
			return
		}
		e.selection = nil
		return
	}

	e.attemptMove(sel.Square, p, rules.Options{}, fx)
}

// attemptMove runs a drop through the rules engine and sorts the outcome
// into promotion suspension, compound-move creation or finalization.
func (e *Engine) attemptMove(from, to board.Position, opts rules.Options, fx *Effects) {
	before := e.rules.PieceCount()
	mv, err := e.rules.MakeMove(from, to, opts)
	switch {
	case err == rules.ErrNeedsChoice:
		e.choice = &choiceState{from: from, to: to}
		fx.NeedsChoice = true
		fx.Message = "Choose a promotion piece"
		return
	case err != nil:
		fx.addSound(SoundError)
		fx.Message = fmt.Sprintf("Illegal move: %s to %s", from, to)
		return
	}

	e.selection = nil
	e.invalidReturn = nil

	// Capture is inferred from the piece-count delta rather than any
	// engine flag so both games report it the same way. Known limit: a
	// future variant with non-1:1 capture semantics would need more.
	captured := e.rules.PieceCount() < before

	if len(mv.Auxiliary) == 2 {
		e.pending = PendingMove{
			Kind:     PendingCastling,
			From:     mv.Auxiliary[0],
			To:       mv.Auxiliary[1],
			move:     mv,
			captured: captured,
		}
		fx.addSound(SoundMove)
		fx.Message = e.pendingPrompt()
		e.log.Info("castling applied, awaiting rook",
			zap.Stringer("rook_from", mv.Auxiliary[0]),
			zap.Stringer("rook_to", mv.Auxiliary[1]))
		return
	}

	if removals := e.pendingRemovals(mv.Removals); len(removals) > 0 {
		e.pending = PendingMove{
			Kind:         PendingCaptureSweep,
			From:         mv.From,
			To:           mv.To,
			Intermediate: mv.Intermediate,
			Removals:     removals,
			PickedUp:     true,
			Dropped:      true,
			move:         mv,
			captured:     captured,
		}
		fx.addSound(SoundCapture)
		fx.Message = e.pendingPrompt()
		return
	}

	e.finishMove(mv, captured, fx)
}

// finishMove records a physically complete move and raises the follow-up
// effects: sounds, check/game-over status, turn hand-off.
func (e *Engine) finishMove(mv rules.Move, captured bool, fx *Effects) {
	e.lastMove = &mv
	e.blocking = ""
	out := mv
	fx.MoveApplied = &out
	if captured {
		fx.addSound(SoundCapture)
	} else {
		fx.addSound(SoundMove)
	}
	e.log.Info("move completed",
		zap.Stringer("from", mv.From),
		zap.Stringer("to", mv.To),
		zap.Bool("capture", captured))

	if e.rules.GameOver() {
		e.over = true
		fx.GameOver = true
		fx.addSound(SoundGameOver)
		fx.Message = e.rules.Result()
		e.blocking = e.rules.Result()
		return
	}
	if e.rules.InCheck() {
		fx.addSound(SoundCheck)
		fx.Message = "Check!"
	}
	fx.TurnFinished = true
}

// tryComplete finalizes the pending compound move once every expected
// physical touch has happened.
func (e *Engine) tryComplete(fx *Effects) {
	if !e.pending.complete() {
		return
	}
	pd := e.pending
	e.pending = PendingMove{}
	e.log.Info("compound move completed", zap.Stringer("kind", pd.Kind))
	e.finishMove(pd.move, pd.captured, fx)
}

// pendingRemovals builds the set of capture squares still physically
// occupied. Players often sweep jumped pieces off before dropping; those
// squares must not be waited on.
func (e *Engine) pendingRemovals(squares []board.Position) map[board.Position]bool {
	m := make(map[board.Position]bool, len(squares))
	for _, r := range squares {
		if e.primed && !e.prev.Occupied(r) {
			continue
		}
		m[r] = true
	}
	return m
}

// pendingPrompt is the standing instruction while a compound move is open.
func (e *Engine) pendingPrompt() string {
	pd := &e.pending
	switch {
	case len(pd.Removals) > 0 && pd.Dropped:
		return "Remove the captured pieces"
	case !pd.PickedUp:
		if pd.Kind == PendingCastling {
			return fmt.Sprintf("Move the rook: %s to %s", pd.From, pd.To)
		}
		return fmt.Sprintf("Opponent move: %s to %s", pd.From, pd.To)
	default:
		return fmt.Sprintf("Place the piece on %s", pd.To)
	}
}

// validate recomputes the mismatch set. It runs only when nothing is in
// flight so a legitimate in-progress gesture is never misread as a
// mismatch.
func (e *Engine) validate(snap board.Snapshot, fx *Effects) {
	if !e.opts.Validate || e.over {
		return
	}
	if e.selection != nil || e.pending.active() || e.invalidReturn != nil || e.choice != nil {
		return
	}

	expected := rules.ExpectedOccupancy(e.rules)
	var bad []board.Position
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			p := board.Pos(f, r)
			if expected.Occupied(p) != snap.Occupied(p) {
				bad = append(bad, p)
			}
		}
	}

	hadMismatch := len(e.mismatches) > 0
	e.mismatches = bad
	switch {
	case len(bad) > 0 && !hadMismatch:
		e.blocking = "Board mismatch: fix the highlighted squares"
		fx.addSound(SoundError)
		e.log.Warn("board mismatch", zap.Int("squares", len(bad)))
	case len(bad) == 0 && hadMismatch:
		e.blocking = ""
		e.log.Info("board mismatch resolved")
	}
}

// ApplyEngineMove feeds an automated-opponent move into the state machine.
// The logical move is applied immediately; a pending compound move makes
// the human execute it physically through the standard two-touch protocol.
func (e *Engine) ApplyEngineMove(from, to board.Position, promo string) (Effects, error) {
	var fx Effects
	before := e.rules.PieceCount()
	mv, err := e.rules.MakeMove(from, to, rules.Options{Promotion: promo})
	if err != nil {
		return fx, fmt.Errorf("engine move %s%s: %w", from, to, err)
	}

	e.selection = nil
	e.invalidReturn = nil
	captured := e.rules.PieceCount() < before
	removals := e.pendingRemovals(mv.Removals)
	if captured && e.primed && e.prev.Occupied(mv.To) {
		// An ordinary capture: the human must lift the victim off the
		// destination before (or after) moving the attacker there.
		removals[mv.To] = true
	}
	e.pending = PendingMove{
		Kind:         PendingEngineMove,
		From:         mv.From,
		To:           mv.To,
		Intermediate: mv.Intermediate,
		Removals:     removals,
		move:         mv,
		captured:     captured,
	}
	e.started = true
	fx.Message = e.pendingPrompt()
	e.log.Info("opponent move pending",
		zap.Stringer("from", from),
		zap.Stringer("to", to))
	return fx, nil
}

// ChoosePromotion resumes a reconciliation pass suspended on a promotion.
func (e *Engine) ChoosePromotion(piece string, now time.Time) Effects {
	var fx Effects
	if e.choice == nil {
		return fx
	}
	ch := *e.choice
	e.choice = nil
	e.attemptMove(ch.from, ch.to, rules.Options{Promotion: piece}, &fx)
	e.render(&fx, now)
	return fx
}

// Undo takes back the last move. Any pending state is unconditionally
// discarded: reset wins over in-flight compound moves.
func (e *Engine) Undo() bool {
	if !e.rules.Undo() {
		return false
	}
	e.clearTransient()
	e.lastMove = nil
	e.over = false
	e.log.Info("move undone")
	return true
}

// Reset starts a new game and drops every piece of transient state. The
// next snapshot re-baselines the diff so rearranging the board does not
// replay as touch events.
func (e *Engine) Reset() {
	e.rules.Reset()
	e.clearTransient()
	e.lastMove = nil
	e.started = false
	e.over = false
	e.primed = false
	e.log.Info("new game")
}

func (e *Engine) clearTransient() {
	e.selection = nil
	e.pending = PendingMove{}
	e.invalidReturn = nil
	e.mismatches = nil
	e.choice = nil
	e.blocking = ""
}

// Summary snapshots the engine state for the renderer and status server.
func (e *Engine) Summary() Summary {
	s := Summary{
		Variant:     e.variant,
		Turn:        e.rules.Turn().String(),
		Paused:      len(e.mismatches) > 0,
		Message:     e.blocking,
		NeedsChoice: e.choice != nil,
		GameOver:    e.over,
	}
	if e.over {
		s.Result = e.rules.Result()
	}
	if sel := e.selection; sel != nil {
		sq := sel.Square
		s.Selected = &sq
		s.Destinations = append(s.Destinations, sel.Set.Destinations...)
		s.Captures = append(s.Captures, sel.Set.Captures...)
		s.Intermediate = append(s.Intermediate, sel.Set.Intermediate...)
	}
	if e.pending.active() {
		s.Pending = e.pending.Kind.String()
		from, to := e.pending.From, e.pending.To
		s.PendingFrom = &from
		s.PendingTo = &to
	}
	s.Mismatches = append(s.Mismatches, e.mismatches...)
	if e.lastMove != nil {
		from, to := e.lastMove.From, e.lastMove.To
		s.LastFrom = &from
		s.LastTo = &to
	}
	return s
}
