package reconcile

import (
	"github.com/thyrook/squire/internal/board"
	"github.com/thyrook/squire/internal/rules"
)

// Selection is the picked-up piece and where it may go. It exists from the
// moment a movable piece leaves its square until the move completes, the
// piece is put back, or the game resets.
type Selection struct {
	Square board.Position
	Set    rules.MoveSet
}

// PendingKind tags the active compound move, if any.
type PendingKind int

const (
	PendingNone PendingKind = iota

	// PendingCastling waits for the rook leg of an applied castling move.
	PendingCastling

	// PendingEngineMove waits for the human to physically execute the
	// automated opponent's move.
	PendingEngineMove

	// PendingCaptureSweep waits for the jumped pieces of an applied
	// multi-capture to be lifted off the board.
	PendingCaptureSweep
)

func (k PendingKind) String() string {
	switch k {
	case PendingCastling:
		return "castling"
	case PendingEngineMove:
		return "opponent"
	case PendingCaptureSweep:
		return "capture"
	}
	return "none"
}

// PendingMove is the single in-flight compound move. The logical move has
// already been applied to the rules engine; what remains is physical: pick
// up at From, place at To, and vacate every square in Removals. While one
// exists all other touch events are rejected.
type PendingMove struct {
	Kind         PendingKind
	From, To     board.Position
	Intermediate []board.Position
	Removals     map[board.Position]bool
	PickedUp     bool
	Dropped      bool

	// The applied move, finalized once the board physically matches.
	move     rules.Move
	captured bool
}

func (p *PendingMove) active() bool { return p.Kind != PendingNone }

func (p *PendingMove) complete() bool {
	return p.PickedUp && p.Dropped && len(p.Removals) == 0
}

// choiceState suspends reconciliation between a promotion-needing drop and
// the player's piece choice.
type choiceState struct {
	from, to board.Position
}

// Summary is the read-only per-cycle view handed to the renderer and the
// status server. Everything in it is a copy; holders never share engine
// state.
type Summary struct {
	Variant      string           `json:"variant"`
	Turn         string           `json:"turn"`
	Selected     *board.Position  `json:"selected,omitempty"`
	Destinations []board.Position `json:"destinations,omitempty"`
	Captures     []board.Position `json:"captures,omitempty"`
	Intermediate []board.Position `json:"intermediate,omitempty"`
	Pending      string           `json:"pending,omitempty"`
	PendingFrom  *board.Position  `json:"pending_from,omitempty"`
	PendingTo    *board.Position  `json:"pending_to,omitempty"`
	Mismatches   []board.Position `json:"mismatches,omitempty"`
	Paused       bool             `json:"paused"`
	Message      string           `json:"message,omitempty"`
	LastFrom     *board.Position  `json:"last_from,omitempty"`
	LastTo       *board.Position  `json:"last_to,omitempty"`
	NeedsChoice  bool             `json:"needs_choice"`
	GameOver     bool             `json:"game_over"`
	Result       string           `json:"result,omitempty"`
}

// Sound is an audio cue emitted as an effect; playback is the consumer's
// concern.
type Sound int

const (
	SoundMove Sound = iota
	SoundCapture
	SoundError
	SoundCheck
	SoundGameOver
)

func (s Sound) String() string {
	switch s {
	case SoundMove:
		return "move"
	case SoundCapture:
		return "capture"
	case SoundError:
		return "error"
	case SoundCheck:
		return "check"
	case SoundGameOver:
		return "game_over"
	}
	return "unknown"
}

// Effects is everything one reconciliation pass asks the outside world to
// do. A nil Frame means the LED output is unchanged from the previous pass.
type Effects struct {
	Frame        *Frame
	Sounds       []Sound
	Message      string
	MoveApplied  *rules.Move
	TurnFinished bool
	NeedsChoice  bool
	GameOver     bool
}

func (fx *Effects) addSound(s Sound) {
	fx.Sounds = append(fx.Sounds, s)
}
