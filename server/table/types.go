// Package table implements the wagering session manager: registry, admission,
// turn actions, reveals, and settlement over sealed per-player state.
package table

import (
	"time"

	"sealedtable/server/sealed"
)

// Phase is the session lifecycle. Closed is terminal.
type Phase uint8

const (
	Open Phase = iota
	Active
	Closed
)

func (p Phase) String() string {
	switch p {
	case Open:
		return "open"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// GameKind is the closed set of variants. The kind fixes how many sealed
// cards each participant is dealt when the session activates.
type GameKind uint8

const (
	FiveCard GameKind = iota
	ThreeCard
	OneCard

	gameKindCount
)

func (k GameKind) Valid() bool { return k < gameKindCount }

func (k GameKind) HandSize() int {
	switch k {
	case ThreeCard:
		return 3
	case OneCard:
		return 1
	default:
		return 5
	}
}

func (k GameKind) String() string {
	switch k {
	case FiveCard:
		return "five-card"
	case ThreeCard:
		return "three-card"
	case OneCard:
		return "one-card"
	default:
		return "unknown"
	}
}

type ActionKind string

const (
	ActionCall  ActionKind = "call"
	ActionRaise ActionKind = "raise"
	ActionFold  ActionKind = "fold"
	ActionCheck ActionKind = "check"
)

// Action is one appended entry in a participant's action log.
type Action struct {
	Kind   ActionKind `json:"action"`
	Amount uint64     `json:"amount,omitempty"`
}

// Participant binds an identity to its sealed state and action history within
// one session. Records are never deleted once created.
type Participant struct {
	Identity     string
	JoinedAt     int // join ordinal, 0-based
	Wager        sealed.Ref
	Folded       sealed.Ref
	Hand         []sealed.Ref
	Opened       []bool // revealed prefix, plaintext once opened
	Contribution uint64 // tracked total: wager plus raises
	Refunded     bool
	HasFolded    bool
	Actions      []Action
}

// Session is the manager's internal record. External callers get Snapshots.
type Session struct {
	ID             uint64
	Kind           GameKind
	Capacity       int
	MinWager       uint64
	Pot            uint64
	Phase          Phase
	ParticipantIDs []string // join order
	CreatedAt      time.Time

	participants map[string]*Participant
}

// Snapshot is the public view of a session.
type Snapshot struct {
	ID             uint64    `json:"id"`
	Kind           GameKind  `json:"kind"`
	Capacity       int       `json:"capacity"`
	MinWager       uint64    `json:"min_wager"`
	Pot            uint64    `json:"pot"`
	Phase          string    `json:"phase"`
	ParticipantIDs []string  `json:"participants"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Session) snapshot() Snapshot {
	ids := make([]string, len(s.ParticipantIDs))
	copy(ids, s.ParticipantIDs)
	return Snapshot{
		ID:             s.ID,
		Kind:           s.Kind,
		Capacity:       s.Capacity,
		MinWager:       s.MinWager,
		Pot:            s.Pot,
		Phase:          s.Phase.String(),
		ParticipantIDs: ids,
		CreatedAt:      s.CreatedAt,
	}
}
