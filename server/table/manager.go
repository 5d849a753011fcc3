package table

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	errs "sealedtable/server/errors"
	"sealedtable/server/escrow"
	"sealedtable/server/sealed"
)

const (
	// Subject is the capability subject every sealed value is compute-owned by.
	Subject = "session-manager"

	MinCapacity = 2
	MaxCapacity = 8

	// WagerFloor is the global minimum a session's MinWager must meet.
	WagerFloor = 10

	// MaxHandSize bounds reveal payloads across all variants.
	MaxHandSize = 5
)

// Refund is one payout line in a settlement record.
type Refund struct {
	Identity string
	Amount   uint64
}

// Recorder receives audit events. Implementations must not block the caller
// for long; recording failures are the implementation's to log.
type Recorder interface {
	SessionCreated(s Snapshot)
	ParticipantJoined(sessionID uint64, identity string, joinedAt int, contribution uint64)
	ActionRecorded(sessionID uint64, identity string, kind ActionKind, amount uint64)
	HandRevealed(sessionID uint64, identity string, opened int)
	SessionSettled(sessionID uint64, outcome, winner string, pot uint64, refunds []Refund)
}

// Config wires a Manager. Vault and Seals are required; Audit may be nil.
type Config struct {
	Admin string
	Vault escrow.Vault
	Seals *sealed.Store
	Audit Recorder
	Seed  int64
}

// Manager owns the session arena. Every public operation is a single atomic
// unit under mu; settling is the reentrancy guard set around outbound
// transfers and checked at the top of every state-mutating entry point.
type Manager struct {
	mu       sync.Mutex
	settling atomic.Bool

	admin string
	vault escrow.Vault
	seals *sealed.Store
	audit Recorder
	rng   *rand.Rand

	sessions map[uint64]*Session
	nextID   uint64
}

func New(cfg Config) *Manager {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Manager{
		admin:    cfg.Admin,
		vault:    cfg.Vault,
		seals:    cfg.Seals,
		audit:    cfg.Audit,
		rng:      rand.New(rand.NewSource(seed)),
		sessions: make(map[uint64]*Session),
	}
}

// Admin reports the configured administrator identity.
func (m *Manager) Admin() string { return m.admin }

// guard rejects state mutation while an outbound transfer is in flight, so a
// transfer callback cannot re-enter and observe a half-applied settlement.
func (m *Manager) guard() error {
	if m.settling.Load() {
		return errs.New(errs.CodeSettlementInProgress, "settlement in progress")
	}
	return nil
}

// CreateSession validates and registers a new session, assigning the next
// sequential id. Id 0 is never issued.
func (m *Manager) CreateSession(kind GameKind, capacity int, minWager uint64) (uint64, error) {
	if err := m.guard(); err != nil {
		return 0, err
	}
	if !kind.Valid() {
		return 0, errs.New(errs.CodeSessionInvalidKind, "kind %d", kind)
	}
	if capacity < MinCapacity || capacity > MaxCapacity {
		return 0, errs.New(errs.CodeSessionInvalidCapacity, "capacity %d outside [%d,%d]", capacity, MinCapacity, MaxCapacity)
	}
	if minWager < WagerFloor {
		return 0, errs.New(errs.CodeSessionWagerBelowFloor, "min wager %d below floor %d", minWager, WagerFloor)
	}

	m.mu.Lock()
	m.nextID++
	s := &Session{
		ID:           m.nextID,
		Kind:         kind,
		Capacity:     capacity,
		MinWager:     minWager,
		Phase:        Open,
		CreatedAt:    time.Now().UTC(),
		participants: make(map[string]*Participant),
	}
	m.sessions[s.ID] = s
	snap := s.snapshot()
	m.mu.Unlock()

	if m.audit != nil {
		m.audit.SessionCreated(snap)
	}
	return snap.ID, nil
}

// GetSession returns the public view of a session.
func (m *Manager) GetSession(id uint64) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Snapshot{}, errs.New(errs.CodeSessionNotFound, "session %d", id)
	}
	return s.snapshot(), nil
}

// TotalSessions reports how many sessions have ever been created.
func (m *Manager) TotalSessions() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID
}

func (m *Manager) session(id uint64) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, errs.New(errs.CodeSessionNotFound, "session %d", id)
	}
	return s, nil
}

func (m *Manager) participant(s *Session, identity string) (*Participant, error) {
	p, ok := s.participants[identity]
	if !ok {
		return nil, errs.New(errs.CodeNotInSession, "not in session %d", s.ID)
	}
	return p, nil
}
