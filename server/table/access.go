package table

import (
	errs "sealedtable/server/errors"
	"sealedtable/server/sealed"
)

// Per-player state is readable by its owner and the administrator only. The
// checks run on every accessor: even though the values are opaque, who asked
// for them is sensitive, so foreign reads fail outright.

func (m *Manager) SealedWager(sessionID uint64, identity, requester string) (sealed.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.lookup(sessionID, identity)
	if err != nil {
		return sealed.Handle{}, err
	}
	return m.seals.ReadAuthorized(p.Wager, requester)
}

func (m *Manager) SealedFolded(sessionID uint64, identity, requester string) (sealed.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.lookup(sessionID, identity)
	if err != nil {
		return sealed.Handle{}, err
	}
	return m.seals.ReadAuthorized(p.Folded, requester)
}

func (m *Manager) SealedHand(sessionID uint64, identity, requester string) ([]sealed.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.lookup(sessionID, identity)
	if err != nil {
		return nil, err
	}
	handles := make([]sealed.Handle, len(p.Hand))
	for i, ref := range p.Hand {
		h, err := m.seals.ReadAuthorized(ref, requester)
		if err != nil {
			return nil, err
		}
		handles[i] = h
	}
	return handles, nil
}

// OpenedCards returns the revealed prefix of a hand under the same policy.
func (m *Manager) OpenedCards(sessionID uint64, identity, requester string) ([]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.lookup(sessionID, identity)
	if err != nil {
		return nil, err
	}
	if err := m.authorizeOwner(identity, requester); err != nil {
		return nil, err
	}
	out := make([]bool, len(p.Opened))
	copy(out, p.Opened)
	return out, nil
}

// ActionLog returns a copy of the participant's append-only action history.
func (m *Manager) ActionLog(sessionID uint64, identity, requester string) ([]Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.lookup(sessionID, identity)
	if err != nil {
		return nil, err
	}
	if err := m.authorizeOwner(identity, requester); err != nil {
		return nil, err
	}
	out := make([]Action, len(p.Actions))
	copy(out, p.Actions)
	return out, nil
}

func (m *Manager) lookup(sessionID uint64, identity string) (*Participant, error) {
	s, err := m.session(sessionID)
	if err != nil {
		return nil, err
	}
	return m.participant(s, identity)
}

func (m *Manager) authorizeOwner(identity, requester string) error {
	if requester == identity || requester == m.admin || requester == Subject {
		return nil
	}
	return errs.New(errs.CodeSealedReadDenied, "read denied")
}
