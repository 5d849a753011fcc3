package table

import (
	errs "sealedtable/server/errors"
)

// Reveal records the opened prefix of a participant's hand. Any length from
// zero up to MaxHandSize is legal; the payload overwrites the previously
// revealed prefix and extends it when longer. Reveal never computes a winner.
func (m *Manager) Reveal(sessionID uint64, identity string, openedCards []bool) error {
	if err := m.guard(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.session(sessionID)
	if err != nil {
		return err
	}
	p, err := m.participant(s, identity)
	if err != nil {
		return err
	}
	if s.Phase == Closed {
		return errs.New(errs.CodeSessionAlreadyEnded, "session %d is closed", s.ID)
	}
	if len(openedCards) > MaxHandSize {
		return errs.New(errs.CodeRevealTooLong, "%d cards exceeds maximum %d", len(openedCards), MaxHandSize)
	}

	if len(openedCards) > len(p.Opened) {
		p.Opened = append(p.Opened, make([]bool, len(openedCards)-len(p.Opened))...)
	}
	copy(p.Opened, openedCards)

	if m.audit != nil {
		m.audit.HandRevealed(s.ID, identity, len(openedCards))
	}
	return nil
}
