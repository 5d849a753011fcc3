package table

import (
	errs "sealedtable/server/errors"
)

// EmergencyEnd tears a session down and refunds every tracked contribution.
// Administrator only. Legal from Open or Active; Closed is terminal. Pot
// bookkeeping moves only for transfers the vault reports as successful, so a
// failed refund aborts with the phase unchanged and the remaining refunds
// still owed; a retry picks up where the failure happened.
func (m *Manager) EmergencyEnd(sessionID uint64, caller string) error {
	if err := m.guard(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.session(sessionID)
	if err != nil {
		return err
	}
	if caller != m.admin {
		return errs.New(errs.CodeNotAdministrator, "administrator only")
	}
	if s.Phase == Closed {
		return errs.New(errs.CodeSessionAlreadyEnded, "session %d already ended", s.ID)
	}

	m.settling.Store(true)
	defer m.settling.Store(false)

	refunds, err := m.refundAll(s)
	if err != nil {
		return err
	}
	s.Phase = Closed

	if m.audit != nil {
		m.audit.SessionSettled(s.ID, "emergency", "", 0, refunds)
	}
	return nil
}

// refundAll pays back each participant's tracked contribution in join order,
// marking each exactly once. Caller holds mu and the settling guard.
func (m *Manager) refundAll(s *Session) ([]Refund, error) {
	var refunds []Refund
	for _, id := range s.ParticipantIDs {
		p := s.participants[id]
		if p.Refunded || p.Contribution == 0 {
			continue
		}
		if err := m.vault.Transfer(id, p.Contribution); err != nil {
			return refunds, errs.New(errs.CodeTransferFailed, "refund transfer: %v", err)
		}
		s.Pot -= p.Contribution
		p.Refunded = true
		refunds = append(refunds, Refund{Identity: id, Amount: p.Contribution})
	}
	return refunds, nil
}

// Settle resolves an active session normally: every unfolded participant must
// have fully revealed its hand; the most opened cards wins the pot. A tie (or
// a table with everyone folded) falls back to refunding contributions.
// Administrator only.
func (m *Manager) Settle(sessionID uint64, caller string) error {
	if err := m.guard(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.session(sessionID)
	if err != nil {
		return err
	}
	if caller != m.admin {
		return errs.New(errs.CodeNotAdministrator, "administrator only")
	}
	if s.Phase == Closed {
		return errs.New(errs.CodeSessionAlreadyEnded, "session %d already ended", s.ID)
	}
	if s.Phase != Active {
		return errs.New(errs.CodeSessionNotActive, "session %d is %s", s.ID, s.Phase)
	}

	handSize := s.Kind.HandSize()
	winner, tie := "", false
	best := -1
	for _, id := range s.ParticipantIDs {
		p := s.participants[id]
		if p.HasFolded {
			continue
		}
		if len(p.Opened) < handSize {
			return errs.New(errs.CodeSessionNotSettleable, "unrevealed hands remain")
		}
		count := 0
		for _, open := range p.Opened[:handSize] {
			if open {
				count++
			}
		}
		switch {
		case count > best:
			winner, best, tie = id, count, false
		case count == best:
			tie = true
		}
	}

	m.settling.Store(true)
	defer m.settling.Store(false)

	if winner == "" || tie {
		refunds, err := m.refundAll(s)
		if err != nil {
			return err
		}
		s.Phase = Closed
		if m.audit != nil {
			m.audit.SessionSettled(s.ID, "tie-refund", "", 0, refunds)
		}
		return nil
	}

	pot := s.Pot
	if pot > 0 {
		if err := m.vault.Transfer(winner, pot); err != nil {
			return errs.New(errs.CodeTransferFailed, "payout transfer: %v", err)
		}
	}
	s.Pot = 0
	s.Phase = Closed

	if m.audit != nil {
		m.audit.SessionSettled(s.ID, "settled", winner, pot, nil)
	}
	return nil
}

// Withdraw transfers the house balance (funds held outside open or active
// session pots) to the administrator.
func (m *Manager) Withdraw(caller string) error {
	if err := m.guard(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if caller != m.admin {
		return errs.New(errs.CodeNotAdministrator, "administrator only")
	}
	house := m.vault.Balance()
	for _, s := range m.sessions {
		if s.Phase != Closed {
			house -= s.Pot
		}
	}
	if house == 0 {
		return errs.New(errs.CodeZeroBalance, "no withdrawable balance")
	}

	m.settling.Store(true)
	defer m.settling.Store(false)

	if err := m.vault.Transfer(m.admin, house); err != nil {
		return errs.New(errs.CodeTransferFailed, "withdraw transfer: %v", err)
	}
	return nil
}
