package table

import (
	errs "sealedtable/server/errors"
	"sealedtable/server/sealed"
)

// Act records one turn action for an admitted participant. Fold flips the
// sealed folded flag (a fresh sealed value; sealed state is never mutated in
// place). Any action carrying added > 0 escrows the delta, folds it into the
// sealed wager via the engine, and grows the pot. Repeated calls append new
// actions; the processor does not enforce turn order.
func (m *Manager) Act(sessionID uint64, identity string, call, raise, fold bool, added uint64) error {
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
	if s.Phase != Active {
		return errs.New(errs.CodeSessionNotActive, "session %d is %s", s.ID, s.Phase)
	}

	kind := ActionCheck
	switch {
	case fold:
		kind = ActionFold
	case raise:
		kind = ActionRaise
	case call:
		kind = ActionCall
	}

	// Prepare every fallible step before touching session state.
	var newWager sealed.Ref
	if added > 0 {
		deltaRef, err := m.seals.Create(added, Subject, identity)
		if err != nil {
			return err
		}
		newWager, err = m.seals.Combine(sealed.OpAdd, p.Wager, deltaRef, Subject, identity)
		if err != nil {
			return err
		}
	}
	var newFolded sealed.Ref
	if fold {
		newFolded, err = m.seals.Create(1, Subject, identity)
		if err != nil {
			return err
		}
	}
	if added > 0 {
		if err := m.vault.Receive(identity, added); err != nil {
			return errs.New(errs.CodeReceiveFailed, "escrow receive: %v", err)
		}
	}

	if added > 0 {
		p.Wager = newWager
		p.Contribution += added
		s.Pot += added
	}
	if fold {
		p.Folded = newFolded
		p.HasFolded = true
	}
	p.Actions = append(p.Actions, Action{Kind: kind, Amount: added})

	if m.audit != nil {
		m.audit.ActionRecorded(s.ID, identity, kind, added)
	}
	return nil
}
