package table

import (
	errs "sealedtable/server/errors"
	"sealedtable/server/sealed"
)

// Join admits an identity into an open session and escrows its contribution.
// With intendsToJoin false the call is a no-op: funds are never taken, so
// nothing needs returning. All checks and fallible work run before any
// mutation; a rejected join leaves pot, phase, and the participant index
// untouched.
func (m *Manager) Join(sessionID uint64, identity string, contribution uint64, intendsToJoin bool) error {
	if !intendsToJoin {
		return nil
	}
	if err := m.guard(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.session(sessionID)
	if err != nil {
		return err
	}
	if s.Phase != Open {
		return errs.New(errs.CodeSessionNotOpen, "session %d is %s", s.ID, s.Phase)
	}
	if len(s.ParticipantIDs) >= s.Capacity {
		return errs.New(errs.CodeSessionFull, "session %d at capacity %d", s.ID, s.Capacity)
	}
	if _, dup := s.participants[identity]; dup {
		return errs.New(errs.CodeDuplicateJoin, "already joined session %d", s.ID)
	}
	if contribution < s.MinWager {
		return errs.New(errs.CodeContributionBelowMinimum, "contribution %d below minimum %d", contribution, s.MinWager)
	}

	// Seal first: a failure here leaves only unreferenced handles behind,
	// never a funds/bookkeeping divergence.
	wagerRef, err := m.seals.Create(contribution, Subject, identity)
	if err != nil {
		return err
	}
	foldedRef, err := m.seals.Create(0, Subject, identity)
	if err != nil {
		return err
	}

	// This join crossing the two-participant threshold activates the session.
	// Deal every hand up front so the commit below cannot fail halfway.
	activating := len(s.ParticipantIDs)+1 >= 2
	var hands map[string][]sealed.Ref
	if activating {
		hands = make(map[string][]sealed.Ref, len(s.ParticipantIDs)+1)
		for _, id := range append(append([]string{}, s.ParticipantIDs...), identity) {
			hand, err := m.dealHand(s.Kind, id)
			if err != nil {
				return err
			}
			hands[id] = hand
		}
	}

	if err := m.vault.Receive(identity, contribution); err != nil {
		return errs.New(errs.CodeReceiveFailed, "escrow receive: %v", err)
	}

	p := &Participant{
		Identity:     identity,
		JoinedAt:     len(s.ParticipantIDs),
		Wager:        wagerRef,
		Folded:       foldedRef,
		Contribution: contribution,
	}
	s.participants[identity] = p
	s.ParticipantIDs = append(s.ParticipantIDs, identity)
	s.Pot += contribution
	if activating {
		for id, hand := range hands {
			s.participants[id].Hand = hand
		}
		s.Phase = Active
	}

	if m.audit != nil {
		m.audit.ParticipantJoined(s.ID, identity, p.JoinedAt, contribution)
	}
	return nil
}

func (m *Manager) dealHand(kind GameKind, identity string) ([]sealed.Ref, error) {
	hand := make([]sealed.Ref, kind.HandSize())
	for i := range hand {
		ref, err := m.seals.Create(uint64(m.rng.Intn(2)), Subject, identity)
		if err != nil {
			return nil, err
		}
		hand[i] = ref
	}
	return hand, nil
}
