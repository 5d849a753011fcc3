package store

import (
	"context"
	"log"
	"time"

	"sealedtable/server/table"
)

// Audit adapts the DB to the manager's Recorder interface. Recording is
// best-effort: the arena stays authoritative, so failures are logged and
// never surfaced to the operation that produced the event.
type Audit struct{ db *DB }

func NewAudit(db *DB) *Audit { return &Audit{db: db} }

func (a *Audit) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (a *Audit) SessionCreated(s table.Snapshot) {
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.db.InsertSession(ctx, s.ID, uint8(s.Kind), s.Capacity, s.MinWager, s.CreatedAt); err != nil {
		log.Printf("audit: session %d create: %v", s.ID, err)
	}
}

func (a *Audit) ParticipantJoined(sessionID uint64, identity string, joinedAt int, contribution uint64) {
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.db.InsertParticipant(ctx, sessionID, identity, joinedAt, contribution); err != nil {
		log.Printf("audit: session %d join: %v", sessionID, err)
	}
}

func (a *Audit) ActionRecorded(sessionID uint64, identity string, kind table.ActionKind, amount uint64) {
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.db.InsertAction(ctx, sessionID, identity, string(kind), amount); err != nil {
		log.Printf("audit: session %d action: %v", sessionID, err)
		return
	}
	if amount > 0 {
		if err := a.db.AddContribution(ctx, sessionID, identity, amount); err != nil {
			log.Printf("audit: session %d contribution: %v", sessionID, err)
		}
	}
}

func (a *Audit) HandRevealed(sessionID uint64, identity string, opened int) {
	ctx, cancel := a.ctx()
	defer cancel()
	if err := a.db.InsertReveal(ctx, sessionID, identity, opened); err != nil {
		log.Printf("audit: session %d reveal: %v", sessionID, err)
	}
}

func (a *Audit) SessionSettled(sessionID uint64, outcome, winner string, pot uint64, refunds []table.Refund) {
	ctx, cancel := a.ctx()
	defer cancel()
	rows := make([]RefundRow, len(refunds))
	for i, r := range refunds {
		rows[i] = RefundRow{Identity: r.Identity, Amount: r.Amount}
	}
	var w *string
	if winner != "" {
		w = &winner
	}
	if err := a.db.InsertSettlement(ctx, sessionID, outcome, w, pot, rows); err != nil {
		log.Printf("audit: session %d settlement: %v", sessionID, err)
	}
}
