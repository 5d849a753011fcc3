package store

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

/* -----------------------------
   Write helpers
------------------------------*/

func (db *DB) InsertSession(ctx context.Context, id uint64, kind uint8, capacity int, minWager uint64, createdAt time.Time) error {
	_, err := db.Exec(ctx, `
        INSERT INTO sessions(id, kind, capacity, min_wager, created_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (id) DO NOTHING
    `, int64(id), int(kind), capacity, int64(minWager), createdAt)
	return err
}

func (db *DB) InsertParticipant(ctx context.Context, sessionID uint64, identity string, joinedAt int, contribution uint64) error {
	_, err := db.Exec(ctx, `
        INSERT INTO session_participants(session_id, identity, joined_at, contribution)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (session_id, identity) DO NOTHING
    `, int64(sessionID), identity, joinedAt, int64(contribution))
	return err
}

// AddContribution bumps a participant's tracked contribution after a raise.
func (db *DB) AddContribution(ctx context.Context, sessionID uint64, identity string, delta uint64) error {
	_, err := db.Exec(ctx, `
        UPDATE session_participants
           SET contribution = contribution + $3
         WHERE session_id = $1 AND identity = $2
    `, int64(sessionID), identity, int64(delta))
	return err
}

func (db *DB) InsertAction(ctx context.Context, sessionID uint64, identity, action string, amount uint64) error {
	_, err := db.Exec(ctx, `
        INSERT INTO session_actions(session_id, identity, action, amount)
        VALUES ($1,$2,$3,$4)
    `, int64(sessionID), identity, action, int64(amount))
	return err
}

func (db *DB) InsertReveal(ctx context.Context, sessionID uint64, identity string, openedCount int) error {
	_, err := db.Exec(ctx, `
        INSERT INTO session_reveals(session_id, identity, opened_count)
        VALUES ($1,$2,$3)
    `, int64(sessionID), identity, openedCount)
	return err
}

// RefundRow is one payout line recorded with a settlement.
type RefundRow struct {
	Identity string
	Amount   uint64
}

// InsertSettlement records the settlement plus its refund lines atomically.
func (db *DB) InsertSettlement(ctx context.Context, sessionID uint64, outcome string, winner *string, pot uint64, refunds []RefundRow) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // safe if already committed

	var w any
	if winner != nil && *winner != "" {
		w = *winner
	}
	if _, err := tx.Exec(ctx, `
        INSERT INTO session_settlements(session_id, outcome, winner, pot)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (session_id) DO NOTHING
    `, int64(sessionID), outcome, w, int64(pot)); err != nil {
		return err
	}
	for _, r := range refunds {
		if _, err := tx.Exec(ctx, `
            INSERT INTO settlement_refunds(session_id, identity, amount)
            VALUES ($1,$2,$3)
            ON CONFLICT (session_id, identity) DO NOTHING
        `, int64(sessionID), r.Identity, int64(r.Amount)); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

/* -----------------------------
   Read helpers
------------------------------*/

type ActionRow struct {
	ID        int64     `json:"id"`
	Identity  string    `json:"identity"`
	Action    string    `json:"action"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func (db *DB) SessionActions(ctx context.Context, sessionID uint64) ([]ActionRow, error) {
	rows, err := db.Query(ctx, `
        SELECT id, identity, action, amount, created_at
          FROM session_actions
         WHERE session_id = $1
         ORDER BY id
    `, int64(sessionID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ActionRow{}
	for rows.Next() {
		var r ActionRow
		if err := rows.Scan(&r.ID, &r.Identity, &r.Action, &r.Amount, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type SettlementRow struct {
	Outcome   string    `json:"outcome"`
	Winner    *string   `json:"winner"`
	Pot       int64     `json:"pot"`
	CreatedAt time.Time `json:"created_at"`
}

// GetSettlement returns the settlement record, or ok=false when none exists.
func (db *DB) GetSettlement(ctx context.Context, sessionID uint64) (SettlementRow, bool, error) {
	var r SettlementRow
	err := db.QueryRow(ctx, `
        SELECT outcome, winner, pot, created_at
          FROM session_settlements
         WHERE session_id = $1
    `, int64(sessionID)).Scan(&r.Outcome, &r.Winner, &r.Pot, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SettlementRow{}, false, nil
		}
		return SettlementRow{}, false, err
	}
	return r, true, nil
}
