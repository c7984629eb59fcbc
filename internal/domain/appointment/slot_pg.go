package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGQuerier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type PGQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGSlot keeps the ledger as one row of the ledger_slots table
// (see migrations/001_ledger_slots.sql).
type PGSlot struct {
	db  PGQuerier
	key string
}

func NewPGSlot(db PGQuerier, key string) *PGSlot {
	if key == "" {
		key = DefaultKey
	}
	return &PGSlot{db: db, key: key}
}

func (s *PGSlot) Load(ctx context.Context) ([]byte, error) {
	var payload string
	err := s.db.QueryRow(ctx,
		`SELECT payload FROM ledger_slots WHERE slot_key = $1`, s.key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger slot %s: %w", s.key, err)
	}
	return []byte(payload), nil
}

func (s *PGSlot) Store(ctx context.Context, data []byte) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ledger_slots (slot_key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		s.key, string(data),
	)
	if err != nil {
		return fmt.Errorf("store ledger slot %s: %w", s.key, err)
	}
	return nil
}
