// internal/database/lobby_events.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/relay/internal/events"
)

const createLobbyEventsQ = `
	CREATE TABLE IF NOT EXISTS lobby_events (
		id          UUID PRIMARY KEY,
		event_type  TEXT NOT NULL,
		lobby_code  TEXT NOT NULL DEFAULT '',
		player_id   TEXT NOT NULL DEFAULT '',
		detail      JSONB,
		occurred_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS lobby_events_code_idx ON lobby_events (lobby_code, occurred_at);
`

const insertLobbyEventQ = `
	INSERT INTO lobby_events (id, event_type, lobby_code, player_id, detail, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
`

// DB is the subset of pgxpool.Pool the event store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// EventStore persists lobby events to Postgres.
type EventStore struct {
	db DB
}

// NewEventStore wraps db, usually a *pgxpool.Pool.
func NewEventStore(db DB) *EventStore {
	return &EventStore{db: db}
}

// EnsureSchema creates the lobby_events table if it does not exist.
func (s *EventStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createLobbyEventsQ); err != nil {
		return fmt.Errorf("failed to create lobby_events: %w", err)
	}
	return nil
}

// InsertLobbyEvents writes batch in a single transaction. Events already
// stored are skipped, so a retried batch is harmless.
func (s *EventStore) InsertLobbyEvents(ctx context.Context, batch []events.Event) error {
	if len(batch) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, s.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, ev := range batch {
			if err := insertLobbyEventTx(ctx, tx, ev); err != nil {
				return fmt.Errorf("insertLobbyEventTx %s: %w", ev.ID, err)
			}
		}
		return nil
	})
}

func insertLobbyEventTx(ctx context.Context, tx pgx.Tx, ev events.Event) error {
	var detail []byte
	if len(ev.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(ev.Detail); err != nil {
			return err
		}
	}
	_, err := tx.Exec(ctx, insertLobbyEventQ,
		ev.ID, string(ev.Type), ev.Code, ev.PlayerID, detail, time.UnixMilli(ev.Timestamp).UTC(),
	)
	return err
}
