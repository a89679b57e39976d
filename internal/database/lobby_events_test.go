// internal/database/lobby_events_test.go
package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/relay/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

// fakeTx records Exec calls. Methods the store never uses panic through the
// embedded nil interface.
type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.db.txCalls = append(t.db.txCalls, execCall{sql: sql, args: args})
	if t.db.failOn > 0 && len(t.db.txCalls) == t.db.failOn {
		return pgconn.CommandTag{}, errors.New("insert failed")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.db.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.db.committed || t.db.rolledBack {
		return pgx.ErrTxClosed
	}
	t.db.rolledBack = true
	return nil
}

type fakeDB struct {
	execs      []execCall
	txCalls    []execCall
	failOn     int
	committed  bool
	rolledBack bool
}

func (d *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (d *fakeDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return &fakeTx{db: d}, nil
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewEventStore(db).EnsureSchema(context.Background()))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS lobby_events")
}

func TestInsertLobbyEventsCommits(t *testing.T) {
	db := &fakeDB{}
	at := time.UnixMilli(1_700_000_000_123)
	batch := []events.Event{
		events.New(events.LobbyCreated, "ABC234", "host_1", at),
		events.New(events.JoinFailed, "ABC234", "p2", at).WithDetail("reason", "Lobby is full"),
	}

	require.NoError(t, NewEventStore(db).InsertLobbyEvents(context.Background(), batch))

	assert.True(t, db.committed)
	assert.False(t, db.rolledBack)
	require.Len(t, db.txCalls, 2)

	first := db.txCalls[0].args
	assert.Equal(t, batch[0].ID, first[0])
	assert.Equal(t, "lobby_created", first[1])
	assert.Equal(t, "ABC234", first[2])
	assert.Equal(t, "host_1", first[3])
	assert.Nil(t, first[4])
	assert.True(t, at.Equal(first[5].(time.Time)))

	assert.JSONEq(t, `{"reason":"Lobby is full"}`, string(db.txCalls[1].args[4].([]byte)))
}

func TestInsertLobbyEventsRollsBackOnError(t *testing.T) {
	db := &fakeDB{failOn: 2}
	batch := []events.Event{
		events.New(events.PlayerJoined, "ABC234", "p1", time.Now()),
		events.New(events.PlayerLeft, "ABC234", "p1", time.Now()),
	}

	err := NewEventStore(db).InsertLobbyEvents(context.Background(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
	assert.True(t, db.rolledBack)
	assert.False(t, db.committed)
}

func TestInsertLobbyEventsEmptyBatch(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewEventStore(db).InsertLobbyEvents(context.Background(), nil))
	assert.False(t, db.committed)
}
