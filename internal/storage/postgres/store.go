package postgres

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/blake2b"

	"lsdHub/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS hub_state (
	namespace TEXT NOT NULL,
	key BYTEA NOT NULL,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
);
CREATE TABLE IF NOT EXISTS keeper_state (
	name TEXT PRIMARY KEY,
	last_reinvest BIGINT NOT NULL,
	exchange_rate TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for hub state.
type Store struct {
	pool      *pgxpool.Pool
	namespace string
	lockID    int64
}

func NewStore(ctx context.Context, dsn, namespace string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if namespace == "" {
		namespace = "default"
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, namespace: namespace, lockID: lockKey(namespace)}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureSchema creates the tables used by the store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Update runs fn in a serializable transaction. Calls for the same namespace are
// serialized by a transaction scoped advisory lock.
func (s *Store) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, s.lockID); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if err := fn(&pgTx{ctx: ctx, tx: tx, namespace: s.namespace}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)
	return fn(&pgTx{ctx: ctx, tx: tx, namespace: s.namespace, readOnly: true})
}

type pgTx struct {
	ctx       context.Context
	tx        pgx.Tx
	namespace string
	readOnly  bool
}

func (t *pgTx) Get(key []byte) ([]byte, error) {
	var value []byte
	row := t.tx.QueryRow(t.ctx, `SELECT value FROM hub_state WHERE namespace=$1 AND key=$2`, t.namespace, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (t *pgTx) Put(key, value []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO hub_state (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, t.namespace, key, value)
	return err
}

func (t *pgTx) Delete(key []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	_, err := t.tx.Exec(t.ctx, `DELETE FROM hub_state WHERE namespace=$1 AND key=$2`, t.namespace, key)
	return err
}

func (t *pgTx) Scan(prefix []byte) ([]storage.KV, error) {
	rows, err := t.tx.Query(t.ctx, `
		SELECT key, value FROM hub_state
		WHERE namespace=$1 AND substring(key from 1 for length($2::bytea)) = $2::bytea
		ORDER BY key
	`, t.namespace, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.KV
	for rows.Next() {
		var kv storage.KV
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, err
		}
		out = append(out, kv)
	}
	return out, rows.Err()
}

// KeeperState is the keeper checkpoint row.
type KeeperState struct {
	LastReinvest uint64
	ExchangeRate string
}

// LoadState returns the checkpoint stored for a keeper name.
func (s *Store) LoadState(ctx context.Context, name string) (KeeperState, bool, error) {
	if name == "" {
		return KeeperState{}, false, fmt.Errorf("state name required")
	}
	var (
		ts   int64
		rate string
	)
	row := s.pool.QueryRow(ctx, `SELECT last_reinvest, exchange_rate FROM keeper_state WHERE name=$1`, name)
	if err := row.Scan(&ts, &rate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return KeeperState{}, false, nil
		}
		return KeeperState{}, false, err
	}
	return KeeperState{LastReinvest: uint64(ts), ExchangeRate: rate}, true, nil
}

// SaveState upserts the checkpoint for a keeper name.
func (s *Store) SaveState(ctx context.Context, name string, state KeeperState) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO keeper_state (name, last_reinvest, exchange_rate, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET last_reinvest = EXCLUDED.last_reinvest, exchange_rate = EXCLUDED.exchange_rate, updated_at = now()
	`, name, int64(state.LastReinvest), state.ExchangeRate)
	return err
}

func lockKey(namespace string) int64 {
	sum := blake2b.Sum256([]byte("lsdhub:" + namespace))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
