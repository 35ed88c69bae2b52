package badger

import (
	"context"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"lsdHub/internal/storage"
)

// Store keeps hub state in a Badger database.
type Store struct {
	db *badgerdb.DB
	mu sync.Mutex
}

// Open opens or creates a database directory.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("badger path is required")
	}
	opts := badgerdb.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger %s", path)
	}
	return &Store{db: db}, nil
}

// NewMemory returns a store backed by memory only.
func NewMemory() (*Store, error) {
	db, err := badgerdb.Open(badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrap(err, "open memory badger")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Update runs fn inside a read-write transaction, committing only on success.
// Writers are serialized so Badger never reports a conflict.
func (s *Store) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txn := s.db.NewTransaction(true)
	defer txn.Discard()
	if err := fn(&badgerTx{txn: txn}); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// View runs fn against a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.NewTransaction(false)
	defer txn.Discard()
	return fn(&badgerTx{txn: txn, readOnly: true})
}

type badgerTx struct {
	txn      *badgerdb.Txn
	readOnly bool
}

func (t *badgerTx) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *badgerTx) Put(key, value []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	return t.txn.Set(append([]byte(nil), key...), append([]byte(nil), value...))
}

func (t *badgerTx) Delete(key []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	return t.txn.Delete(append([]byte(nil), key...))
}

// Scan includes the pending writes of the transaction.
func (t *badgerTx) Scan(prefix []byte) ([]storage.KV, error) {
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	it := t.txn.NewIterator(opts)
	defer it.Close()

	var out []storage.KV
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, errors.Wrap(err, "iterate")
		}
		out = append(out, storage.KV{Key: item.KeyCopy(nil), Value: value})
	}
	return out, nil
}
