package leveldb

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	goleveldb "github.com/syndtr/goleveldb/leveldb"
	lvlerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	lvlstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"lsdHub/internal/storage"
)

// Store keeps hub state in a LevelDB database.
type Store struct {
	db *goleveldb.DB
	mu sync.Mutex
}

// Open opens or creates a database directory.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("leveldb path is required")
	}
	db, err := goleveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb %s", path)
	}
	return &Store{db: db}, nil
}

// NewMemory returns a store backed by memory only.
func NewMemory() (*Store, error) {
	db, err := goleveldb.Open(lvlstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open memory leveldb")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Update runs fn inside a LevelDB transaction, committing only on success.
func (s *Store) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tr, err := s.db.OpenTransaction()
	if err != nil {
		return errors.Wrap(err, "open transaction")
	}
	if err := fn(&txn{tr: tr}); err != nil {
		tr.Discard()
		return err
	}
	if err := tr.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// View runs fn against a consistent snapshot.
func (s *Store) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return errors.Wrap(err, "get snapshot")
	}
	defer snap.Release()
	return fn(&snapshotTx{snap: snap})
}

type txn struct {
	tr *goleveldb.Transaction
}

func (t *txn) Get(key []byte) ([]byte, error) {
	value, err := t.tr.Get(key, nil)
	return value, translate(err)
}

func (t *txn) Put(key, value []byte) error {
	return t.tr.Put(key, value, nil)
}

func (t *txn) Delete(key []byte) error {
	return t.tr.Delete(key, nil)
}

func (t *txn) Scan(prefix []byte) ([]storage.KV, error) {
	return collect(t.tr.NewIterator(util.BytesPrefix(prefix), nil))
}

type snapshotTx struct {
	snap *goleveldb.Snapshot
}

func (t *snapshotTx) Get(key []byte) ([]byte, error) {
	value, err := t.snap.Get(key, nil)
	return value, translate(err)
}

func (t *snapshotTx) Put([]byte, []byte) error { return storage.ErrReadOnly }

func (t *snapshotTx) Delete([]byte) error { return storage.ErrReadOnly }

func (t *snapshotTx) Scan(prefix []byte) ([]storage.KV, error) {
	return collect(t.snap.NewIterator(util.BytesPrefix(prefix), nil))
}

func collect(it iterator.Iterator) ([]storage.KV, error) {
	defer it.Release()
	var out []storage.KV
	for it.Next() {
		out = append(out, storage.KV{
			Key:   append([]byte(nil), it.Key()...),
			Value: append([]byte(nil), it.Value()...),
		})
	}
	if err := it.Error(); err != nil {
		return nil, errors.Wrap(err, "iterate")
	}
	return out, nil
}

func translate(err error) error {
	if errors.Is(err, lvlerrors.ErrNotFound) {
		return storage.ErrNotFound
	}
	return err
}
