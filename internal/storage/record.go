package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const keySeparator = "/"

// Item is a single JSON encoded record stored under a fixed key.
type Item[V any] struct {
	key []byte
}

func NewItem[V any](name string) Item[V] {
	return Item[V]{key: []byte(name)}
}

// Load returns the stored value or ErrNotFound.
func (i Item[V]) Load(tx Tx) (V, error) {
	value, ok, err := i.MayLoad(tx)
	if err != nil {
		return value, err
	}
	if !ok {
		return value, errors.Wrapf(ErrNotFound, "item %s", i.key)
	}
	return value, nil
}

func (i Item[V]) MayLoad(tx Tx) (V, bool, error) {
	var value V
	raw, err := tx.Get(i.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return value, false, nil
		}
		return value, false, errors.Wrapf(err, "get %s", i.key)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, errors.Wrapf(err, "decode %s", i.key)
	}
	return value, true, nil
}

func (i Item[V]) Save(tx Tx, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", i.key)
	}
	return tx.Put(i.key, raw)
}

func (i Item[V]) Remove(tx Tx) error {
	return tx.Delete(i.key)
}

// KeyCodec maps typed map keys to order preserving strings.
type KeyCodec[K any] interface {
	Encode(K) string
	Decode(string) (K, error)
}

type uint64Codec struct{}

// Zero padded so that lexical order matches numeric order.
func (uint64Codec) Encode(k uint64) string { return fmt.Sprintf("%020d", k) }

func (uint64Codec) Decode(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }

type stringCodec struct{}

func (stringCodec) Encode(k string) string { return k }

func (stringCodec) Decode(s string) (string, error) { return s, nil }

var (
	Uint64Keys KeyCodec[uint64] = uint64Codec{}
	StringKeys KeyCodec[string] = stringCodec{}
)

// Entry is one decoded element of a Map.
type Entry[K any, V any] struct {
	Key   K
	Value V
}

// Map is a collection of JSON encoded records sharing a name prefix.
type Map[K any, V any] struct {
	prefix string
	codec  KeyCodec[K]
}

func NewMap[K any, V any](name string, codec KeyCodec[K]) Map[K, V] {
	return Map[K, V]{prefix: name + keySeparator, codec: codec}
}

func (m Map[K, V]) item(key K) Item[V] {
	return Item[V]{key: []byte(m.prefix + m.codec.Encode(key))}
}

func (m Map[K, V]) MayLoad(tx Tx, key K) (V, bool, error) {
	return m.item(key).MayLoad(tx)
}

func (m Map[K, V]) Save(tx Tx, key K, value V) error {
	return m.item(key).Save(tx, value)
}

func (m Map[K, V]) Remove(tx Tx, key K) error {
	return m.item(key).Remove(tx)
}

// Entries returns every element in ascending key order.
func (m Map[K, V]) Entries(tx Tx) ([]Entry[K, V], error) {
	pairs, err := tx.Scan([]byte(m.prefix))
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", m.prefix)
	}
	out := make([]Entry[K, V], 0, len(pairs))
	for _, pair := range pairs {
		key, err := m.codec.Decode(strings.TrimPrefix(string(pair.Key), m.prefix))
		if err != nil {
			return nil, errors.Wrapf(err, "decode key %q", pair.Key)
		}
		var value V
		if err := json.Unmarshal(pair.Value, &value); err != nil {
			return nil, errors.Wrapf(err, "decode %s", pair.Key)
		}
		out = append(out, Entry[K, V]{Key: key, Value: value})
	}
	return out, nil
}
