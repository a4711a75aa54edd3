package cache

import (
	"errors"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerKV is the on-disk KV backend. Badger handles TTL expiry natively,
// which is all the eviction policy the result cache needs.
type BadgerKV struct {
	db *badger.DB
}

func OpenBadger(dir string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerKV{db: db}, nil
}

func (b *BadgerKV) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *BadgerKV) SetTTL(key string, value []byte, ttl time.Duration) error {
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (b *BadgerKV) Incr(key string, ttl time.Duration) (int64, error) {
	var next int64
	err := b.db.Update(func(txn *badger.Txn) error {
		var current int64
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			current, _ = strconv.ParseInt(string(raw), 10, 64)
		}
		next = current + 1
		entry := badger.NewEntry([]byte(key), []byte(strconv.FormatInt(next, 10)))
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (b *BadgerKV) Close() error {
	return b.db.Close()
}
