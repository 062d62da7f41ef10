package client

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Durable keys mirrored from the in-memory session cache.
const (
	KeyUser        = "user"
	KeySession     = "session"
	KeyPreferences = "preferences"
)

// Storage is the durable key-value store behind SessionStore. Values are
// JSON documents.
type Storage interface {
	// Get decodes the value under key into v and reports whether it existed.
	Get(key string, v interface{}) (bool, error)
	Set(key string, v interface{}) error
	Delete(keys ...string) error
	Close() error
}

// BadgerStorage keeps client state in a BadgerDB directory.
type BadgerStorage struct {
	db *badger.DB
}

// OpenBadgerStorage opens (or creates) a store in dir. An empty dir gives an
// in-memory store that is lost on Close.
func OpenBadgerStorage(dir string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open client state: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

func (s *BadgerStorage) Get(key string, v interface{}) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return found, nil
}

func (s *BadgerStorage) Set(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *BadgerStorage) Delete(keys ...string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}
