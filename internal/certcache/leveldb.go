package certcache

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const leveldbPrefix = "c:"

// LevelDBStore keeps entries in a goleveldb database
type LevelDBStore struct {
	db *leveldb.DB
}

// NewLevelDBStore opens or creates the database at path
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

func (s *LevelDBStore) Get(key string) ([]byte, error) {
	data, err := s.db.Get([]byte(leveldbPrefix+key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read leveldb entry: %w", err)
	}
	return data, nil
}

func (s *LevelDBStore) Put(key string, data []byte) error {
	if err := s.db.Put([]byte(leveldbPrefix+key), data, nil); err != nil {
		return fmt.Errorf("failed to write leveldb entry: %w", err)
	}
	return nil
}

func (s *LevelDBStore) Delete(key string) error {
	if err := s.db.Delete([]byte(leveldbPrefix+key), nil); err != nil {
		return fmt.Errorf("failed to delete leveldb entry: %w", err)
	}
	return nil
}

func (s *LevelDBStore) Keys() ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(leveldbPrefix)), nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()[len(leveldbPrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate leveldb: %w", err)
	}
	return keys, nil
}

// Close closes the database
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
