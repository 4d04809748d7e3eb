package certcache

import (
	"errors"
	"fmt"

	"github.com/adamscao/skillguard/internal/db"
	"github.com/adamscao/skillguard/internal/db/repository"
)

// SQLStore keeps entries in the SQLite cert_cache table
type SQLStore struct {
	database *db.DB
	repo     *repository.CertCacheRepository
}

// NewSQLStore opens the database at path and runs migrations
func NewSQLStore(path string) (*SQLStore, error) {
	database, err := db.New(path)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStore{
		database: database,
		repo:     repository.NewCertCacheRepository(database.DB),
	}, nil
}

func (s *SQLStore) Get(key string) ([]byte, error) {
	cert, err := s.repo.GetByKey(key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cert.Data, nil
}

func (s *SQLStore) Put(key string, data []byte) error {
	return s.repo.Upsert(key, data)
}

func (s *SQLStore) Delete(key string) error {
	return s.repo.Delete(key)
}

func (s *SQLStore) Keys() ([]string, error) {
	certs, err := s.repo.List()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(certs))
	for _, c := range certs {
		keys = append(keys, c.Key)
	}
	return keys, nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.database.Close()
}
