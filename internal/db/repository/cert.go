package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/adamscao/skillguard/internal/models"
)

// ErrNotFound is returned when no row exists for a cache key
var ErrNotFound = errors.New("certificate not found")

// CertCacheRepository handles cached certificate data access
type CertCacheRepository struct {
	db *sql.DB
}

// NewCertCacheRepository creates a new certificate cache repository
func NewCertCacheRepository(db *sql.DB) *CertCacheRepository {
	return &CertCacheRepository{db: db}
}

// Upsert inserts or replaces the certificate stored under key
func (r *CertCacheRepository) Upsert(key string, data []byte) error {
	query := `
		INSERT INTO cert_cache (cache_key, data, stored_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(cache_key) DO UPDATE SET
			data = excluded.data,
			stored_at = excluded.stored_at
	`

	if _, err := r.db.Exec(query, key, data); err != nil {
		return fmt.Errorf("failed to store certificate: %w", err)
	}

	return nil
}

// GetByKey retrieves a cached certificate by key
func (r *CertCacheRepository) GetByKey(key string) (*models.CachedCertificate, error) {
	query := `
		SELECT cache_key, data, stored_at
		FROM cert_cache
		WHERE cache_key = ?
	`

	cert := &models.CachedCertificate{}

	err := r.db.QueryRow(query, key).Scan(
		&cert.Key,
		&cert.Data,
		&cert.StoredAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	cert.Size = len(cert.Data)
	return cert, nil
}

// Delete removes the certificate stored under key. Deleting a missing key is not an error.
func (r *CertCacheRepository) Delete(key string) error {
	if _, err := r.db.Exec(`DELETE FROM cert_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete certificate: %w", err)
	}
	return nil
}

// List lists cached certificates without their payload, newest first
func (r *CertCacheRepository) List() ([]*models.CachedCertificate, error) {
	query := `
		SELECT cache_key, LENGTH(data), stored_at
		FROM cert_cache
		ORDER BY stored_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	var certs []*models.CachedCertificate

	for rows.Next() {
		cert := &models.CachedCertificate{}
		if err := rows.Scan(&cert.Key, &cert.Size, &cert.StoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate certificates: %w", err)
	}

	return certs, nil
}
