package models

import "time"

// CachedCertificate is a persisted copy of a downloaded signing certificate
type CachedCertificate struct {
	Key      string    `json:"key"`
	Data     []byte    `json:"-"`
	Size     int       `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}
