package apikey

import (
	"time"

	"github.com/google/uuid"
)

// APIKey authenticates activation agents. Only the SHA-256 hash of the full
// key is stored; the prefix is kept in clear for lookup.
type APIKey struct {
	ID          uuid.UUID  `db:"id"`
	KeyHash     string     `db:"key_hash"`
	Prefix      string     `db:"prefix"`
	Description string     `db:"description"`
	IsEnabled   bool       `db:"is_enabled"`
	CreatedAt   time.Time  `db:"created_at"`
	LastUsedAt  *time.Time `db:"last_used_at"`
}

const (
	APIKeyPrefixLength = 8
	APIKeySecretLength = 32
	APIKeyFormat       = "ld_%s_%s"
)
