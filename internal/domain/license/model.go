package license

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// License is the unit of management: a unique key, an expiry instant and an
// optional hardware binding. HWID is null until an agent activates the key.
type License struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	LicenseKey string         `db:"license_key" json:"license_key"`
	ExpiresAt  time.Time      `db:"expires_at" json:"expires_at"`
	HWID       sql.NullString `db:"hwid" json:"hwid,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// HWIDValue returns the bound hardware identifier, or "" when unbound.
func (l *License) HWIDValue() string {
	if l.HWID.Valid {
		return l.HWID.String
	}
	return ""
}
