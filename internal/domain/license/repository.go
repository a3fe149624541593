package license

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("license not found")
	ErrDuplicateKey = errors.New("license key already exists")
	ErrAlreadyBound = errors.New("license is already bound to a hardware id")
	ErrExpired      = errors.New("license has expired")
)

type Repository interface {
	// List returns the full working set ordered by expires_at ascending.
	List(ctx context.Context) ([]*License, error)
	FindByKey(ctx context.Context, key string) (*License, error)
	Create(ctx context.Context, lic *License) (uuid.UUID, error)
	// BindHWID sets the hardware binding only while the key is unbound.
	BindHWID(ctx context.Context, key, hwid string) error
	// ResetHWID clears the hardware binding so the key can be rebound.
	ResetHWID(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
}
