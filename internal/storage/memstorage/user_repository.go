package memstorage

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avdeenko/license-dashboard-api/internal/domain/user"
	"github.com/avdeenko/license-dashboard-api/internal/ierr"
)

// UserRepository is an in-memory operator directory seeded with one admin
// account from configuration. The dashboard has a handful of operators at
// most; anything bigger belongs in the record store.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*user.User
}

func NewUserRepository(seedEmail, seedPassword string) *UserRepository {
	repo := &UserRepository{
		users: make(map[string]*user.User),
	}

	if seedEmail != "" && seedPassword != "" {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
		admin := &user.User{
			ID:           uuid.New(),
			Email:        seedEmail,
			PasswordHash: string(hashedPassword),
			Role:         "admin",
		}
		repo.users[strings.ToLower(admin.Email)] = admin
	}

	return repo
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, ierr.ErrUserNotFound
	}

	userCopy := *u
	return &userCopy, nil
}

func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
