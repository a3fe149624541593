package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/config"
	"github.com/avdeenko/license-dashboard-api/internal/ierr"
	"github.com/avdeenko/license-dashboard-api/internal/storage/memstorage"
)

// memRevoker is an in-memory stand-in for the Redis denylist.
type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemRevoker() *memRevoker {
	return &memRevoker{revoked: make(map[string]bool)}
}

func (r *memRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ttl > 0 {
		r.revoked[tokenID] = true
	}
	return nil
}

func (r *memRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[tokenID], nil
}

func newTestAuthService(t *testing.T, adminEmails string) (*AuthService, *memRevoker) {
	t.Helper()

	users := memstorage.NewUserRepository("admin@example.com", "s3cret-pass")
	revoker := newMemRevoker()
	cfg := &config.AuthConfig{
		JWTSecret:   "test-signing-secret",
		TokenTTL:    time.Hour,
		AdminEmails: adminEmails,
	}

	svc, err := NewAuthService(users, revoker, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc, revoker
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	users := memstorage.NewUserRepository("admin@example.com", "pw")
	_, err := NewAuthService(users, newMemRevoker(), &config.AuthConfig{TokenTTL: time.Hour}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty jwt secret, got nil")
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _ := newTestAuthService(t, "")
	ctx := context.Background()

	token, claims, err := svc.Login(ctx, "admin@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("Login returned empty token")
	}
	if claims.Email != "admin@example.com" || claims.Role != "admin" {
		t.Errorf("claims = %q/%q, want admin@example.com/admin", claims.Email, claims.Role)
	}

	parsed, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("ValidateToken on fresh token: %v", err)
	}
	if parsed.ID != claims.ID {
		t.Errorf("validated token id = %q, want %q", parsed.ID, claims.ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t, "")

	_, _, err := svc.Login(context.Background(), "admin@example.com", "not-the-password")
	if !errors.Is(err, ierr.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t, "")

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, ierr.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginAllowListDeniesOutsider(t *testing.T) {
	// Correct credentials, but the account is not on the allow-list: no
	// token is ever issued.
	svc, _ := newTestAuthService(t, "boss@example.com")

	token, _, err := svc.Login(context.Background(), "admin@example.com", "s3cret-pass")
	if !errors.Is(err, ierr.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if token != "" {
		t.Error("denied login must not return a token")
	}
}

func TestLoginAllowListIsCaseAndSpaceInsensitive(t *testing.T) {
	svc, _ := newTestAuthService(t, " Boss@Example.com , ADMIN@EXAMPLE.COM ")

	_, _, err := svc.Login(context.Background(), "admin@example.com", "s3cret-pass")
	if err != nil {
		t.Errorf("Login with allow-listed account: %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _ := newTestAuthService(t, "")
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "admin@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err = svc.ValidateToken(ctx, token)
	if !errors.Is(err, ierr.ErrSessionRevoked) {
		t.Errorf("ValidateToken after logout: err = %v, want ErrSessionRevoked", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuthService(t, "")

	_, err := svc.ValidateToken(context.Background(), "not.a.jwt")
	if !errors.Is(err, ierr.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, _ := newTestAuthService(t, "")
	ctx := context.Background()

	token, _, err := svc.Login(ctx, "admin@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Move the service clock past the token's lifetime.
	svc.clock = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.ValidateToken(ctx, token)
	if !errors.Is(err, ierr.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
