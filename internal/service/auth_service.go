package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/config"
	"github.com/avdeenko/license-dashboard-api/internal/domain/user"
	"github.com/avdeenko/license-dashboard-api/internal/ierr"
	"github.com/avdeenko/license-dashboard-api/internal/storage/memstorage"
)

// SessionRevoker records signed-out token ids until their natural expiry.
// The Redis-backed implementation lives in storage/redis.
type SessionRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthService struct {
	users     user.Repository
	revoker   SessionRevoker
	secret    []byte
	tokenTTL  time.Duration
	allowList []string
	logger    *zap.Logger
	clock     func() time.Time
}

func NewAuthService(users user.Repository, revoker SessionRevoker, cfg *config.AuthConfig, logger *zap.Logger) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwtSecret is required")
	}

	return &AuthService{
		users:     users,
		revoker:   revoker,
		secret:    []byte(cfg.JWTSecret),
		tokenTTL:  cfg.TokenTTL,
		allowList: cfg.AdminAllowList(),
		logger:    logger.Named("AuthService"),
		clock:     time.Now,
	}, nil
}

// Login verifies the credentials and the admin allow-list before issuing a
// session. An authenticated but unauthorized user never receives a token, so
// there is no half-authorized session to tear down afterwards.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *SessionClaims, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Info("Login attempt for unknown user", zap.String("email", email))
		return "", nil, ierr.ErrInvalidCredentials
	}

	if !memstorage.CheckPassword(u.PasswordHash, password) {
		s.logger.Info("Login attempt with wrong password", zap.String("email", email))
		return "", nil, ierr.ErrInvalidCredentials
	}

	if !s.isAuthorized(u.Email) {
		s.logger.Warn("Authenticated user is not on the admin allow-list", zap.String("email", email))
		return "", nil, fmt.Errorf("%w: %s is not an authorized administrator", ierr.ErrForbidden, email)
	}

	now := s.clock().UTC()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Email: u.Email,
		Role:  u.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		return "", nil, fmt.Errorf("%w: signing session token: %v", ierr.ErrInternalServer, err)
	}

	s.logger.Info("User signed in", zap.String("email", u.Email))
	return signed, claims, nil
}

// Logout puts the token id on the revocation denylist for the remainder of
// the token's lifetime.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	claims, err := s.ValidateToken(ctx, rawToken)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Sub(s.clock().UTC())
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}

	s.logger.Info("User signed out", zap.String("email", claims.Email))
	return nil
}

func (s *AuthService) ValidateToken(ctx context.Context, rawToken string) (*SessionClaims, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.clock().UTC() }))
	if err != nil || !token.Valid {
		s.logger.Debug("Session token failed verification", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking session revocation: %w", err)
	}
	if revoked {
		s.logger.Debug("Rejected revoked session token", zap.String("token_id", claims.ID))
		return nil, ierr.ErrSessionRevoked
	}

	return &claims, nil
}

func (s *AuthService) isAuthorized(email string) bool {
	if len(s.allowList) == 0 {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, allowed := range s.allowList {
		if allowed == needle {
			return true
		}
	}
	return false
}
