package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/ierr"
	"github.com/avdeenko/license-dashboard-api/internal/service"
)

const (
	authorizationHeader     = "Authorization"
	bearerPrefix            = "Bearer "
	sessionClaimsContextKey = "sessionClaims"
)

func AuthMiddleware(authService *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		tokenString := BearerToken(c)
		if tokenString == "" {
			log.Debug("Authorization header missing or malformed")
			_ = c.Error(fmt.Errorf("%w: bearer token required", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			log.Warn("Token validation failed", zap.Error(err))
			_ = c.Error(err)
			c.Abort()
			return
		}

		log.Debug("Session token validated, setting claims in context", zap.String("email", claims.Email))
		c.Set(sessionClaimsContextKey, claims)

		c.Next()
	}
}

// BearerToken extracts the raw token from the Authorization header, or ""
// when the header is absent or not a bearer scheme.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(authorizationHeader)
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, bearerPrefix)
}

func GetSessionClaims(c *gin.Context) *service.SessionClaims {
	value, exists := c.Get(sessionClaimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*service.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
