package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/handler/dto"
	"github.com/avdeenko/license-dashboard-api/internal/handler/middleware"
	"github.com/avdeenko/license-dashboard-api/internal/ierr"
	"github.com/avdeenko/license-dashboard-api/internal/service"
)

type AuthHandler struct {
	service *service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(service *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.Named("AuthHandler"),
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind login request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: email and password are required", ierr.ErrValidation))
		return
	}

	token, claims, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("Login refused", zap.String("email", req.Email), zap.Error(err))
		_ = c.Error(err)
		return
	}

	h.logger.Info("User logged in successfully", zap.String("email", claims.Email))
	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: token,
		Email:       claims.Email,
		ExpiresAt:   claims.ExpiresAt.Time,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken := middleware.BearerToken(c)
	if rawToken == "" {
		_ = c.Error(fmt.Errorf("%w: authorization header required", ierr.ErrUnauthorized))
		return
	}

	if err := h.service.Logout(c.Request.Context(), rawToken); err != nil {
		h.logger.Warn("Logout failed", zap.Error(err))
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Session reports the authenticated identity attached by the auth middleware.
func (h *AuthHandler) Session(c *gin.Context) {
	claims := middleware.GetSessionClaims(c)
	if claims == nil {
		_ = c.Error(ierr.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}
