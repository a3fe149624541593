package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/handler/dto"
	"github.com/avdeenko/license-dashboard-api/internal/ierr"
	"github.com/avdeenko/license-dashboard-api/internal/service"
)

type LicenseHandler struct {
	service *service.LicenseService
	logger  *zap.Logger
}

func NewLicenseHandler(service *service.LicenseService, logger *zap.Logger) *LicenseHandler {
	return &LicenseHandler{
		service: service,
		logger:  logger.Named("LicenseHandler"),
	}
}

// List evaluates the view pipeline server-side: the query parameters carry
// the full view state, the response carries one page plus the aggregates.
func (h *LicenseHandler) List(c *gin.Context) {
	var req dto.ListLicensesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Failed to bind or validate query parameters", zap.Error(err))
		_ = c.Error(err)
		return
	}

	result, now, err := h.service.ListView(c.Request.Context(), req.ViewState())
	if err != nil {
		h.logger.Error("Service failed to list licenses", zap.Error(err))
		_ = c.Error(err)
		return
	}

	items := make([]*dto.LicenseResponse, len(result.PageItems))
	for i, lic := range result.PageItems {
		items[i] = dto.NewLicenseResponse(lic, now)
	}

	c.JSON(http.StatusOK, dto.LicenseListResponse{
		Items:         items,
		Page:          result.Page,
		TotalPages:    result.TotalPages,
		TotalCount:    result.TotalCount,
		FilteredCount: result.FilteredCount,
		StatusCounts:  result.Counts,
	})
}

func (h *LicenseHandler) Create(c *gin.Context) {
	h.logger.Debug("Received request to create license")
	var req dto.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate request body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrValidation, err))
		return
	}

	createdLicense, err := h.service.CreateLicense(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Service failed to create license", zap.Error(err))
		_ = c.Error(err)
		return
	}

	h.logger.Info("License created successfully via handler", zap.String("key", createdLicense.LicenseKey))
	c.JSON(http.StatusCreated, dto.NewLicenseResponse(createdLicense, time.Now().UTC()))
}

// Unlock clears the hardware binding so the license can be rebound.
func (h *LicenseHandler) Unlock(c *gin.Context) {
	key := c.Param("key")
	h.logger.Debug("Received request to unlock license", zap.String("license_key", key))

	lic, err := h.service.UnlockHWID(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("Service failed to unlock license", zap.String("license_key", key), zap.Error(err))
		_ = c.Error(err)
		return
	}

	h.logger.Info("License unlocked via handler", zap.String("license_key", key))
	c.JSON(http.StatusOK, dto.NewLicenseResponse(lic, time.Now().UTC()))
}

func (h *LicenseHandler) Delete(c *gin.Context) {
	key := c.Param("key")
	h.logger.Debug("Received request to delete license", zap.String("license_key", key))

	if err := h.service.DeleteLicense(c.Request.Context(), key); err != nil {
		h.logger.Error("Service failed to delete license", zap.String("license_key", key), zap.Error(err))
		_ = c.Error(err)
		return
	}

	h.logger.Info("License deleted via handler", zap.String("license_key", key))
	c.Status(http.StatusNoContent)
}

// Activate is the agent-facing first bind of a hardware id; it sits behind
// API-key auth rather than the operator session.
func (h *LicenseHandler) Activate(c *gin.Context) {
	var req dto.ActivateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate activation request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrValidation, err))
		return
	}

	lic, err := h.service.Activate(c.Request.Context(), req.LicenseKey, req.HWID)
	if err != nil {
		h.logger.Warn("Activation refused", zap.String("license_key", req.LicenseKey), zap.Error(err))
		_ = c.Error(err)
		return
	}

	h.logger.Info("License activated via handler", zap.String("license_key", req.LicenseKey))
	c.JSON(http.StatusOK, dto.NewLicenseResponse(lic, time.Now().UTC()))
}
