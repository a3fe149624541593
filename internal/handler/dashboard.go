package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/service"
)

type DashboardHandler struct {
	licenseService *service.LicenseService
	logger         *zap.Logger
}

func NewDashboardHandler(licenseService *service.LicenseService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		licenseService: licenseService,
		logger:         logger.Named("DashboardHandler"),
	}
}

func (h *DashboardHandler) GetSummary(c *gin.Context) {
	h.logger.Debug("Received request for dashboard summary")

	summary, err := h.licenseService.GetDashboardSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get dashboard summary from service", zap.Error(err))
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
