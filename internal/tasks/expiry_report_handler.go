package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/service"
)

// ExpiryReportHandler periodically re-derives the status breakdown of the
// whole working set. Statuses are never written back to the store; the
// refresh only feeds the metrics gauges and the cached dashboard summary.
type ExpiryReportHandler struct {
	licenses *service.LicenseService
	logger   *zap.Logger
}

func NewExpiryReportHandler(licenses *service.LicenseService, logger *zap.Logger) *ExpiryReportHandler {
	return &ExpiryReportHandler{
		licenses: licenses,
		logger:   logger.Named("ExpiryReportHandler"),
	}
}

func (h *ExpiryReportHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeExpiryReport {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p ExpiryReportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal expiry report payload", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v", err)
	}

	h.logger.Info("Refreshing license expiry report...")

	summary, err := h.licenses.RefreshDashboardSummary(ctx)
	if err != nil {
		h.logger.Error("Failed to refresh dashboard summary", zap.Error(err))
		return fmt.Errorf("refreshing dashboard summary: %w", err)
	}

	h.logger.Info("License expiry report refreshed",
		zap.Int("total", summary.TotalLicenses),
		zap.Int("expiring", summary.ExpiringSoon.Count),
	)
	return nil
}
