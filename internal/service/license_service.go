package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/domain/license"
	"github.com/avdeenko/license-dashboard-api/internal/handler/dto"
	"github.com/avdeenko/license-dashboard-api/internal/ierr"
	"github.com/avdeenko/license-dashboard-api/internal/metrics"
	"github.com/avdeenko/license-dashboard-api/internal/view"
)

// SummaryCache is the storage the dashboard summary is parked in between
// recomputations. The Redis-backed implementation lives in storage/redis.
type SummaryCache interface {
	Set(ctx context.Context, payload []byte, ttl time.Duration) error
	Get(ctx context.Context) ([]byte, error)
}

type LicenseService struct {
	repo       license.Repository
	summaries  SummaryCache
	summaryTTL time.Duration
	logger     *zap.Logger
	clock      func() time.Time
}

func NewLicenseService(repo license.Repository, summaries SummaryCache, summaryTTL time.Duration, logger *zap.Logger) *LicenseService {
	return &LicenseService{
		repo:       repo,
		summaries:  summaries,
		summaryTTL: summaryTTL,
		logger:     logger.Named("LicenseService"),
		clock:      time.Now,
	}
}

// ListView fetches the full working set and evaluates the view pipeline over
// it as one immutable snapshot.
func (s *LicenseService) ListView(ctx context.Context, st view.State) (*view.Result, time.Time, error) {
	raw, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list licenses via repository", zap.Error(err))
		return nil, time.Time{}, fmt.Errorf("repository error listing licenses: %w", err)
	}

	now := s.clock().UTC()
	result := view.Recompute(raw, st, now)
	return &result, now, nil
}

func (s *LicenseService) CreateLicense(ctx context.Context, req *dto.CreateLicenseRequest) (*license.License, error) {
	key := uuid.NewString()
	if req.LicenseKey != nil {
		key = *req.LicenseKey
	}

	now := s.clock().UTC()
	if !req.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expires_at must be in the future", ierr.ErrValidation)
	}

	s.logger.Info("Attempting to create a new license", zap.String("license_key", key), zap.Time("expires_at", req.ExpiresAt))

	newLicense := &license.License{
		LicenseKey: key,
		ExpiresAt:  req.ExpiresAt.UTC(),
	}

	if _, err := s.repo.Create(ctx, newLicense); err != nil {
		s.logger.Error("Failed to create license via repository", zap.Error(err))
		return nil, fmt.Errorf("repository error during license creation: %w", err)
	}

	createdLicense, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		s.logger.Error("Failed to find newly created license", zap.String("license_key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve created license (key: %s): %w", key, err)
	}

	s.logger.Info("License created successfully", zap.String("id", createdLicense.ID.String()), zap.String("key", createdLicense.LicenseKey))
	return createdLicense, nil
}

// UnlockHWID clears the hardware binding so the key can be activated on a
// different machine.
func (s *LicenseService) UnlockHWID(ctx context.Context, key string) (*license.License, error) {
	s.logger.Info("Resetting hardware binding", zap.String("license_key", key))

	if err := s.repo.ResetHWID(ctx, key); err != nil {
		return nil, err
	}
	return s.repo.FindByKey(ctx, key)
}

func (s *LicenseService) DeleteLicense(ctx context.Context, key string) error {
	s.logger.Info("Deleting license", zap.String("license_key", key))
	return s.repo.Delete(ctx, key)
}

// Activate performs the agent-side first bind of a hardware id. Re-activation
// with the already-bound hwid is idempotent; an expired key or a key bound
// elsewhere is refused.
func (s *LicenseService) Activate(ctx context.Context, key, hwid string) (*license.License, error) {
	lic, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	if license.Classify(lic, now) == license.StatusExpired {
		s.logger.Info("Refusing activation of expired license", zap.String("license_key", key))
		return nil, license.ErrExpired
	}

	if lic.HWID.Valid {
		if lic.HWID.String == hwid {
			return lic, nil
		}
		s.logger.Info("Refusing activation: license bound to another hardware id", zap.String("license_key", key))
		return nil, license.ErrAlreadyBound
	}

	if err := s.repo.BindHWID(ctx, key, hwid); err != nil {
		return nil, err
	}

	s.logger.Info("License activated", zap.String("license_key", key))
	return s.repo.FindByKey(ctx, key)
}

// GetDashboardSummary serves the cached summary when present and recomputes
// it otherwise.
func (s *LicenseService) GetDashboardSummary(ctx context.Context) (*dto.DashboardSummaryResponse, error) {
	if data, err := s.summaries.Get(ctx); err == nil {
		var summary dto.DashboardSummaryResponse
		if err := json.Unmarshal(data, &summary); err == nil {
			return &summary, nil
		}
		s.logger.Warn("Discarding malformed cached dashboard summary")
	}

	return s.RefreshDashboardSummary(ctx)
}

// RefreshDashboardSummary recomputes the summary from the raw working set,
// publishes the status gauges and replaces the cached copy. The periodic
// worker calls this on a schedule.
func (s *LicenseService) RefreshDashboardSummary(ctx context.Context) (*dto.DashboardSummaryResponse, error) {
	raw, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list licenses for dashboard summary", zap.Error(err))
		return nil, fmt.Errorf("repository error building summary: %w", err)
	}

	now := s.clock().UTC()
	statusCounts := map[license.Status]int{
		license.StatusAvailable: 0,
		license.StatusActive:    0,
		license.StatusExpiring:  0,
		license.StatusExpired:   0,
	}

	expiring := dto.ExpiringSoonSummary{
		PeriodDays: int(license.ExpiringWindow / (24 * time.Hour)),
	}

	for _, lic := range raw {
		status := license.Classify(lic, now)
		statusCounts[status]++
		if status == license.StatusExpiring {
			expiring.Count++
			if expiring.NextToExpire == nil || lic.ExpiresAt.Before(expiring.NextToExpire.ExpiresAt) {
				expiring.NextToExpire = &dto.LicenseInfo{
					LicenseKey: lic.LicenseKey,
					ExpiresAt:  lic.ExpiresAt,
				}
			}
		}
	}

	metrics.SetStatusCounts(statusCounts)

	summary := &dto.DashboardSummaryResponse{
		TotalLicenses: len(raw),
		StatusCounts:  statusCounts,
		ExpiringSoon:  expiring,
		GeneratedAt:   now,
	}

	if data, err := json.Marshal(summary); err == nil {
		if err := s.summaries.Set(ctx, data, s.summaryTTL); err != nil {
			s.logger.Warn("Failed to cache refreshed dashboard summary", zap.Error(err))
		}
	}

	return summary, nil
}
