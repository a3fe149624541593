package dto

import (
	"time"

	"github.com/avdeenko/license-dashboard-api/internal/domain/license"
)

type DashboardSummaryResponse struct {
	TotalLicenses int                    `json:"totalLicenses"`
	StatusCounts  map[license.Status]int `json:"statusCounts"`
	ExpiringSoon  ExpiringSoonSummary    `json:"expiringSoon"`
	GeneratedAt   time.Time              `json:"generatedAt"`
}

type ExpiringSoonSummary struct {
	Count        int          `json:"count"`
	PeriodDays   int          `json:"periodDays"`
	NextToExpire *LicenseInfo `json:"nextToExpire,omitempty"`
}

type LicenseInfo struct {
	LicenseKey string    `json:"licenseKey"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
