package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/avdeenko/license-dashboard-api/internal/domain/license"
	"github.com/avdeenko/license-dashboard-api/internal/view"
)

type CreateLicenseRequest struct {
	// LicenseKey is optional; a fresh key is generated when absent.
	LicenseKey *string   `json:"license_key" binding:"omitempty,min=4"`
	ExpiresAt  time.Time `json:"expires_at" binding:"required"`
}

type LicenseResponse struct {
	ID         uuid.UUID      `json:"id"`
	LicenseKey string         `json:"license_key"`
	Status     license.Status `json:"status"`
	HWID       *string        `json:"hwid,omitempty"`
	ExpiresAt  time.Time      `json:"expires_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewLicenseResponse derives the display status at the given instant; status
// is never read from storage.
func NewLicenseResponse(lic *license.License, now time.Time) *LicenseResponse {
	resp := &LicenseResponse{
		ID:         lic.ID,
		LicenseKey: lic.LicenseKey,
		Status:     license.Classify(lic, now),
		ExpiresAt:  lic.ExpiresAt,
		CreatedAt:  lic.CreatedAt,
		UpdatedAt:  lic.UpdatedAt,
	}
	if lic.HWID.Valid {
		resp.HWID = &lic.HWID.String
	}
	return resp
}

type ListLicensesRequest struct {
	Search    string `form:"search"`
	Status    string `form:"status,default=all" binding:"omitempty,oneof=all active expired expiring"`
	SortBy    string `form:"sort_by,default=expires_at" binding:"omitempty,oneof=license_key status hwid expires_at"`
	SortOrder string `form:"sort_order,default=asc" binding:"omitempty,oneof=asc desc"`
	PageSize  int    `form:"page_size,default=10" binding:"omitempty,gte=1,lte=100"`
	Page      int    `form:"page,default=1" binding:"omitempty,gte=1"`
}

func (r *ListLicensesRequest) ViewState() view.State {
	st := view.DefaultState()
	st.Search = r.Search
	if r.Status != "" {
		st.Filter = view.StatusFilter(r.Status)
	}
	if r.SortBy != "" {
		st.SortField = view.SortField(r.SortBy)
	}
	if r.SortOrder != "" {
		st.SortDir = view.Direction(r.SortOrder)
	}
	if r.PageSize > 0 {
		st.PageSize = r.PageSize
	}
	if r.Page > 0 {
		st.Page = r.Page
	}
	return st
}

type LicenseListResponse struct {
	Items         []*LicenseResponse `json:"items"`
	Page          int                `json:"page"`
	TotalPages    int                `json:"totalPages"`
	TotalCount    int                `json:"totalCount"`
	FilteredCount int                `json:"filteredCount"`
	StatusCounts  view.Counts        `json:"statusCounts"`
}

type ActivateLicenseRequest struct {
	LicenseKey string `json:"license_key" binding:"required"`
	HWID       string `json:"hwid" binding:"required"`
}
