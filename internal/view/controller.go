package view

import (
	"time"

	"github.com/avdeenko/license-dashboard-api/internal/domain/license"
)

// Counts are the dashboard aggregates, always computed from the raw
// (unfiltered) working set. Active and Available partition the not-expired
// records by hardware binding, so Active+Available+Expired == Total.
type Counts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Expired   int `json:"expired"`
	Available int `json:"available"`
}

// Result is one fully evaluated view of the working set.
type Result struct {
	PageItems     []*license.License
	Page          int // effective page index after clamping
	TotalPages    int
	TotalCount    int // size of the raw working set
	FilteredCount int
	Counts        Counts
}

// CountStatuses computes the dashboard aggregates from the raw record list.
func CountStatuses(records []*license.License, now time.Time) Counts {
	var c Counts
	for _, r := range records {
		c.Total++
		switch {
		case license.Classify(r, now) == license.StatusExpired:
			c.Expired++
		case r.HWID.Valid:
			c.Active++
		default:
			c.Available++
		}
	}
	return c
}

// Recompute runs the pipeline in its fixed order: filter, then sort, then
// paginate. Filtering must come first; sorting an unfiltered set and
// filtering per page would produce wrong page contents. A stale page index
// (for example after filtering shrank the set) is clamped down to the fresh
// totalPages, and the effective index is reported back in the result.
// Recompute is pure given its inputs; records are treated as an immutable
// snapshot for the duration of one evaluation.
func Recompute(raw []*license.License, st State, now time.Time) Result {
	counts := CountStatuses(raw, now)

	visible := Filter(raw, st.Search, st.Filter, now)
	visible = Sort(visible, st.SortField, st.SortDir, now)

	_, totalPages := Paginate(visible, st.PageSize, 1)
	page := st.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	items, totalPages := Paginate(visible, st.PageSize, page)

	return Result{
		PageItems:     items,
		Page:          page,
		TotalPages:    totalPages,
		TotalCount:    len(raw),
		FilteredCount: len(visible),
		Counts:        counts,
	}
}
