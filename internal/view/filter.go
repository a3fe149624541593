package view

import (
	"strings"
	"time"

	"github.com/avdeenko/license-dashboard-api/internal/domain/license"
)

// Filter reduces records to those matching both the search term and the
// status predicate. Order is preserved. An empty search term matches
// everything; otherwise the term is matched case-insensitively as a
// substring of the license key or, when bound, the hardware id.
func Filter(records []*license.License, search string, filter StatusFilter, now time.Time) []*license.License {
	term := strings.ToLower(strings.TrimSpace(search))

	out := make([]*license.License, 0, len(records))
	for _, r := range records {
		if !matchesSearch(r, term) {
			continue
		}
		if !matchesStatus(r, filter, now) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r *license.License, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.LicenseKey), term) {
		return true
	}
	return r.HWID.Valid && strings.Contains(strings.ToLower(r.HWID.String), term)
}

func matchesStatus(r *license.License, filter StatusFilter, now time.Time) bool {
	switch filter {
	case FilterNotExpired:
		// "active" on the wire means not yet expired, which also admits
		// expiring and available records.
		return license.Classify(r, now) != license.StatusExpired
	case FilterExpired:
		return license.Classify(r, now) == license.StatusExpired
	case FilterExpiring:
		return license.Classify(r, now) == license.StatusExpiring
	default:
		return true
	}
}
