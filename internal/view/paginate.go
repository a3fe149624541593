package view

import "github.com/avdeenko/license-dashboard-api/internal/domain/license"

// Paginate slices records into the requested 1-based page and reports the
// total page count. An empty set still yields one (empty) page so that
// "page 1 of 1" stays a valid display state. Paginate does not clamp the
// caller's page index; it reports totalPages for the caller to react to.
func Paginate(records []*license.License, pageSize, page int) ([]*license.License, int) {
	if pageSize < 1 {
		pageSize = 1
	}

	totalPages := (len(records) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start >= len(records) {
		return []*license.License{}, totalPages
	}

	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], totalPages
}
