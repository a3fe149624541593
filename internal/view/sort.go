package view

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/avdeenko/license-dashboard-api/internal/domain/license"
)

// Sort orders records by the chosen field and direction and returns a new
// slice; the input is left untouched. The sort is stable: records with equal
// keys keep their relative input order. Desc negates the comparator rather
// than reversing the result, so stability survives direction changes.
func Sort(records []*license.License, field SortField, dir Direction, now time.Time) []*license.License {
	out := make([]*license.License, len(records))
	copy(out, records)

	cmp := comparator(field, now)
	if dir == Desc {
		asc := cmp
		cmp = func(a, b *license.License) int { return -asc(a, b) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func comparator(field SortField, now time.Time) func(a, b *license.License) int {
	switch field {
	case SortByKey:
		coll := collate.New(language.Und)
		return func(a, b *license.License) int {
			return coll.CompareString(a.LicenseKey, b.LicenseKey)
		}
	case SortByHWID:
		// An absent hwid sorts as the empty string.
		coll := collate.New(language.Und)
		return func(a, b *license.License) int {
			return coll.CompareString(a.HWIDValue(), b.HWIDValue())
		}
	case SortByStatus:
		return func(a, b *license.License) int {
			return license.Classify(a, now).Rank() - license.Classify(b, now).Rank()
		}
	default:
		return func(a, b *license.License) int {
			return a.ExpiresAt.Compare(b.ExpiresAt)
		}
	}
}
