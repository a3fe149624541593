package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avdeenko/license-dashboard-api/internal/domain/license"
)

var licensesByStatus = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "license_dashboard",
		Name:      "licenses_by_status",
		Help:      "Number of licenses per derived status, refreshed by the periodic expiry report.",
	},
	[]string{"status"},
)

// SetStatusCounts publishes a full status breakdown. Statuses missing from
// the map are reset to zero so stale gauges do not linger after the last
// record in that state disappears.
func SetStatusCounts(counts map[license.Status]int) {
	for _, s := range []license.Status{
		license.StatusAvailable,
		license.StatusActive,
		license.StatusExpiring,
		license.StatusExpired,
	} {
		licensesByStatus.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
