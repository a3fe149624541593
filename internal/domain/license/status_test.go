package license

import (
	"database/sql"
	"testing"
	"time"
)

var testNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func testLicense(key string, expiresAt time.Time, hwid string) *License {
	l := &License{LicenseKey: key, ExpiresAt: expiresAt}
	if hwid != "" {
		l.HWID = sql.NullString{String: hwid, Valid: true}
	}
	return l
}

func TestClassifyExpired(t *testing.T) {
	l := testLicense("A1", testNow.Add(-24*time.Hour), "")
	if got := Classify(l, testNow); got != StatusExpired {
		t.Errorf("status = %q, want %q", got, StatusExpired)
	}
}

func TestClassifyExpiredEvenWhenBound(t *testing.T) {
	l := testLicense("A1", testNow.Add(-time.Second), "machine-1")
	if got := Classify(l, testNow); got != StatusExpired {
		t.Errorf("status = %q, want %q", got, StatusExpired)
	}
}

func TestClassifyExpiringTakesPrecedenceOverActive(t *testing.T) {
	// Bound hwid, but expiry within 7 days: expiring wins.
	l := testLicense("B2", testNow.Add(3*24*time.Hour), "xyz")
	if got := Classify(l, testNow); got != StatusExpiring {
		t.Errorf("status = %q, want %q", got, StatusExpiring)
	}
}

func TestClassifyExpiringBoundaryInclusive(t *testing.T) {
	// Exactly 7 days out is still expiring.
	l := testLicense("C3", testNow.Add(ExpiringWindow), "")
	if got := Classify(l, testNow); got != StatusExpiring {
		t.Errorf("status at exact window = %q, want %q", got, StatusExpiring)
	}

	l = testLicense("C3", testNow.Add(ExpiringWindow+time.Second), "")
	if got := Classify(l, testNow); got != StatusAvailable {
		t.Errorf("status just past window = %q, want %q", got, StatusAvailable)
	}
}

func TestClassifyActiveVsAvailable(t *testing.T) {
	bound := testLicense("D4", testNow.Add(30*24*time.Hour), "hw-123")
	if got := Classify(bound, testNow); got != StatusActive {
		t.Errorf("bound status = %q, want %q", got, StatusActive)
	}

	unbound := testLicense("D5", testNow.Add(30*24*time.Hour), "")
	if got := Classify(unbound, testNow); got != StatusAvailable {
		t.Errorf("unbound status = %q, want %q", got, StatusAvailable)
	}
}

func TestClassifyIsTotal(t *testing.T) {
	// Every combination of expiry offset and binding yields exactly one of
	// the four statuses.
	offsets := []time.Duration{
		-365 * 24 * time.Hour,
		-time.Second,
		0,
		time.Second,
		ExpiringWindow,
		ExpiringWindow + time.Second,
		365 * 24 * time.Hour,
	}
	hwids := []string{"", "machine-1"}

	known := map[Status]bool{
		StatusAvailable: true,
		StatusActive:    true,
		StatusExpiring:  true,
		StatusExpired:   true,
	}

	for _, off := range offsets {
		for _, hw := range hwids {
			l := testLicense("K", testNow.Add(off), hw)
			got := Classify(l, testNow)
			if !known[got] {
				t.Errorf("Classify(offset=%v, hwid=%q) = %q, not a known status", off, hw, got)
			}
		}
	}
}

func TestClassifyDependsOnClock(t *testing.T) {
	l := testLicense("E5", testNow.Add(10*24*time.Hour), "")

	if got := Classify(l, testNow); got != StatusAvailable {
		t.Errorf("status now = %q, want %q", got, StatusAvailable)
	}
	later := testNow.Add(5 * 24 * time.Hour)
	if got := Classify(l, later); got != StatusExpiring {
		t.Errorf("status 5 days later = %q, want %q", got, StatusExpiring)
	}
	muchLater := testNow.Add(20 * 24 * time.Hour)
	if got := Classify(l, muchLater); got != StatusExpired {
		t.Errorf("status 20 days later = %q, want %q", got, StatusExpired)
	}
}

func TestStatusRankOrder(t *testing.T) {
	ordered := []Status{StatusAvailable, StatusActive, StatusExpiring, StatusExpired}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("Rank(%q) = %d should be below Rank(%q) = %d",
				ordered[i-1], ordered[i-1].Rank(), ordered[i], ordered[i].Rank())
		}
	}
}
