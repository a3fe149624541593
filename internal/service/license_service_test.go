package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/domain/license"
	"github.com/avdeenko/license-dashboard-api/internal/handler/dto"
	"github.com/avdeenko/license-dashboard-api/internal/ierr"
	"github.com/avdeenko/license-dashboard-api/internal/view"
)

var testNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

// fakeLicenseRepo mirrors the Postgres repository's contract in memory,
// including the unbound-only guard on BindHWID.
type fakeLicenseRepo struct {
	mu       sync.Mutex
	byKey    map[string]*license.License
	listErr  error
	bindHits int
}

func newFakeLicenseRepo(records ...*license.License) *fakeLicenseRepo {
	r := &fakeLicenseRepo{byKey: make(map[string]*license.License)}
	for _, rec := range records {
		r.byKey[rec.LicenseKey] = rec
	}
	return r
}

func (r *fakeLicenseRepo) List(ctx context.Context) ([]*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*license.License, 0, len(r.byKey))
	for _, rec := range r.byKey {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r *fakeLicenseRepo) FindByKey(ctx context.Context, key string) (*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byKey[key]
	if !ok {
		return nil, license.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeLicenseRepo) Create(ctx context.Context, lic *license.License) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[lic.LicenseKey]; exists {
		return uuid.Nil, license.ErrDuplicateKey
	}
	cp := *lic
	cp.ID = uuid.New()
	r.byKey[cp.LicenseKey] = &cp
	return cp.ID, nil
}

func (r *fakeLicenseRepo) BindHWID(ctx context.Context, key, hwid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byKey[key]
	if !ok {
		return license.ErrNotFound
	}
	if rec.HWID.Valid {
		return license.ErrAlreadyBound
	}
	rec.HWID = sql.NullString{String: hwid, Valid: true}
	r.bindHits++
	return nil
}

func (r *fakeLicenseRepo) ResetHWID(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byKey[key]
	if !ok {
		return license.ErrNotFound
	}
	rec.HWID = sql.NullString{}
	return nil
}

func (r *fakeLicenseRepo) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[key]; !ok {
		return license.ErrNotFound
	}
	delete(r.byKey, key)
	return nil
}

// fakeSummaryCache stores at most one payload, like the Redis summary key.
type fakeSummaryCache struct {
	mu      sync.Mutex
	payload []byte
	sets    int
}

func (c *fakeSummaryCache) Set(ctx context.Context, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = append([]byte(nil), payload...)
	c.sets++
	return nil
}

func (c *fakeSummaryCache) Get(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.payload == nil {
		return nil, errors.New("cache miss")
	}
	return c.payload, nil
}

func newTestLicenseService(records ...*license.License) (*LicenseService, *fakeLicenseRepo, *fakeSummaryCache) {
	repo := newFakeLicenseRepo(records...)
	cache := &fakeSummaryCache{}
	svc := NewLicenseService(repo, cache, 5*time.Minute, zap.NewNop())
	svc.clock = func() time.Time { return testNow }
	return svc, repo, cache
}

func testRecord(key string, expiresAt time.Time, hwid string) *license.License {
	l := &license.License{ID: uuid.New(), LicenseKey: key, ExpiresAt: expiresAt}
	if hwid != "" {
		l.HWID = sql.NullString{String: hwid, Valid: true}
	}
	return l
}

func TestListViewEvaluatesPipeline(t *testing.T) {
	svc, _, _ := newTestLicenseService(
		testRecord("A1", testNow.Add(-24*time.Hour), ""),
		testRecord("B2", testNow.Add(30*24*time.Hour), "hw-1"),
		testRecord("C3", testNow.Add(60*24*time.Hour), ""),
	)

	res, now, err := svc.ListView(context.Background(), view.DefaultState())
	if err != nil {
		t.Fatalf("ListView: %v", err)
	}
	if !now.Equal(testNow) {
		t.Errorf("evaluation clock = %v, want %v", now, testNow)
	}
	if res.TotalCount != 3 || res.FilteredCount != 3 {
		t.Errorf("TotalCount = %d, FilteredCount = %d, want 3, 3", res.TotalCount, res.FilteredCount)
	}
	want := view.Counts{Total: 3, Active: 1, Expired: 1, Available: 1}
	if res.Counts != want {
		t.Errorf("Counts = %+v, want %+v", res.Counts, want)
	}
}

func TestCreateLicenseGeneratesKeyWhenOmitted(t *testing.T) {
	svc, _, _ := newTestLicenseService()

	expires := testNow.Add(90 * 24 * time.Hour)
	lic, err := svc.CreateLicense(context.Background(), &dto.CreateLicenseRequest{ExpiresAt: expires})
	if err != nil {
		t.Fatalf("CreateLicense: %v", err)
	}
	if _, err := uuid.Parse(lic.LicenseKey); err != nil {
		t.Errorf("generated key %q is not a uuid: %v", lic.LicenseKey, err)
	}
}

func TestCreateLicenseRejectsPastExpiry(t *testing.T) {
	svc, _, _ := newTestLicenseService()

	key := "KEY-1"
	past := testNow.Add(-time.Hour)
	_, err := svc.CreateLicense(context.Background(), &dto.CreateLicenseRequest{LicenseKey: &key, ExpiresAt: past})
	if !errors.Is(err, ierr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestCreateLicenseDuplicateKey(t *testing.T) {
	svc, _, _ := newTestLicenseService(testRecord("TAKEN", testNow.Add(24*time.Hour), ""))

	key := "TAKEN"
	_, err := svc.CreateLicense(context.Background(), &dto.CreateLicenseRequest{
		LicenseKey: &key,
		ExpiresAt:  testNow.Add(48 * time.Hour),
	})
	if !errors.Is(err, license.ErrDuplicateKey) {
		t.Errorf("err = %v, want ErrDuplicateKey", err)
	}
}

func TestActivateBindsUnboundLicense(t *testing.T) {
	svc, repo, _ := newTestLicenseService(testRecord("K1", testNow.Add(30*24*time.Hour), ""))

	lic, err := svc.Activate(context.Background(), "K1", "machine-7")
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !lic.HWID.Valid || lic.HWID.String != "machine-7" {
		t.Errorf("hwid after activation = %+v, want machine-7", lic.HWID)
	}
	if repo.bindHits != 1 {
		t.Errorf("bind calls = %d, want 1", repo.bindHits)
	}
}

func TestActivateIsIdempotentForSameHWID(t *testing.T) {
	svc, repo, _ := newTestLicenseService(testRecord("K1", testNow.Add(30*24*time.Hour), "machine-7"))

	lic, err := svc.Activate(context.Background(), "K1", "machine-7")
	if err != nil {
		t.Fatalf("re-activation with same hwid: %v", err)
	}
	if lic.HWID.String != "machine-7" {
		t.Errorf("hwid = %q, want machine-7", lic.HWID.String)
	}
	if repo.bindHits != 0 {
		t.Errorf("re-activation should not rebind, bind calls = %d", repo.bindHits)
	}
}

func TestActivateRefusesOtherHardware(t *testing.T) {
	svc, _, _ := newTestLicenseService(testRecord("K1", testNow.Add(30*24*time.Hour), "machine-7"))

	_, err := svc.Activate(context.Background(), "K1", "machine-8")
	if !errors.Is(err, license.ErrAlreadyBound) {
		t.Errorf("err = %v, want ErrAlreadyBound", err)
	}
}

func TestActivateRefusesExpiredLicense(t *testing.T) {
	svc, _, _ := newTestLicenseService(testRecord("K1", testNow.Add(-time.Hour), ""))

	_, err := svc.Activate(context.Background(), "K1", "machine-7")
	if !errors.Is(err, license.ErrExpired) {
		t.Errorf("err = %v, want ErrExpired", err)
	}
}

func TestActivateUnknownKey(t *testing.T) {
	svc, _, _ := newTestLicenseService()

	_, err := svc.Activate(context.Background(), "MISSING", "machine-7")
	if !errors.Is(err, license.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUnlockHWIDClearsBinding(t *testing.T) {
	svc, _, _ := newTestLicenseService(testRecord("K1", testNow.Add(30*24*time.Hour), "machine-7"))

	lic, err := svc.UnlockHWID(context.Background(), "K1")
	if err != nil {
		t.Fatalf("UnlockHWID: %v", err)
	}
	if lic.HWID.Valid {
		t.Errorf("hwid still set after unlock: %q", lic.HWID.String)
	}
}

func TestRefreshDashboardSummary(t *testing.T) {
	svc, _, cache := newTestLicenseService(
		testRecord("DEAD", testNow.Add(-24*time.Hour), ""),
		testRecord("SOON-B", testNow.Add(5*24*time.Hour), "hw-1"),
		testRecord("SOON-A", testNow.Add(2*24*time.Hour), ""),
		testRecord("FINE", testNow.Add(60*24*time.Hour), "hw-2"),
	)

	summary, err := svc.RefreshDashboardSummary(context.Background())
	if err != nil {
		t.Fatalf("RefreshDashboardSummary: %v", err)
	}

	if summary.TotalLicenses != 4 {
		t.Errorf("TotalLicenses = %d, want 4", summary.TotalLicenses)
	}
	if got := summary.StatusCounts[license.StatusExpired]; got != 1 {
		t.Errorf("expired count = %d, want 1", got)
	}
	if got := summary.StatusCounts[license.StatusExpiring]; got != 2 {
		t.Errorf("expiring count = %d, want 2", got)
	}
	if got := summary.StatusCounts[license.StatusActive]; got != 1 {
		t.Errorf("active count = %d, want 1", got)
	}
	if summary.ExpiringSoon.Count != 2 {
		t.Errorf("ExpiringSoon.Count = %d, want 2", summary.ExpiringSoon.Count)
	}
	if summary.ExpiringSoon.NextToExpire == nil || summary.ExpiringSoon.NextToExpire.LicenseKey != "SOON-A" {
		t.Errorf("NextToExpire = %+v, want SOON-A", summary.ExpiringSoon.NextToExpire)
	}
	if cache.sets != 1 {
		t.Errorf("cache writes = %d, want 1", cache.sets)
	}
}

func TestGetDashboardSummaryServesCachedCopy(t *testing.T) {
	svc, repo, _ := newTestLicenseService(testRecord("K1", testNow.Add(30*24*time.Hour), ""))

	if _, err := svc.RefreshDashboardSummary(context.Background()); err != nil {
		t.Fatalf("priming refresh: %v", err)
	}

	// A repository outage must not matter while the cache holds a copy.
	repo.listErr = errors.New("connection refused")

	summary, err := svc.GetDashboardSummary(context.Background())
	if err != nil {
		t.Fatalf("GetDashboardSummary from cache: %v", err)
	}
	if summary.TotalLicenses != 1 {
		t.Errorf("cached TotalLicenses = %d, want 1", summary.TotalLicenses)
	}
}
