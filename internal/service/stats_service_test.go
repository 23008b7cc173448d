package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/admin-api/internal/models"
	appErrors "github.com/saferoute/admin-api/pkg/errors"
)

type statusCounterStub struct {
	counts map[string][]models.StatusCount
	calls  int
}

func (s *statusCounterStub) CountByStatus(_ context.Context, barangay string) ([]models.StatusCount, error) {
	s.calls++
	return s.counts[barangay], nil
}

type memCacheRepo struct {
	entries map[string][]byte
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{entries: make(map[string][]byte)}
}

func (m *memCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestStatsCountsGlobalScope(t *testing.T) {
	counter := &statusCounterStub{counts: map[string][]models.StatusCount{
		models.AllBarangays: {
			{Status: models.StatusPending, Total: 4},
			{Status: models.StatusVerified, Total: 2},
			{Status: models.StatusResolved, Total: 1},
		},
	}}
	svc := NewStatsService(counter, nil, time.Minute, nil)

	stats, err := svc.Counts(context.Background(), superAdmin())
	require.NoError(t, err)
	assert.Equal(t, models.AllBarangays, stats.Barangay)
	assert.Equal(t, 4, stats.Pending)
	assert.Equal(t, 2, stats.Verified)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 0, stats.Rejected)
	assert.Equal(t, 7, stats.Total)
}

func TestStatsCountsRestrictedScope(t *testing.T) {
	counter := &statusCounterStub{counts: map[string][]models.StatusCount{
		"Carig Sur": {{Status: models.StatusPending, Total: 3}},
	}}
	svc := NewStatsService(counter, nil, time.Minute, nil)

	viewer := Viewer{UserID: "ba-1", Role: models.RoleBarangayAdmin, Barangay: "carig sur"}
	stats, err := svc.Counts(context.Background(), viewer)
	require.NoError(t, err)
	assert.Equal(t, "Carig Sur", stats.Barangay)
	assert.Equal(t, 3, stats.Total)
}

func TestStatsCountsServesFromCache(t *testing.T) {
	counter := &statusCounterStub{counts: map[string][]models.StatusCount{
		models.AllBarangays: {{Status: models.StatusPending, Total: 1}},
	}}
	cache := NewCacheService(newMemCacheRepo(), nil, time.Minute, nil, true)
	svc := NewStatsService(counter, cache, time.Minute, nil)

	_, err := svc.Counts(context.Background(), superAdmin())
	require.NoError(t, err)
	_, err = svc.Counts(context.Background(), superAdmin())
	require.NoError(t, err)

	assert.Equal(t, 1, counter.calls, "second read must be a cache hit")
}

func TestStatsCacheInvalidatedByMutation(t *testing.T) {
	counter := &statusCounterStub{counts: map[string][]models.StatusCount{
		models.AllBarangays: {{Status: models.StatusPending, Total: 1}},
	}}
	cache := NewCacheService(newMemCacheRepo(), nil, time.Minute, nil, true)
	stats := NewStatsService(counter, cache, time.Minute, nil)

	store := newReportStoreStub()
	store.byID["r1"] = &models.Report{ID: "r1"}
	reports := NewReportService(store, enricherStub{}, cache, nil)

	_, err := stats.Counts(context.Background(), superAdmin())
	require.NoError(t, err)
	require.NoError(t, reports.UpdateStatus(context.Background(), "r1", models.StatusResolved))

	_, err = stats.Counts(context.Background(), superAdmin())
	require.NoError(t, err)
	assert.Equal(t, 2, counter.calls, "mutation must drop the cached tally")
}
