package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/domain"
)

type fakeFinder struct {
	byFingerprint map[string]*domain.Alert
	updated       bool
	updatedCount  int
	updatedAt     time.Time
}

func (f *fakeFinder) FindDuplicate(ctx context.Context, fingerprint string, windowStart time.Time) (*domain.Alert, error) {
	a, ok := f.byFingerprint[fingerprint]
	if !ok {
		return nil, nil
	}
	return a, nil
}

func (f *fakeFinder) UpdateOccurrence(ctx context.Context, alertID string, duplicateCount int, lastReceivedAt, updatedAt time.Time) error {
	f.updated = true
	f.updatedCount = duplicateCount
	f.updatedAt = updatedAt
	return nil
}

func TestFindDuplicateReturnsMatchWithinWindow(t *testing.T) {
	now := time.Now().UTC()
	finder := &fakeFinder{byFingerprint: map[string]*domain.Alert{
		"fp1": {ID: "a1", Status: domain.AlertStatusFiring, LastReceivedAt: now.Add(-30 * time.Second)},
	}}

	found, err := FindDuplicate(context.Background(), finder, "fp1", time.Minute, now)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a1", found.ID)
}

func TestFindDuplicateReturnsNilWhenOutsideWindow(t *testing.T) {
	now := time.Now().UTC()
	finder := &fakeFinder{byFingerprint: map[string]*domain.Alert{
		"fp1": {ID: "a1", Status: domain.AlertStatusFiring, LastReceivedAt: now.Add(-5 * time.Minute)},
	}}

	found, err := FindDuplicate(context.Background(), finder, "fp1", time.Minute, now)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindDuplicateReturnsNilWhenResolved(t *testing.T) {
	now := time.Now().UTC()
	finder := &fakeFinder{byFingerprint: map[string]*domain.Alert{
		"fp1": {ID: "a1", Status: domain.AlertStatusResolved, LastReceivedAt: now.Add(-10 * time.Second)},
	}}

	found, err := FindDuplicate(context.Background(), finder, "fp1", time.Minute, now)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindDuplicateReturnsNilWhenNoneExists(t *testing.T) {
	finder := &fakeFinder{byFingerprint: map[string]*domain.Alert{}}

	found, err := FindDuplicate(context.Background(), finder, "fp1", time.Minute, time.Now())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestProcessDuplicateIncrementsCountAndPersists(t *testing.T) {
	finder := &fakeFinder{byFingerprint: map[string]*domain.Alert{}}
	now := time.Now().UTC()
	existing := &domain.Alert{ID: "a1", DuplicateCount: 2}

	updated, err := ProcessDuplicate(context.Background(), finder, existing, now)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.DuplicateCount)
	assert.Equal(t, now, updated.LastReceivedAt)
	assert.Equal(t, now, updated.UpdatedAt)
	assert.True(t, finder.updated)
	assert.Equal(t, 3, finder.updatedCount)
}
