// Package dedup finds and updates duplicate firings of an already-known
// alert, grounded in original_source/backend/core/dedup.py.
package dedup

import (
	"context"
	"time"

	"solace/internal/domain"
)

// Finder is the narrow persistence surface this package needs. The
// ingestion coordinator satisfies it with a transaction-scoped repository
// so the duplicate lookup and its update happen under the same lock.
type Finder interface {
	// FindDuplicate returns the most recently created alert matching
	// fingerprint whose status is still firing or acknowledged and whose
	// last_received_at falls within the dedup window, or nil if none.
	FindDuplicate(ctx context.Context, fingerprint string, windowStart time.Time) (*domain.Alert, error)
	// UpdateOccurrence persists the duplicate_count/last_received_at/
	// updated_at changes process_duplicate computes.
	UpdateOccurrence(ctx context.Context, alertID string, duplicateCount int, lastReceivedAt, updatedAt time.Time) error
}

// dedupEligibleStatuses mirrors AlertStatus.in_([FIRING, ACKNOWLEDGED]) in
// the original — a resolved or archived alert is never a dedup target,
// a fresh firing always starts a new Alert row.
var dedupEligibleStatuses = map[domain.AlertStatus]bool{
	domain.AlertStatusFiring:       true,
	domain.AlertStatusAcknowledged: true,
}

// FindDuplicate looks up an existing active alert with the same
// fingerprint received within the dedup window ending at now.
func FindDuplicate(ctx context.Context, finder Finder, fingerprint string, window time.Duration, now time.Time) (*domain.Alert, error) {
	windowStart := now.Add(-window)
	existing, err := finder.FindDuplicate(ctx, fingerprint, windowStart)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if !dedupEligibleStatuses[existing.Status] {
		return nil, nil
	}
	if existing.LastReceivedAt.Before(windowStart) {
		return nil, nil
	}
	return existing, nil
}

// ProcessDuplicate increments the duplicate counter and refreshes the
// last-received timestamp on an existing alert, mirroring
// process_duplicate in the original.
func ProcessDuplicate(ctx context.Context, finder Finder, existing *domain.Alert, now time.Time) (*domain.Alert, error) {
	existing.DuplicateCount++
	existing.LastReceivedAt = now
	existing.UpdatedAt = now

	if err := finder.UpdateOccurrence(ctx, existing.ID, existing.DuplicateCount, existing.LastReceivedAt, existing.UpdatedAt); err != nil {
		return nil, err
	}
	return existing, nil
}
