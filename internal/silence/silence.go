// Package silence checks normalized alerts against active silence windows
// before they reach correlation, grounded in
// original_source/backend/core/silence.py.
package silence

import (
	"context"
	"time"

	"solace/internal/domain"
	"solace/pkg/logging"
)

// Matches reports whether matchers select the alert. All present matcher
// fields are AND-combined; an empty or missing field matches everything.
func Matches(matchers domain.SilenceMatchers, alert domain.NormalizedAlert) bool {
	if len(matchers.Service) > 0 {
		if alert.Service == "" || !contains(matchers.Service, alert.Service) {
			return false
		}
	}

	if len(matchers.Severity) > 0 {
		if alert.Severity == "" || !containsSeverity(matchers.Severity, alert.Severity) {
			return false
		}
	}

	if len(matchers.Labels) > 0 {
		for key, value := range matchers.Labels {
			if alert.Labels == nil || alert.Labels[key] != value {
				return false
			}
		}
	}

	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsSeverity(list []string, v domain.Severity) bool {
	for _, item := range list {
		if domain.Severity(item) == v {
			return true
		}
	}
	return false
}

// WindowLister is satisfied by the silence repository; kept narrow so this
// package doesn't depend on the full repository or pgx types.
type WindowLister interface {
	ListActive(ctx context.Context, now time.Time) ([]domain.SilenceWindow, error)
}

// Check finds the first active silence window whose matchers select the
// alert, returning nil if none match. Windows are evaluated in the order
// the lister returns them.
func Check(ctx context.Context, windows WindowLister, alert domain.NormalizedAlert) (*domain.SilenceWindow, error) {
	now := time.Now().UTC()

	active, err := windows.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}

	for i := range active {
		w := active[i]
		if !w.Active(now) {
			continue
		}
		if Matches(w.Matchers, alert) {
			logging.L().WithFields(map[string]interface{}{
				"alert":  alert.Name,
				"window": w.Name,
			}).Info("alert silenced")
			return &w, nil
		}
	}

	return nil, nil
}
