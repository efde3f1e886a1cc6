package domain

import "time"

// SilenceWindow is a time-bounded, matcher-driven maintenance window that
// suppresses matching alerts (spec.md §3/§4.4).
type SilenceWindow struct {
	ID        string
	Name      string
	Matchers  SilenceMatchers
	StartsAt  time.Time
	EndsAt    time.Time
	IsActive  bool
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the window suppresses alerts at the given instant.
func (w SilenceWindow) Active(now time.Time) bool {
	return w.IsActive && !now.Before(w.StartsAt) && !now.After(w.EndsAt)
}

// RunbookRule maps an alert shape to a templated runbook URL
// (spec.md §3/§4.5).
type RunbookRule struct {
	ID                string
	ServicePattern    string
	NamePattern       string
	RunbookURLTemplate string
	Priority          int
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
