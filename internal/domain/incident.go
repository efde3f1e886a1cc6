package domain

import "time"

// Incident groups related alerts believed to share a root cause
// (spec.md §3).
type Incident struct {
	ID         string
	Title      string
	Status     IncidentStatus
	Severity   Severity
	Summary    string
	Phase      string
	StartedAt  time.Time
	AcknowledgedAt *time.Time
	ResolvedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Alerts is populated by callers that need the member set (e.g.
	// correlate.FindMatchingIncident, auto-resolve checks); it is not
	// always loaded.
	Alerts []Alert
}

// IncidentEvent is an append-only audit row on an Incident.
type IncidentEvent struct {
	ID          string
	IncidentID  string
	EventType   IncidentEventType
	Description string
	Actor       string
	EventData   RawJSON
	CreatedAt   time.Time
}
