package domain

import "time"

// NormalizedAlert is the transient shape every provider normalizer
// produces (spec.md §3). It never touches the database directly — the
// ingestion coordinator turns it into a persisted Alert.
type NormalizedAlert struct {
	Name           string
	Source         string
	Severity       Severity
	Status         AlertStatus // firing | resolved only, pre-silence
	Description    string
	Service        string
	Environment    string
	Host           string
	SourceInstance string
	GeneratorURL   string
	RunbookURL     string
	TicketURL      string
	StartsAt       *time.Time
	EndsAt         *time.Time
	Labels         StringMap
	Annotations    StringMap
	Tags           StringList
	RawPayload     RawJSON
}

// Alert is the persistent record of a monitored signal, possibly
// deduplicated across repeated firings (spec.md §3).
type Alert struct {
	ID             string
	Fingerprint    string
	Name           string
	Source         string
	Severity       Severity
	Status         AlertStatus
	Description    string
	Service        string
	Environment    string
	Host           string
	SourceInstance string
	GeneratorURL   string
	RunbookURL     string
	TicketURL      string
	StartsAt       *time.Time
	EndsAt         *time.Time
	Labels         StringMap
	Annotations    StringMap
	Tags           StringList
	RawPayload     RawJSON

	LastReceivedAt  time.Time
	DuplicateCount  int
	AcknowledgedAt  *time.Time
	AcknowledgedBy  string
	ResolvedAt      *time.Time
	ArchivedAt      *time.Time
	IncidentID      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AlertOccurrence is one row per receipt of an Alert (initial + every
// duplicate), owned by Alert and cascade-deleted with it.
type AlertOccurrence struct {
	ID         string
	AlertID    string
	ReceivedAt time.Time
	RawPayload RawJSON
}

// AlertNote is a free-text annotation on an Alert, newest-first.
type AlertNote struct {
	ID        string
	AlertID   string
	Author    string
	Body      string
	CreatedAt time.Time
}

// IdentityFields are the components the fingerprint is computed over.
// Carried as its own type so fingerprint.Compute has a narrow, explicit
// input rather than depending on the full Alert/NormalizedAlert shape.
type IdentityFields struct {
	Source  string
	Name    string
	Service string
	Host    string
	Labels  StringMap
}
