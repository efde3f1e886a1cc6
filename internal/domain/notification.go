package domain

import "time"

// NotificationChannel is an outbound communication endpoint
// (spec.md §3/§4.7).
type NotificationChannel struct {
	ID         string
	Name       string
	ChannelType ChannelType
	Config     ChannelConfig
	Filters    ChannelFilters
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NotificationLog is an append-only audit row of one dispatch attempt.
type NotificationLog struct {
	ID           string
	ChannelID    string
	IncidentID   string
	EventType    IncidentEventType
	Status       NotificationStatus
	ErrorMessage string
	SentAt       *time.Time
	CreatedAt    time.Time
}
