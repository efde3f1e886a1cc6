package services

import (
	"time"

	"solace/internal/domain"
)

// Broadcaster delivers real-time notifications (e.g. WebSocket).
// Implemented by handlers.WebSocketHandler to avoid package cycles.
//
// The four Alert*/Incident* methods are the ingestion coordinator's event
// sink — every stage that mutates an Alert or Incident pushes through one
// of these instead of writing to the socket directly.
type Broadcaster interface {
	SendAlertNotification(notification *AlertNotification)

	AlertCreated(alert domain.Alert)
	AlertUpdated(alert domain.Alert)
	IncidentCreated(incident domain.Incident)
	IncidentUpdated(incident domain.Incident)
}

type AlertNotification struct {
	AlertID   string            `json:"alert_id"`
	RuleID    string            `json:"rule_id"`
	RuleName  string            `json:"rule_name"`
	Severity  string            `json:"severity"`
	Status    string            `json:"status"`
	Labels    map[string]string `json:"labels"`
	Timestamp time.Time         `json:"timestamp"`
}
