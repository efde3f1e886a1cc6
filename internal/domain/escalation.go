package domain

import "time"

// EscalationStatus is the lifecycle state of a manual operator handoff.
type EscalationStatus string

const (
	EscalationPending  EscalationStatus = "pending"
	EscalationAccepted EscalationStatus = "accepted"
	EscalationRejected EscalationStatus = "rejected"
	EscalationResolved EscalationStatus = "resolved"
)

// UserEscalation is an operator-initiated handoff of an alert from one
// user to another, distinct from the policy-driven auto-escalation that
// internal/oncall resolves.
type UserEscalation struct {
	ID           string
	AlertID      string
	FromUserID   string
	FromUsername string
	ToUserID     string
	ToUsername   string
	Reason       string
	Status       EscalationStatus
	CreatedAt    time.Time
	ResolvedAt   *time.Time
}
