package domain

import "time"

// AuditLogEntry is one recorded mutation, adapted from the teacher's
// models.OperationLog onto string IDs and this repo's resource set.
type AuditLogEntry struct {
	ID         string
	UserID     string
	Action     string
	Resource   string
	ResourceID string
	Detail     string
	IP         string
	CreatedAt  time.Time
}

const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionLogin  = "login"
	AuditActionLogout = "logout"
	AuditActionAccept = "accept"
	AuditActionReject = "reject"
	AuditActionExport = "export"
)

const (
	AuditResourceUser               = "user"
	AuditResourceAlert              = "alert"
	AuditResourceIncident           = "incident"
	AuditResourceSilence            = "silence"
	AuditResourceNotificationChannel = "notification_channel"
	AuditResourceRunbookRule        = "runbook_rule"
	AuditResourceOnCallSchedule     = "oncall_schedule"
	AuditResourceEscalationPolicy   = "escalation_policy"
	AuditResourceUserEscalation     = "user_escalation"
)
