package main

import (
	"context"

	"solace/internal/repository"
)

// runMigrations applies the full data model in the teacher's own idiom:
// sequential, idempotent CREATE TABLE/ALTER TABLE statements executed at
// boot, rather than a migration framework the teacher itself doesn't use.
func runMigrations(ctx context.Context, db *repository.Database) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(128) UNIQUE NOT NULL,
			username VARCHAR(64) UNIQUE NOT NULL,
			hashed_password VARCHAR(255) NOT NULL,
			display_name VARCHAR(128),
			role VARCHAR(32) DEFAULT 'user',
			is_active BOOLEAN DEFAULT TRUE,
			must_change_password BOOLEAN DEFAULT FALSE,
			last_login_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS incidents (
			id UUID PRIMARY KEY,
			title VARCHAR(256) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'open',
			severity VARCHAR(32) NOT NULL,
			summary TEXT,
			phase VARCHAR(32),
			started_at TIMESTAMP NOT NULL,
			acknowledged_at TIMESTAMP,
			resolved_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS incident_events (
			id UUID PRIMARY KEY,
			incident_id UUID NOT NULL REFERENCES incidents(id) ON DELETE CASCADE,
			event_type VARCHAR(32) NOT NULL,
			description TEXT,
			actor VARCHAR(128),
			event_data JSONB,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id UUID PRIMARY KEY,
			fingerprint VARCHAR(256) NOT NULL,
			name VARCHAR(256) NOT NULL,
			source VARCHAR(64) NOT NULL,
			severity VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL,
			description TEXT,
			service VARCHAR(128),
			environment VARCHAR(64),
			host VARCHAR(256),
			source_instance VARCHAR(256),
			generator_url VARCHAR(512),
			runbook_url VARCHAR(512),
			ticket_url VARCHAR(512),
			starts_at TIMESTAMP,
			ends_at TIMESTAMP,
			labels JSONB,
			annotations JSONB,
			tags JSONB,
			raw_payload JSONB,
			last_received_at TIMESTAMP NOT NULL,
			duplicate_count INT DEFAULT 0,
			acknowledged_at TIMESTAMP,
			acknowledged_by VARCHAR(128),
			resolved_at TIMESTAMP,
			archived_at TIMESTAMP,
			incident_id UUID REFERENCES incidents(id),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_occurrences (
			id UUID PRIMARY KEY,
			alert_id UUID NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
			received_at TIMESTAMP NOT NULL,
			raw_payload JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS alert_notes (
			id UUID PRIMARY KEY,
			alert_id UUID NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
			author VARCHAR(128),
			body TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS silence_windows (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			matchers JSONB NOT NULL,
			starts_at TIMESTAMP NOT NULL,
			ends_at TIMESTAMP NOT NULL,
			is_active BOOLEAN DEFAULT TRUE,
			created_by VARCHAR(128),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runbook_rules (
			id UUID PRIMARY KEY,
			service_pattern VARCHAR(256) NOT NULL,
			name_pattern VARCHAR(256) NOT NULL,
			runbook_url_template VARCHAR(512) NOT NULL,
			priority INT DEFAULT 0,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notification_channels (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			channel_type VARCHAR(32) NOT NULL,
			config JSONB,
			filters JSONB,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notification_logs (
			id UUID PRIMARY KEY,
			channel_id UUID NOT NULL REFERENCES notification_channels(id),
			incident_id UUID REFERENCES incidents(id),
			event_type VARCHAR(32),
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			sent_at TIMESTAMP,
			error_message TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`ALTER TABLE notification_logs ADD COLUMN IF NOT EXISTS sent_at TIMESTAMP`,
		`ALTER TABLE notification_logs ADD COLUMN IF NOT EXISTS error_message TEXT`,
		`CREATE TABLE IF NOT EXISTS oncall_schedules (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			timezone VARCHAR(64) DEFAULT 'UTC',
			rotation_type VARCHAR(32) DEFAULT 'weekly',
			members JSONB,
			handoff_time VARCHAR(5) DEFAULT '09:00',
			rotation_interval_days INT DEFAULT 7,
			rotation_interval_hours INT DEFAULT 0,
			effective_from TIMESTAMP,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS oncall_overrides (
			id UUID PRIMARY KEY,
			schedule_id UUID NOT NULL REFERENCES oncall_schedules(id) ON DELETE CASCADE,
			user_id VARCHAR(128) NOT NULL,
			starts_at TIMESTAMP NOT NULL,
			ends_at TIMESTAMP NOT NULL,
			reason TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS escalation_policies (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			repeat_count INT DEFAULT 0,
			levels JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS service_escalation_mappings (
			id UUID PRIMARY KEY,
			service_pattern VARCHAR(256) NOT NULL,
			severity_filter VARCHAR(32),
			escalation_policy_id UUID NOT NULL REFERENCES escalation_policies(id),
			priority INT DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_escalations (
			id UUID PRIMARY KEY,
			alert_id UUID NOT NULL REFERENCES alerts(id),
			from_user_id VARCHAR(128) NOT NULL,
			from_username VARCHAR(64) NOT NULL,
			to_user_id VARCHAR(128) NOT NULL,
			to_username VARCHAR(64) NOT NULL,
			reason TEXT,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL,
			resolved_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log_entries (
			id UUID PRIMARY KEY,
			user_id VARCHAR(128),
			action VARCHAR(64),
			resource VARCHAR(128),
			resource_id VARCHAR(128),
			detail TEXT,
			ip VARCHAR(64),
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_rules (
			id UUID PRIMARY KEY,
			name VARCHAR(128) NOT NULL,
			description VARCHAR(512),
			expression TEXT NOT NULL,
			evaluation_interval_seconds INT DEFAULT 60,
			severity VARCHAR(32) NOT NULL,
			service VARCHAR(128),
			labels JSONB,
			annotations JSONB,
			data_source_type VARCHAR(32) DEFAULT 'prometheus',
			data_source_url VARCHAR(512) NOT NULL,
			operator VARCHAR(4) NOT NULL DEFAULT '>',
			threshold DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
