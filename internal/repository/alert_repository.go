package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solace/internal/domain"
)

// AlertRepository satisfies dedup.Finder and ingest.AlertStore, plus the
// read/update surface the CRUD handlers need. Grounded in the teacher's
// per-resource repository.go pattern and in get_alerts/acknowledge_alert/
// resolve_alert/archive_alerts in original_source/backend/services/__init__.py.
type AlertRepository struct {
	conn pgxIface
}

func NewAlertRepository(conn pgxIface) *AlertRepository {
	return &AlertRepository{conn: conn}
}

const alertColumns = `
	id, fingerprint, name, source, severity, status, description, service,
	environment, host, source_instance, generator_url, runbook_url, ticket_url,
	starts_at, ends_at, labels, annotations, tags, raw_payload,
	last_received_at, duplicate_count, acknowledged_at, acknowledged_by,
	resolved_at, archived_at, COALESCE(incident_id::text, ''), created_at, updated_at`

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	err := row.Scan(
		&a.ID, &a.Fingerprint, &a.Name, &a.Source, &a.Severity, &a.Status, &a.Description, &a.Service,
		&a.Environment, &a.Host, &a.SourceInstance, &a.GeneratorURL, &a.RunbookURL, &a.TicketURL,
		&a.StartsAt, &a.EndsAt, &a.Labels, &a.Annotations, &a.Tags, &a.RawPayload,
		&a.LastReceivedAt, &a.DuplicateCount, &a.AcknowledgedAt, &a.AcknowledgedBy,
		&a.ResolvedAt, &a.ArchivedAt, &a.IncidentID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindDuplicate implements dedup.Finder: the most recently created alert
// with this fingerprint, still firing/acknowledged, received no earlier
// than windowStart.
func (r *AlertRepository) FindDuplicate(ctx context.Context, fingerprint string, windowStart time.Time) (*domain.Alert, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE fingerprint = $1
			AND status IN ('firing', 'acknowledged')
			AND last_received_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, fingerprint, windowStart)

	alert, err := scanAlert(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return alert, err
}

// UpdateOccurrence implements dedup.Finder.
func (r *AlertRepository) UpdateOccurrence(ctx context.Context, alertID string, duplicateCount int, lastReceivedAt, updatedAt time.Time) error {
	_, err := r.conn.Exec(ctx, `
		UPDATE alerts SET duplicate_count = $1, last_received_at = $2, updated_at = $3
		WHERE id = $4
	`, duplicateCount, lastReceivedAt, updatedAt, alertID)
	return err
}

// Create implements ingest.AlertStore.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	alert.ID = uuid.New().String()
	alert.CreatedAt = time.Now().UTC()
	alert.UpdatedAt = alert.CreatedAt
	if alert.StartsAt == nil {
		now := alert.CreatedAt
		alert.StartsAt = &now
	}

	var incidentID interface{}
	if alert.IncidentID != "" {
		incidentID = alert.IncidentID
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO alerts (
			id, fingerprint, name, source, severity, status, description, service,
			environment, host, source_instance, generator_url, runbook_url, ticket_url,
			starts_at, ends_at, labels, annotations, tags, raw_payload,
			last_received_at, duplicate_count, resolved_at, incident_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
	`, alert.ID, alert.Fingerprint, alert.Name, alert.Source, alert.Severity, alert.Status, alert.Description, alert.Service,
		alert.Environment, alert.Host, alert.SourceInstance, alert.GeneratorURL, alert.RunbookURL, alert.TicketURL,
		alert.StartsAt, alert.EndsAt, alert.Labels, alert.Annotations, alert.Tags, alert.RawPayload,
		alert.LastReceivedAt, alert.DuplicateCount, alert.ResolvedAt, incidentID, alert.CreatedAt, alert.UpdatedAt)
	return err
}

// RecordOccurrence implements ingest.AlertStore — one row per receipt, for
// the alert detail timeline.
func (r *AlertRepository) RecordOccurrence(ctx context.Context, alertID string, receivedAt time.Time) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO alert_occurrences (id, alert_id, received_at)
		VALUES ($1, $2, $3)
	`, uuid.New().String(), alertID, receivedAt)
	return err
}

// AttachIncidentID implements ingest.AlertStore.
func (r *AlertRepository) AttachIncidentID(ctx context.Context, alertID, incidentID string) error {
	_, err := r.conn.Exec(ctx, `UPDATE alerts SET incident_id = $1, updated_at = $2 WHERE id = $3`,
		incidentID, time.Now().UTC(), alertID)
	return err
}

func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	alert, err := scanAlert(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return alert, err
}

// AlertFilter narrows List, mirroring get_alerts' filter set.
type AlertFilter struct {
	Status   string
	Severity string
	Service  string
	Search   string
	Tag      string
	SortBy   string
	Desc     bool
	Page     int
	PageSize int
}

var alertSortColumns = map[string]string{
	"created_at":        "created_at",
	"severity":           "severity",
	"name":               "name",
	"service":            "service",
	"status":             "status",
	"starts_at":          "starts_at",
	"last_received_at":   "last_received_at",
	"duplicate_count":    "duplicate_count",
}

func (r *AlertRepository) List(ctx context.Context, f AlertFilter) ([]domain.Alert, int, error) {
	sortCol, ok := alertSortColumns[f.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := "DESC"
	if !f.Desc {
		order = "ASC"
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE ($1 = '' OR status = $1)
			AND ($2 = '' OR severity = $2)
			AND ($3 = '' OR service = $3)
			AND ($4 = '' OR tags @> to_jsonb($4::text))
			AND ($5 = '' OR name ILIKE '%' || $5 || '%' OR service ILIKE '%' || $5 || '%'
				OR host ILIKE '%' || $5 || '%' OR description ILIKE '%' || $5 || '%'
				OR fingerprint ILIKE '%' || $5 || '%')
		ORDER BY ` + sortCol + ` ` + order + `
		LIMIT $6 OFFSET $7
	`
	rows, err := r.conn.Query(ctx, query, f.Status, f.Severity, f.Service, f.Tag, f.Search, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		alerts = append(alerts, *a)
	}

	var total int
	err = r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM alerts
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR severity = $2) AND ($3 = '' OR service = $3)
	`, f.Status, f.Severity, f.Service).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	return alerts, total, nil
}

func (r *AlertRepository) Acknowledge(ctx context.Context, id, acknowledgedBy string) (*domain.Alert, error) {
	now := time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		UPDATE alerts SET status = 'acknowledged', acknowledged_at = $1, acknowledged_by = $2, updated_at = $1
		WHERE id = $3
	`, now, acknowledgedBy, id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *AlertRepository) Resolve(ctx context.Context, id string) (*domain.Alert, error) {
	now := time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		UPDATE alerts SET status = 'resolved', resolved_at = $1, ends_at = $1, updated_at = $1
		WHERE id = $2
	`, now, id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *AlertRepository) BulkAcknowledge(ctx context.Context, ids []string, acknowledgedBy string) ([]string, error) {
	now := time.Now().UTC()
	rows, err := r.conn.Query(ctx, `
		UPDATE alerts SET status = 'acknowledged', acknowledged_at = $1, acknowledged_by = $2, updated_at = $1
		WHERE id = ANY($3) AND status = 'firing'
		RETURNING id
	`, now, acknowledgedBy, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var updated []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	return updated, nil
}

func (r *AlertRepository) BulkResolve(ctx context.Context, ids []string) ([]string, error) {
	now := time.Now().UTC()
	rows, err := r.conn.Query(ctx, `
		UPDATE alerts SET status = 'resolved', resolved_at = $1, ends_at = $1, updated_at = $1
		WHERE id = ANY($2) AND status IN ('firing', 'acknowledged')
		RETURNING id
	`, now, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var updated []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	return updated, nil
}

// Archive marks resolved alerts older than cutoff archived, returning the
// count archived (spec.md's archive_alerts supplement).
func (r *AlertRepository) Archive(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := r.conn.Exec(ctx, `
		UPDATE alerts SET status = 'archived', archived_at = $1
		WHERE status = 'resolved' AND archived_at IS NULL AND resolved_at IS NOT NULL AND resolved_at < $2
	`, time.Now().UTC(), cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *AlertRepository) UpdateTags(ctx context.Context, id string, tags []string) (*domain.Alert, error) {
	_, err := r.conn.Exec(ctx, `UPDATE alerts SET tags = $1, updated_at = $2 WHERE id = $3`,
		domain.StringList(tags), time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *AlertRepository) ListNotes(ctx context.Context, alertID string) ([]domain.AlertNote, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, alert_id, author, body, created_at FROM alert_notes
		WHERE alert_id = $1 ORDER BY created_at DESC
	`, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.AlertNote
	for rows.Next() {
		var n domain.AlertNote
		if err := rows.Scan(&n.ID, &n.AlertID, &n.Author, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func (r *AlertRepository) CreateNote(ctx context.Context, alertID, author, body string) (*domain.AlertNote, error) {
	note := &domain.AlertNote{
		ID:        uuid.New().String(),
		AlertID:   alertID,
		Author:    author,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.conn.Exec(ctx, `
		INSERT INTO alert_notes (id, alert_id, author, body, created_at) VALUES ($1, $2, $3, $4, $5)
	`, note.ID, note.AlertID, note.Author, note.Body, note.CreatedAt)
	if err != nil {
		return nil, err
	}
	return note, nil
}
