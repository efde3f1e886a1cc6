package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solace/internal/domain"
)

// IncidentRepository satisfies correlate.IncidentStore, plus the read/
// update surface the CRUD handlers need. Grounded in correlation.py's
// find_matching_incident/_attach_to_incident/_create_incident and in
// get_incidents/acknowledge_incident/resolve_incident in services/__init__.py.
type IncidentRepository struct {
	conn pgxIface
}

func NewIncidentRepository(conn pgxIface) *IncidentRepository {
	return &IncidentRepository{conn: conn}
}

const incidentColumns = `
	id, title, status, severity, summary, phase, started_at,
	acknowledged_at, resolved_at, created_at, updated_at`

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(&inc.ID, &inc.Title, &inc.Status, &inc.Severity, &inc.Summary, &inc.Phase,
		&inc.StartedAt, &inc.AcknowledgedAt, &inc.ResolvedAt, &inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

// FindOpenByServiceSince implements correlate.IncidentStore.
func (r *IncidentRepository) FindOpenByServiceSince(ctx context.Context, service string, since time.Time) (*domain.Incident, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT `+incidentColumns+`
		FROM incidents i
		WHERE i.status IN ('open', 'acknowledged')
			AND i.started_at >= $1
			AND EXISTS (SELECT 1 FROM alerts a WHERE a.incident_id = i.id AND a.service = $2)
		ORDER BY i.started_at DESC
		LIMIT 1
	`, since, service)

	inc, err := scanIncident(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inc.Alerts, err = r.loadAlerts(ctx, inc.ID)
	return inc, err
}

// GetByID implements correlate.IncidentStore and the read handlers — it
// eagerly loads member alerts, mirroring selectinload(Incident.alerts) in
// the original.
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id)
	inc, err := scanIncident(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inc.Alerts, err = r.loadAlerts(ctx, inc.ID)
	return inc, err
}

func (r *IncidentRepository) loadAlerts(ctx context.Context, incidentID string) ([]domain.Alert, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+alertColumns+` FROM alerts WHERE incident_id = $1`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, nil
}

// Create implements correlate.IncidentStore.
func (r *IncidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	incident.ID = uuid.New().String()
	incident.CreatedAt = time.Now().UTC()
	incident.UpdatedAt = incident.CreatedAt
	if incident.Status == "" {
		incident.Status = domain.IncidentStatusOpen
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO incidents (id, title, status, severity, summary, phase, started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, incident.ID, incident.Title, incident.Status, incident.Severity, incident.Summary, incident.Phase,
		incident.StartedAt, incident.CreatedAt, incident.UpdatedAt)
	return err
}

// UpdateSeverity implements correlate.IncidentStore.
func (r *IncidentRepository) UpdateSeverity(ctx context.Context, id string, severity domain.Severity) error {
	_, err := r.conn.Exec(ctx, `UPDATE incidents SET severity = $1, updated_at = $2 WHERE id = $3`,
		severity, time.Now().UTC(), id)
	return err
}

// AttachAlert implements correlate.IncidentStore — the link lives on
// alerts.incident_id, set by AlertRepository.AttachIncidentID; this method
// exists so correlate.IncidentStore doesn't need to know that.
func (r *IncidentRepository) AttachAlert(ctx context.Context, incidentID, alertID string) error {
	_, err := r.conn.Exec(ctx, `UPDATE alerts SET incident_id = $1, updated_at = $2 WHERE id = $3`,
		incidentID, time.Now().UTC(), alertID)
	return err
}

// AppendEvent implements correlate.IncidentStore.
func (r *IncidentRepository) AppendEvent(ctx context.Context, event domain.IncidentEvent) error {
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		INSERT INTO incident_events (id, incident_id, event_type, description, actor, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.IncidentID, event.EventType, event.Description, event.Actor, event.EventData, event.CreatedAt)
	return err
}

// MarkResolved implements correlate.IncidentStore.
func (r *IncidentRepository) MarkResolved(ctx context.Context, id string, resolvedAt time.Time) error {
	_, err := r.conn.Exec(ctx, `
		UPDATE incidents SET status = 'resolved', resolved_at = $1, updated_at = $1 WHERE id = $2
	`, resolvedAt, id)
	return err
}

func (r *IncidentRepository) ListEvents(ctx context.Context, incidentID string) ([]domain.IncidentEvent, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, incident_id, event_type, description, actor, event_data, created_at
		FROM incident_events WHERE incident_id = $1 ORDER BY created_at ASC
	`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.IncidentEvent
	for rows.Next() {
		var e domain.IncidentEvent
		if err := rows.Scan(&e.ID, &e.IncidentID, &e.EventType, &e.Description, &e.Actor, &e.EventData, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// IncidentFilter narrows List, mirroring get_incidents' filter set.
type IncidentFilter struct {
	Status   string
	Search   string
	SortBy   string
	Desc     bool
	Page     int
	PageSize int
}

var incidentSortColumns = map[string]string{
	"started_at": "started_at",
	"severity":   "severity",
	"title":      "title",
	"status":     "status",
	"created_at": "created_at",
}

func (r *IncidentRepository) List(ctx context.Context, f IncidentFilter) ([]domain.Incident, int, error) {
	sortCol, ok := incidentSortColumns[f.SortBy]
	if !ok {
		sortCol = "started_at"
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

	rows, err := r.conn.Query(ctx, `
		SELECT `+incidentColumns+`
		FROM incidents
		WHERE ($1 = '' OR status = $1)
			AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR summary ILIKE '%' || $2 || '%')
		ORDER BY `+sortCol+` `+order+`
		LIMIT $3 OFFSET $4
	`, f.Status, f.Search, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var incidents []domain.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, 0, err
		}
		incidents = append(incidents, *inc)
	}

	var total int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM incidents WHERE ($1 = '' OR status = $1)`, f.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	return incidents, total, nil
}

func (r *IncidentRepository) Acknowledge(ctx context.Context, id, acknowledgedBy string) (*domain.Incident, error) {
	now := time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		UPDATE incidents SET status = 'acknowledged', acknowledged_at = $1, updated_at = $1 WHERE id = $2
	`, now, id)
	if err != nil {
		return nil, err
	}
	_, err = r.conn.Exec(ctx, `
		UPDATE alerts SET status = 'acknowledged', acknowledged_at = $1, acknowledged_by = $2, updated_at = $1
		WHERE incident_id = $3 AND status = 'firing'
	`, now, acknowledgedBy, id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *IncidentRepository) Resolve(ctx context.Context, id, resolvedBy string) (*domain.Incident, error) {
	now := time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		UPDATE incidents SET status = 'resolved', resolved_at = $1, updated_at = $1 WHERE id = $2
	`, now, id)
	if err != nil {
		return nil, err
	}
	_, err = r.conn.Exec(ctx, `
		UPDATE alerts SET status = 'resolved', resolved_at = $1, ends_at = $1, updated_at = $1
		WHERE incident_id = $2 AND status IN ('firing', 'acknowledged')
	`, now, id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}
