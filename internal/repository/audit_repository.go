package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solace/internal/domain"
)

// AuditLogRepository backs the audit log listing surface, adapted from the
// teacher's AuditLogService onto string IDs and pgxIface.
type AuditLogRepository struct {
	conn pgxIface
}

func NewAuditLogRepository(conn pgxIface) *AuditLogRepository {
	return &AuditLogRepository{conn: conn}
}

func (r *AuditLogRepository) Create(ctx context.Context, e *domain.AuditLogEntry) error {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	_, err := r.conn.Exec(ctx, `
		INSERT INTO audit_log_entries (id, user_id, action, resource, resource_id, detail, ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.UserID, e.Action, e.Resource, e.ResourceID, e.Detail, e.IP, e.CreatedAt)
	return err
}

// AuditLogFilter narrows List/Export to a user, action, resource, and/or
// time range; zero values mean "no filter on this field".
type AuditLogFilter struct {
	UserID    string
	Action    string
	Resource  string
	StartTime *time.Time
	EndTime   *time.Time
}

func (f AuditLogFilter) bounds() (time.Time, time.Time) {
	start := time.Time{}
	if f.StartTime != nil {
		start = *f.StartTime
	}
	end := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	if f.EndTime != nil {
		end = *f.EndTime
	}
	return start, end
}

func scanAuditLogEntry(row pgx.Row) (*domain.AuditLogEntry, error) {
	var e domain.AuditLogEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID, &e.Detail, &e.IP, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *AuditLogRepository) List(ctx context.Context, page, pageSize int, filter AuditLogFilter) ([]domain.AuditLogEntry, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	start, end := filter.bounds()

	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, action, resource, resource_id, detail, ip, created_at
		FROM audit_log_entries
		WHERE ($1 = '' OR user_id = $1)
			AND ($2 = '' OR action = $2)
			AND ($3 = '' OR resource = $3)
			AND (created_at >= $4 AND created_at <= $5)
		ORDER BY created_at DESC
		LIMIT $6 OFFSET $7
	`, filter.UserID, filter.Action, filter.Resource, start, end, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		e, err := scanAuditLogEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}

	var total int
	err = r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM audit_log_entries
		WHERE ($1 = '' OR user_id = $1)
			AND ($2 = '' OR action = $2)
			AND ($3 = '' OR resource = $3)
			AND (created_at >= $4 AND created_at <= $5)
	`, filter.UserID, filter.Action, filter.Resource, start, end).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *AuditLogRepository) Export(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLogEntry, error) {
	start, end := filter.bounds()

	rows, err := r.conn.Query(ctx, `
		SELECT id, user_id, action, resource, resource_id, detail, ip, created_at
		FROM audit_log_entries
		WHERE ($1 = '' OR user_id = $1)
			AND ($2 = '' OR action = $2)
			AND ($3 = '' OR resource = $3)
			AND (created_at >= $4 AND created_at <= $5)
		ORDER BY created_at DESC
	`, filter.UserID, filter.Action, filter.Resource, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		e, err := scanAuditLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}
