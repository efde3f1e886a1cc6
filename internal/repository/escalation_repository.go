package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solace/internal/domain"
)

// EscalationRepository backs the manual-escalation feature (operator
// handoff of one alert from one user to another), adapted from the
// teacher's AlertEscalationService, grounded in its user_escalations
// table.
type EscalationRepository struct {
	conn pgxIface
}

func NewEscalationRepository(conn pgxIface) *EscalationRepository {
	return &EscalationRepository{conn: conn}
}

const escalationColumns = `
	id, alert_id, from_user_id, from_username, to_user_id, to_username, reason, status, created_at, resolved_at`

func scanEscalation(row pgx.Row) (*domain.UserEscalation, error) {
	var e domain.UserEscalation
	err := row.Scan(&e.ID, &e.AlertID, &e.FromUserID, &e.FromUsername, &e.ToUserID, &e.ToUsername,
		&e.Reason, &e.Status, &e.CreatedAt, &e.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EscalationRepository) Create(ctx context.Context, e *domain.UserEscalation) error {
	e.ID = uuid.New().String()
	e.Status = domain.EscalationPending
	e.CreatedAt = time.Now().UTC()

	_, err := r.conn.Exec(ctx, `
		INSERT INTO user_escalations (id, alert_id, from_user_id, from_username, to_user_id, to_username, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.AlertID, e.FromUserID, e.FromUsername, e.ToUserID, e.ToUsername, e.Reason, e.Status, e.CreatedAt)
	return err
}

func (r *EscalationRepository) ListByAlert(ctx context.Context, alertID string) ([]domain.UserEscalation, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+escalationColumns+` FROM user_escalations WHERE alert_id = $1 ORDER BY created_at DESC`, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.UserEscalation
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, nil
}

func (r *EscalationRepository) ListPendingForUser(ctx context.Context, userID string) ([]domain.UserEscalation, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+escalationColumns+` FROM user_escalations WHERE to_user_id = $1 AND status = $2 ORDER BY created_at DESC
	`, userID, domain.EscalationPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.UserEscalation
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, nil
}

func (r *EscalationRepository) List(ctx context.Context, page, pageSize int) ([]domain.UserEscalation, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := r.conn.Query(ctx, `
		SELECT `+escalationColumns+` FROM user_escalations ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []domain.UserEscalation
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}

	var total int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM user_escalations`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Stats returns the count of escalations in each status.
func (r *EscalationRepository) Stats(ctx context.Context) (map[domain.EscalationStatus]int, error) {
	rows, err := r.conn.Query(ctx, `SELECT status, COUNT(*) FROM user_escalations GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[domain.EscalationStatus]int{}
	for rows.Next() {
		var status domain.EscalationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, nil
}

func (r *EscalationRepository) setStatus(ctx context.Context, id string, status domain.EscalationStatus) error {
	now := time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		UPDATE user_escalations SET status = $1, resolved_at = $2 WHERE id = $3 AND status = $4
	`, status, now, id, domain.EscalationPending)
	return err
}

func (r *EscalationRepository) Accept(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.EscalationAccepted)
}

func (r *EscalationRepository) Reject(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.EscalationRejected)
}

func (r *EscalationRepository) Resolve(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := r.conn.Exec(ctx, `UPDATE user_escalations SET status = $1, resolved_at = $2 WHERE id = $3`, domain.EscalationResolved, now, id)
	return err
}
