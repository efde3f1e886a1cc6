package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solace/internal/domain"
)

// NotificationChannelRepository satisfies notify.ChannelLister plus the
// channel CRUD handlers, grounded in
// original_source/backend/services/__init__.py's channel management
// functions.
type NotificationChannelRepository struct {
	conn pgxIface
}

func NewNotificationChannelRepository(conn pgxIface) *NotificationChannelRepository {
	return &NotificationChannelRepository{conn: conn}
}

const channelColumns = `
	id, name, channel_type, config, filters, is_active, created_at, updated_at`

func scanChannel(row pgx.Row) (*domain.NotificationChannel, error) {
	var c domain.NotificationChannel
	err := row.Scan(&c.ID, &c.Name, &c.ChannelType, &c.Config, &c.Filters, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActive implements notify.ChannelLister.
func (r *NotificationChannelRepository) ListActive(ctx context.Context) ([]domain.NotificationChannel, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+channelColumns+` FROM notification_channels WHERE is_active = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.NotificationChannel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *c)
	}
	return channels, nil
}

func (r *NotificationChannelRepository) List(ctx context.Context) ([]domain.NotificationChannel, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+channelColumns+` FROM notification_channels ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []domain.NotificationChannel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *c)
	}
	return channels, nil
}

func (r *NotificationChannelRepository) GetByID(ctx context.Context, id string) (*domain.NotificationChannel, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+channelColumns+` FROM notification_channels WHERE id = $1`, id)
	c, err := scanChannel(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *NotificationChannelRepository) Create(ctx context.Context, c *domain.NotificationChannel) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt

	_, err := r.conn.Exec(ctx, `
		INSERT INTO notification_channels (id, name, channel_type, config, filters, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.Name, c.ChannelType, c.Config, c.Filters, c.IsActive, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *NotificationChannelRepository) Update(ctx context.Context, c *domain.NotificationChannel) error {
	c.UpdatedAt = time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		UPDATE notification_channels
		SET name = $1, channel_type = $2, config = $3, filters = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`, c.Name, c.ChannelType, c.Config, c.Filters, c.IsActive, c.UpdatedAt, c.ID)
	return err
}

func (r *NotificationChannelRepository) Delete(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM notification_channels WHERE id = $1`, id)
	return err
}

// NotificationLogRepository implements notify.LogStore.
type NotificationLogRepository struct {
	conn pgxIface
}

func NewNotificationLogRepository(conn pgxIface) *NotificationLogRepository {
	return &NotificationLogRepository{conn: conn}
}

// Create implements notify.LogStore.
func (r *NotificationLogRepository) Create(ctx context.Context, log domain.NotificationLog) (string, error) {
	log.ID = uuid.New().String()
	log.CreatedAt = time.Now().UTC()

	_, err := r.conn.Exec(ctx, `
		INSERT INTO notification_logs (id, channel_id, incident_id, event_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, log.ID, log.ChannelID, log.IncidentID, log.EventType, log.Status, log.CreatedAt)
	if err != nil {
		return "", err
	}
	return log.ID, nil
}

// MarkSent implements notify.LogStore.
func (r *NotificationLogRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	_, err := r.conn.Exec(ctx, `UPDATE notification_logs SET status = 'sent', sent_at = $1 WHERE id = $2`, sentAt, id)
	return err
}

// MarkFailed implements notify.LogStore.
func (r *NotificationLogRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	_, err := r.conn.Exec(ctx, `UPDATE notification_logs SET status = 'failed', error_message = $1 WHERE id = $2`, errMsg, id)
	return err
}

func (r *NotificationLogRepository) ListByIncident(ctx context.Context, incidentID string) ([]domain.NotificationLog, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, channel_id, incident_id, event_type, status, COALESCE(error_message, ''), sent_at, created_at
		FROM notification_logs WHERE incident_id = $1 ORDER BY created_at DESC
	`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.NotificationLog
	for rows.Next() {
		var l domain.NotificationLog
		if err := rows.Scan(&l.ID, &l.ChannelID, &l.IncidentID, &l.EventType, &l.Status, &l.ErrorMessage, &l.SentAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}
