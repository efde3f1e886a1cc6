package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solace/internal/domain"
)

// SilenceRepository satisfies silence.WindowLister and backs the silence
// CRUD handlers, grounded in original_source/backend/services/__init__.py's
// get_silences/create_silence/delete_silence.
type SilenceRepository struct {
	conn pgxIface
}

func NewSilenceRepository(conn pgxIface) *SilenceRepository {
	return &SilenceRepository{conn: conn}
}

const silenceColumns = `
	id, name, matchers, starts_at, ends_at, is_active, created_by, created_at, updated_at`

func scanSilence(row pgx.Row) (*domain.SilenceWindow, error) {
	var w domain.SilenceWindow
	err := row.Scan(&w.ID, &w.Name, &w.Matchers, &w.StartsAt, &w.EndsAt, &w.IsActive,
		&w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListActive implements silence.WindowLister — windows still within their
// bounds, filtered further in-process by silence.Check via Active(now).
func (r *SilenceRepository) ListActive(ctx context.Context, now time.Time) ([]domain.SilenceWindow, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+silenceColumns+`
		FROM silence_windows
		WHERE is_active = true AND starts_at <= $1 AND ends_at >= $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []domain.SilenceWindow
	for rows.Next() {
		w, err := scanSilence(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, *w)
	}
	return windows, nil
}

func (r *SilenceRepository) List(ctx context.Context) ([]domain.SilenceWindow, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+silenceColumns+` FROM silence_windows ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []domain.SilenceWindow
	for rows.Next() {
		w, err := scanSilence(rows)
		if err != nil {
			return nil, err
		}
		windows = append(windows, *w)
	}
	return windows, nil
}

func (r *SilenceRepository) GetByID(ctx context.Context, id string) (*domain.SilenceWindow, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+silenceColumns+` FROM silence_windows WHERE id = $1`, id)
	w, err := scanSilence(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return w, err
}

func (r *SilenceRepository) Create(ctx context.Context, w *domain.SilenceWindow) error {
	w.ID = uuid.New().String()
	w.CreatedAt = time.Now().UTC()
	w.UpdatedAt = w.CreatedAt
	if !w.IsActive {
		w.IsActive = true
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO silence_windows (id, name, matchers, starts_at, ends_at, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, w.ID, w.Name, w.Matchers, w.StartsAt, w.EndsAt, w.IsActive, w.CreatedBy, w.CreatedAt, w.UpdatedAt)
	return err
}

func (r *SilenceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `UPDATE silence_windows SET is_active = false, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	return err
}
