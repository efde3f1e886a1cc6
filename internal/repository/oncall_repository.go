package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solace/internal/domain"
)

// OnCallRepository satisfies oncall.Store plus the CRUD surface the
// schedule/escalation handlers need, grounded in
// original_source/backend/core/oncall.py and
// original_source/backend/services/__init__.py's schedule/escalation
// management functions.
type OnCallRepository struct {
	conn pgxIface
}

func NewOnCallRepository(conn pgxIface) *OnCallRepository {
	return &OnCallRepository{conn: conn}
}

const scheduleColumns = `
	id, name, timezone, rotation_type, members, handoff_time,
	rotation_interval_days, rotation_interval_hours, effective_from, is_active, created_at, updated_at`

func scanSchedule(row pgx.Row) (*domain.OnCallSchedule, error) {
	var s domain.OnCallSchedule
	err := row.Scan(&s.ID, &s.Name, &s.Timezone, &s.RotationType, &s.Members, &s.HandoffTime,
		&s.RotationIntervalDays, &s.RotationIntervalHours, &s.EffectiveFrom, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetActiveSchedule implements oncall.Store.
func (r *OnCallRepository) GetActiveSchedule(ctx context.Context, scheduleID string) (*domain.OnCallSchedule, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM oncall_schedules WHERE id = $1 AND is_active = true`, scheduleID)
	s, err := scanSchedule(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *OnCallRepository) ListSchedules(ctx context.Context) ([]domain.OnCallSchedule, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+scheduleColumns+` FROM oncall_schedules ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.OnCallSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, nil
}

func (r *OnCallRepository) CreateSchedule(ctx context.Context, s *domain.OnCallSchedule) error {
	s.ID = uuid.New().String()
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt

	_, err := r.conn.Exec(ctx, `
		INSERT INTO oncall_schedules (id, name, timezone, rotation_type, members, handoff_time,
			rotation_interval_days, rotation_interval_hours, effective_from, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, s.ID, s.Name, s.Timezone, s.RotationType, s.Members, s.HandoffTime,
		s.RotationIntervalDays, s.RotationIntervalHours, s.EffectiveFrom, s.IsActive, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *OnCallRepository) UpdateSchedule(ctx context.Context, s *domain.OnCallSchedule) error {
	s.UpdatedAt = time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		UPDATE oncall_schedules
		SET name = $1, timezone = $2, rotation_type = $3, members = $4, handoff_time = $5,
			rotation_interval_days = $6, rotation_interval_hours = $7, effective_from = $8, is_active = $9, updated_at = $10
		WHERE id = $11
	`, s.Name, s.Timezone, s.RotationType, s.Members, s.HandoffTime,
		s.RotationIntervalDays, s.RotationIntervalHours, s.EffectiveFrom, s.IsActive, s.UpdatedAt, s.ID)
	return err
}

// FindActiveOverride implements oncall.Store.
func (r *OnCallRepository) FindActiveOverride(ctx context.Context, scheduleID string, at time.Time) (*domain.OnCallOverride, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, schedule_id, user_id, starts_at, ends_at, COALESCE(reason, ''), created_at
		FROM oncall_overrides
		WHERE schedule_id = $1 AND starts_at <= $2 AND ends_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`, scheduleID, at)

	var o domain.OnCallOverride
	err := row.Scan(&o.ID, &o.ScheduleID, &o.UserID, &o.StartsAt, &o.EndsAt, &o.Reason, &o.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OnCallRepository) CreateOverride(ctx context.Context, o *domain.OnCallOverride) error {
	o.ID = uuid.New().String()
	o.CreatedAt = time.Now().UTC()

	_, err := r.conn.Exec(ctx, `
		INSERT INTO oncall_overrides (id, schedule_id, user_id, starts_at, ends_at, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, o.ID, o.ScheduleID, o.UserID, o.StartsAt, o.EndsAt, o.Reason, o.CreatedAt)
	return err
}

func (r *OnCallRepository) ListOverrides(ctx context.Context, scheduleID string) ([]domain.OnCallOverride, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, schedule_id, user_id, starts_at, ends_at, COALESCE(reason, ''), created_at
		FROM oncall_overrides WHERE schedule_id = $1 ORDER BY starts_at DESC
	`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []domain.OnCallOverride
	for rows.Next() {
		var o domain.OnCallOverride
		if err := rows.Scan(&o.ID, &o.ScheduleID, &o.UserID, &o.StartsAt, &o.EndsAt, &o.Reason, &o.CreatedAt); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, nil
}

// GetActiveUser implements oncall.Store.
func (r *OnCallRepository) GetActiveUser(ctx context.Context, userID string) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, email, username, hashed_password, display_name, role, is_active, must_change_password,
			last_login_at, created_at, updated_at
		FROM users WHERE id = $1 AND is_active = true
	`, userID)

	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.HashedPassword, &u.DisplayName, &u.Role, &u.IsActive,
		&u.MustChangePassword, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const escalationPolicyColumns = `id, name, repeat_count, levels, created_at, updated_at`

func scanEscalationPolicy(row pgx.Row) (*domain.EscalationPolicy, error) {
	var p domain.EscalationPolicy
	err := row.Scan(&p.ID, &p.Name, &p.RepeatCount, &p.Levels, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetEscalationPolicy implements oncall.Store.
func (r *OnCallRepository) GetEscalationPolicy(ctx context.Context, policyID string) (*domain.EscalationPolicy, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+escalationPolicyColumns+` FROM escalation_policies WHERE id = $1`, policyID)
	p, err := scanEscalationPolicy(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *OnCallRepository) ListEscalationPolicies(ctx context.Context) ([]domain.EscalationPolicy, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+escalationPolicyColumns+` FROM escalation_policies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []domain.EscalationPolicy
	for rows.Next() {
		p, err := scanEscalationPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, *p)
	}
	return policies, nil
}

func (r *OnCallRepository) CreateEscalationPolicy(ctx context.Context, p *domain.EscalationPolicy) error {
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	_, err := r.conn.Exec(ctx, `
		INSERT INTO escalation_policies (id, name, repeat_count, levels, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Name, p.RepeatCount, p.Levels, p.CreatedAt, p.UpdatedAt)
	return err
}

// ListMappingsByPriority implements oncall.Store.
func (r *OnCallRepository) ListMappingsByPriority(ctx context.Context) ([]domain.ServiceEscalationMapping, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, service_pattern, severity_filter, escalation_policy_id, priority, created_at
		FROM service_escalation_mappings ORDER BY priority ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []domain.ServiceEscalationMapping
	for rows.Next() {
		var m domain.ServiceEscalationMapping
		if err := rows.Scan(&m.ID, &m.ServicePattern, &m.SeverityFilter, &m.EscalationPolicyID, &m.Priority, &m.CreatedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

func (r *OnCallRepository) CreateMapping(ctx context.Context, m *domain.ServiceEscalationMapping) error {
	m.ID = uuid.New().String()
	m.CreatedAt = time.Now().UTC()

	_, err := r.conn.Exec(ctx, `
		INSERT INTO service_escalation_mappings (id, service_pattern, severity_filter, escalation_policy_id, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.ServicePattern, m.SeverityFilter, m.EscalationPolicyID, m.Priority, m.CreatedAt)
	return err
}
