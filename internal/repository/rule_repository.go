package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solace/internal/domain"
)

// AlertRuleRepository backs the self-polling metric rules the evaluator
// worker evaluates on an interval (§10 architecture decision: kept as an
// upstream alert source feeding internal/ingest, not a parallel write path).
type AlertRuleRepository struct {
	conn pgxIface
}

func NewAlertRuleRepository(conn pgxIface) *AlertRuleRepository {
	return &AlertRuleRepository{conn: conn}
}

const ruleColumns = `
	id, name, description, expression, evaluation_interval_seconds, severity,
	service, labels, annotations, data_source_type, data_source_url, operator,
	threshold, is_active, created_at, updated_at`

func scanRule(row pgx.Row) (*domain.AlertRule, error) {
	var r domain.AlertRule
	err := row.Scan(
		&r.ID, &r.Name, &r.Description, &r.Expression, &r.EvaluationIntervalSeconds, &r.Severity,
		&r.Service, &r.Labels, &r.Annotations, &r.DataSourceType, &r.DataSourceURL, &r.Operator,
		&r.Threshold, &r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListActive implements the surface the evaluator worker polls.
func (r *AlertRuleRepository) ListActive(ctx context.Context) ([]domain.AlertRule, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+ruleColumns+` FROM alert_rules WHERE is_active = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

func (r *AlertRuleRepository) List(ctx context.Context) ([]domain.AlertRule, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+ruleColumns+` FROM alert_rules ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.AlertRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

func (r *AlertRuleRepository) GetByID(ctx context.Context, id string) (*domain.AlertRule, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+ruleColumns+` FROM alert_rules WHERE id = $1`, id)
	rule, err := scanRule(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rule, err
}

func (r *AlertRuleRepository) Create(ctx context.Context, rule *domain.AlertRule) error {
	rule.ID = uuid.New().String()
	rule.CreatedAt = time.Now().UTC()
	rule.UpdatedAt = rule.CreatedAt

	_, err := r.conn.Exec(ctx, `
		INSERT INTO alert_rules (
			id, name, description, expression, evaluation_interval_seconds, severity,
			service, labels, annotations, data_source_type, data_source_url, operator,
			threshold, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, rule.ID, rule.Name, rule.Description, rule.Expression, rule.EvaluationIntervalSeconds, rule.Severity,
		rule.Service, rule.Labels, rule.Annotations, rule.DataSourceType, rule.DataSourceURL, rule.Operator,
		rule.Threshold, rule.IsActive, rule.CreatedAt, rule.UpdatedAt)
	return err
}

func (r *AlertRuleRepository) Update(ctx context.Context, rule *domain.AlertRule) error {
	rule.UpdatedAt = time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		UPDATE alert_rules SET
			name = $1, description = $2, expression = $3, evaluation_interval_seconds = $4,
			severity = $5, service = $6, labels = $7, annotations = $8, data_source_type = $9,
			data_source_url = $10, operator = $11, threshold = $12, is_active = $13, updated_at = $14
		WHERE id = $15
	`, rule.Name, rule.Description, rule.Expression, rule.EvaluationIntervalSeconds,
		rule.Severity, rule.Service, rule.Labels, rule.Annotations, rule.DataSourceType,
		rule.DataSourceURL, rule.Operator, rule.Threshold, rule.IsActive, rule.UpdatedAt, rule.ID)
	return err
}

func (r *AlertRuleRepository) Delete(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM alert_rules WHERE id = $1`, id)
	return err
}
