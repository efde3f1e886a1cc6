package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"solace/internal/domain"
)

// RunbookRuleRepository satisfies runbook.RuleLister and backs the
// runbook-rule CRUD handlers, grounded in
// original_source/backend/services/runbook.py.
type RunbookRuleRepository struct {
	conn pgxIface
}

func NewRunbookRuleRepository(conn pgxIface) *RunbookRuleRepository {
	return &RunbookRuleRepository{conn: conn}
}

const runbookRuleColumns = `
	id, service_pattern, name_pattern, runbook_url_template, priority, is_active, created_at, updated_at`

func scanRunbookRule(row pgx.Row) (*domain.RunbookRule, error) {
	var rule domain.RunbookRule
	err := row.Scan(&rule.ID, &rule.ServicePattern, &rule.NamePattern, &rule.RunbookURLTemplate,
		&rule.Priority, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// ListActive implements runbook.RuleLister, ordered ascending by priority
// so runbook.Find walks lower-priority-value rules first.
func (r *RunbookRuleRepository) ListActive(ctx context.Context) ([]domain.RunbookRule, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+runbookRuleColumns+` FROM runbook_rules WHERE is_active = true ORDER BY priority ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.RunbookRule
	for rows.Next() {
		rule, err := scanRunbookRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

func (r *RunbookRuleRepository) List(ctx context.Context) ([]domain.RunbookRule, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+runbookRuleColumns+` FROM runbook_rules ORDER BY priority ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.RunbookRule
	for rows.Next() {
		rule, err := scanRunbookRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

func (r *RunbookRuleRepository) GetByID(ctx context.Context, id string) (*domain.RunbookRule, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+runbookRuleColumns+` FROM runbook_rules WHERE id = $1`, id)
	rule, err := scanRunbookRule(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return rule, err
}

func (r *RunbookRuleRepository) Create(ctx context.Context, rule *domain.RunbookRule) error {
	rule.ID = uuid.New().String()
	rule.CreatedAt = time.Now().UTC()
	rule.UpdatedAt = rule.CreatedAt

	_, err := r.conn.Exec(ctx, `
		INSERT INTO runbook_rules (id, service_pattern, name_pattern, runbook_url_template, priority, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rule.ID, rule.ServicePattern, rule.NamePattern, rule.RunbookURLTemplate, rule.Priority, rule.IsActive,
		rule.CreatedAt, rule.UpdatedAt)
	return err
}

func (r *RunbookRuleRepository) Update(ctx context.Context, rule *domain.RunbookRule) error {
	rule.UpdatedAt = time.Now().UTC()
	_, err := r.conn.Exec(ctx, `
		UPDATE runbook_rules
		SET service_pattern = $1, name_pattern = $2, runbook_url_template = $3, priority = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`, rule.ServicePattern, rule.NamePattern, rule.RunbookURLTemplate, rule.Priority, rule.IsActive, rule.UpdatedAt, rule.ID)
	return err
}

func (r *RunbookRuleRepository) Delete(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM runbook_rules WHERE id = $1`, id)
	return err
}
