// Package evaluator runs the teacher's self-polling PromQL/VictoriaMetrics
// alert engine as one more upstream alert source, feeding every threshold
// breach through internal/ingest.Coordinator rather than writing alerts
// directly — the architecture decision recorded for the teacher's
// AlertEvaluator/PrometheusClient/VictoriaMetricsClient. A separate package
// from internal/services because internal/ingest already imports
// internal/services (for its Broadcaster), so wiring the coordinator in
// directly from there would be a cycle.
package evaluator

import (
	"context"
	"sync"
	"time"

	"solace/internal/domain"
	"solace/internal/ingest"
	"solace/internal/notify"
	"solace/internal/repository"
	"solace/internal/services"
	"solace/pkg/logging"
)

// RuleLister is the read surface the evaluator polls.
type RuleLister interface {
	ListActive(ctx context.Context) ([]domain.AlertRule, error)
}

// MetricQuerier is satisfied by both services.PrometheusClient and
// services.VictoriaMetricsClient.
type MetricQuerier interface {
	Query(ctx context.Context, query string, at string) ([]services.QueryResult, error)
}

// Evaluator polls each active AlertRule's data source on an interval and
// feeds any threshold breach through the ingestion coordinator, one
// transaction per rule evaluation — the same atomicity scope
// handlers.WebhookHandler gives a pushed webhook alert.
type Evaluator struct {
	Rules             RuleLister
	DB                *repository.Database
	Notifier          *notify.Dispatcher
	Broadcaster       services.Broadcaster
	DedupWindow       time.Duration
	CorrelationWindow time.Duration
	CheckInterval     time.Duration

	mu      sync.Mutex
	clients map[string]MetricQuerier
}

func New(rules RuleLister, db *repository.Database, notifier *notify.Dispatcher, broadcaster services.Broadcaster, dedupWindow, correlationWindow, checkInterval time.Duration) *Evaluator {
	return &Evaluator{
		Rules:             rules,
		DB:                db,
		Notifier:          notifier,
		Broadcaster:       broadcaster,
		DedupWindow:       dedupWindow,
		CorrelationWindow: correlationWindow,
		CheckInterval:     checkInterval,
		clients:           make(map[string]MetricQuerier),
	}
}

func (e *Evaluator) clientFor(dataSourceType, endpoint string) MetricQuerier {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := dataSourceType + "|" + endpoint
	if client, ok := e.clients[key]; ok {
		return client
	}

	var client MetricQuerier
	switch dataSourceType {
	case "victoria-metrics":
		client = services.NewVictoriaMetricsClient(endpoint)
	default:
		client = services.NewPrometheusClient(endpoint)
	}
	e.clients[key] = client
	return client
}

// Run polls every active rule every CheckInterval until ctx is cancelled,
// in the teacher's ticker-driven worker idiom.
func (e *Evaluator) Run(ctx context.Context) {
	ticker := time.NewTicker(e.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.EvaluateAllRules(ctx)
		}
	}
}

func (e *Evaluator) EvaluateAllRules(ctx context.Context) {
	rules, err := e.Rules.ListActive(ctx)
	if err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Error("evaluator: failed to list active rules")
		return
	}

	for _, rule := range rules {
		if err := e.EvaluateRule(ctx, rule); err != nil {
			logging.L().WithFields(map[string]interface{}{
				"rule_id": rule.ID,
				"rule":    rule.Name,
				"error":   err,
			}).Error("evaluator: rule evaluation failed")
		}
	}
}

// EvaluateRule queries the rule's data source, and for every series that
// crosses the configured threshold, feeds a generic-provider payload
// through the same pipeline a pushed webhook alert takes.
func (e *Evaluator) EvaluateRule(ctx context.Context, rule domain.AlertRule) error {
	client := e.clientFor(rule.DataSourceType, rule.DataSourceURL)

	results, err := client.Query(ctx, rule.Expression, "")
	if err != nil {
		return err
	}

	for _, result := range results {
		if !checkThreshold(result.Value.Value, rule.Operator, rule.Threshold) {
			continue
		}

		labels := mergeLabels(rule.Labels, result.Metric)
		now := time.Now().UTC()

		normalized := domain.NormalizedAlert{
			Name:        rule.Name,
			Source:      "generic",
			Severity:    rule.Severity,
			Status:      domain.AlertStatusFiring,
			Description: rule.Description,
			Service:     rule.Service,
			Labels:      labels,
			Annotations: rule.Annotations,
			StartsAt:    &now,
		}

		if err := e.ingestOne(ctx, normalized); err != nil {
			return err
		}
	}

	return nil
}

// ingestOne opens one transaction per breach, mirroring
// handlers.WebhookHandler.ingestOne so a self-polled breach goes through
// exactly the same atomicity scope a pushed webhook alert does.
func (e *Evaluator) ingestOne(ctx context.Context, normalized domain.NormalizedAlert) error {
	tx, err := e.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	conn := tx.Conn()
	coordinator := &ingest.Coordinator{
		Alerts:            repository.NewAlertRepository(conn),
		Silences:          repository.NewSilenceRepository(conn),
		Runbooks:          repository.NewRunbookRuleRepository(conn),
		Incidents:         repository.NewIncidentRepository(conn),
		Locks:             repository.NewLockRepository(conn),
		Notifier:          e.Notifier,
		Broadcaster:       e.Broadcaster,
		DedupWindow:       e.DedupWindow,
		CorrelationWindow: e.CorrelationWindow,
	}

	if _, err := coordinator.Ingest(ctx, normalized); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func checkThreshold(value float64, op domain.ThresholdOperator, threshold float64) bool {
	switch op {
	case domain.ThresholdGreaterThan:
		return value > threshold
	case domain.ThresholdLessThan:
		return value < threshold
	case domain.ThresholdGreaterOrEqual:
		return value >= threshold
	case domain.ThresholdLessOrEqual:
		return value <= threshold
	case domain.ThresholdEqual:
		return value == threshold
	default:
		return value > threshold
	}
}

func mergeLabels(ruleLabels domain.StringMap, metricLabels map[string]string) domain.StringMap {
	result := make(domain.StringMap, len(ruleLabels)+len(metricLabels))
	for k, v := range ruleLabels {
		result[k] = v
	}
	for k, v := range metricLabels {
		result[k] = v
	}
	return result
}
