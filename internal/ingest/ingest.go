// Package ingest wires normalize -> fingerprint -> dedup -> runbook ->
// silence -> correlate -> notify into the single pipeline every alert
// source (webhook, IMAP sidecar, self-polling rule evaluator) feeds
// through. Grounded in the control-flow idiom of the teacher's
// alert_evaluator.go/alert_notification_worker.go (sequential stage calls,
// one transaction per unit of work) and in ingest_alert in
// original_source/backend/services/__init__.py for the stage order itself.
package ingest

import (
	"context"
	"time"

	"solace/internal/correlate"
	"solace/internal/dedup"
	"solace/internal/domain"
	"solace/internal/fingerprint"
	"solace/internal/notify"
	"solace/internal/runbook"
	"solace/internal/services"
	"solace/internal/silence"
	"solace/pkg/logging"
)

// AlertStore is the persistence surface the coordinator needs beyond what
// dedup/correlate already define — creating the first-seen row, recording
// occurrences and attaching a resolved incident ID back onto the alert.
type AlertStore interface {
	dedup.Finder
	Create(ctx context.Context, alert *domain.Alert) error
	RecordOccurrence(ctx context.Context, alertID string, receivedAt time.Time) error
	AttachIncidentID(ctx context.Context, alertID, incidentID string) error
}

// Locker guards concurrent ingests of the same fingerprint. The Postgres
// implementation runs pg_advisory_xact_lock(hashtext(fingerprint)) inside
// the caller's transaction (spec.md §4.9, §5); it releases automatically
// at transaction end so there is no corresponding Unlock.
type Locker interface {
	LockFingerprint(ctx context.Context, fingerprint string) error
}

// Result is what the coordinator hands back to the HTTP/IMAP/rule-eval
// callers — enough to build the 202 Accepted response body.
type Result struct {
	Alert          *domain.Alert
	IsDuplicate    bool
	DuplicateCount int
	Incident       *domain.Incident
}

// Coordinator runs the full ingestion pipeline for one normalized alert at
// a time. Each dependency is the narrow interface its own package already
// defines, so the same Coordinator works whether the repositories behind
// them are backed by a pgxpool.Pool or a single pgx.Tx.
type Coordinator struct {
	Alerts       AlertStore
	Silences     silence.WindowLister
	Runbooks     runbook.RuleLister
	Incidents    correlate.IncidentStore
	Locks        Locker
	Notifier    *notify.Dispatcher
	Broadcaster services.Broadcaster

	DedupWindow       time.Duration
	CorrelationWindow time.Duration
}

// Ingest runs one normalized alert through the full pipeline and returns
// the alert it produced (or updated) and, when applicable, the incident it
// now belongs to. Callers are expected to run this inside a transaction
// scope their AlertStore/Incidents/Silences/Runbooks implementations
// share, per spec.md §4.9's atomicity requirement.
func (c *Coordinator) Ingest(ctx context.Context, normalized domain.NormalizedAlert) (*Result, error) {
	fields := domain.IdentityFields{
		Source:  normalized.Source,
		Name:    normalized.Name,
		Service: normalized.Service,
		Host:    normalized.Host,
		Labels:  normalized.Labels,
	}
	fp := fingerprint.Compute(fields)

	if c.Locks != nil {
		if err := c.Locks.LockFingerprint(ctx, fp); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()

	existing, err := dedup.FindDuplicate(ctx, c.Alerts, fp, c.DedupWindow, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		updated, err := dedup.ProcessDuplicate(ctx, c.Alerts, existing, now)
		if err != nil {
			return nil, err
		}
		if err := c.Alerts.RecordOccurrence(ctx, updated.ID, now); err != nil {
			return nil, err
		}

		logging.L().WithFields(map[string]interface{}{
			"fingerprint": fp,
			"count":       updated.DuplicateCount,
		}).Info("duplicate alert")

		if c.Broadcaster != nil {
			c.Broadcaster.AlertUpdated(*updated)
		}

		return &Result{Alert: updated, IsDuplicate: true, DuplicateCount: updated.DuplicateCount, Incident: nil}, nil
	}

	if normalized.RunbookURL == "" && c.Runbooks != nil {
		if url, ok, err := runbook.Find(ctx, c.Runbooks, normalized.Service, normalized.Name, normalized.Host, normalized.Environment); err != nil {
			return nil, err
		} else if ok {
			normalized.RunbookURL = url
		}
	}

	alert := newAlertFromNormalized(fp, normalized, now)

	if c.Silences != nil {
		window, err := silence.Check(ctx, c.Silences, normalized)
		if err != nil {
			return nil, err
		}
		if window != nil {
			alert.Status = domain.AlertStatusSuppressed
			if err := c.Alerts.Create(ctx, alert); err != nil {
				return nil, err
			}
			logging.L().WithFields(map[string]interface{}{
				"silence":     window.Name,
				"fingerprint": fp,
			}).Info("alert suppressed by silence window")

			if c.Broadcaster != nil {
				c.Broadcaster.AlertCreated(*alert)
			}
			return &Result{Alert: alert, IsDuplicate: false, DuplicateCount: alert.DuplicateCount}, nil
		}
	}

	if err := c.Alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	if err := c.Alerts.RecordOccurrence(ctx, alert.ID, now); err != nil {
		return nil, err
	}

	var incident *domain.Incident
	eventType := domain.EventNone
	if c.Incidents != nil {
		result, err := correlate.Correlate(ctx, c.Incidents, *alert, c.CorrelationWindow)
		if err != nil {
			return nil, err
		}
		incident = result.Incident
		eventType = result.EventType

		if incident != nil {
			if err := c.Alerts.AttachIncidentID(ctx, alert.ID, incident.ID); err != nil {
				return nil, err
			}
			alert.IncidentID = incident.ID
		}

		// Only a brand-new incident or a severity promotion is worth
		// paging someone about — a plain alert_added doesn't change what
		// an on-call engineer needs to do.
		if incident != nil && (eventType == domain.EventIncidentCreated || eventType == domain.EventSeverityChanged) && c.Notifier != nil {
			if err := c.Notifier.Dispatch(ctx, *incident, eventType); err != nil {
				return nil, err
			}
		}
	}

	logging.L().WithFields(map[string]interface{}{
		"fingerprint": fp,
		"severity":    alert.Severity,
		"name":        alert.Name,
	}).Info("new alert ingested")

	if c.Broadcaster != nil {
		c.Broadcaster.AlertCreated(*alert)
		if incident != nil {
			if eventType == domain.EventIncidentCreated {
				c.Broadcaster.IncidentCreated(*incident)
			} else {
				c.Broadcaster.IncidentUpdated(*incident)
			}
		}
	}

	return &Result{Alert: alert, IsDuplicate: false, DuplicateCount: alert.DuplicateCount, Incident: incident}, nil
}

func newAlertFromNormalized(fingerprint string, n domain.NormalizedAlert, now time.Time) *domain.Alert {
	startsAt := now
	if n.StartsAt != nil {
		startsAt = *n.StartsAt
	}

	status := n.Status
	if status == "" {
		status = domain.AlertStatusFiring
	}

	alert := &domain.Alert{
		Fingerprint:    fingerprint,
		Name:           n.Name,
		Source:         n.Source,
		Severity:       n.Severity,
		Status:         status,
		Description:    n.Description,
		Service:        n.Service,
		Environment:    n.Environment,
		Host:           n.Host,
		SourceInstance: n.SourceInstance,
		GeneratorURL:   n.GeneratorURL,
		RunbookURL:     n.RunbookURL,
		TicketURL:      n.TicketURL,
		StartsAt:       &startsAt,
		EndsAt:         n.EndsAt,
		Labels:         n.Labels,
		Annotations:    n.Annotations,
		Tags:           n.Tags,
		RawPayload:     n.RawPayload,
		LastReceivedAt: now,
		DuplicateCount: 1,
	}

	if status == domain.AlertStatusResolved && n.EndsAt != nil {
		alert.ResolvedAt = n.EndsAt
	}

	return alert
}
