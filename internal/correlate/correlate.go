// Package correlate groups alerts into incidents using the service+time
// window strategy, grounded in original_source/backend/core/correlation.py.
//
// Correlation strategy (rule-based, v1):
//  1. Match by service — alerts from the same service likely relate to the
//     same issue.
//  2. Time window — only correlate with incidents started within the
//     correlation window.
//  3. Severity promotion — incident severity is always the max of its
//     alerts.
package correlate

import (
	"context"
	"fmt"
	"time"

	"solace/internal/domain"
	"solace/pkg/logging"
)

// IncidentStore is the narrow persistence surface this package needs,
// satisfied by the repository layer (directly or via a pgx.Tx wrapper so
// correlation runs inside the ingest coordinator's transaction).
type IncidentStore interface {
	FindOpenByServiceSince(ctx context.Context, service string, since time.Time) (*domain.Incident, error)
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	Create(ctx context.Context, incident *domain.Incident) error
	UpdateSeverity(ctx context.Context, id string, severity domain.Severity) error
	AttachAlert(ctx context.Context, incidentID, alertID string) error
	AppendEvent(ctx context.Context, event domain.IncidentEvent) error
	MarkResolved(ctx context.Context, id string, resolvedAt time.Time) error
}

func buildIncidentTitle(alert domain.Alert) string {
	if alert.Service == "" {
		return alert.Name
	}
	return alert.Service + " — " + alert.Name
}

// FindMatchingIncident returns the most recently started open or
// acknowledged incident for the same service within the correlation
// window, or nil if none exists.
func FindMatchingIncident(ctx context.Context, store IncidentStore, alert domain.Alert, window time.Duration) (*domain.Incident, error) {
	if alert.Service == "" {
		return nil, nil
	}
	cutoff := time.Now().UTC().Add(-window)
	return store.FindOpenByServiceSince(ctx, alert.Service, cutoff)
}

// Result carries the incident an alert ended up associated with alongside
// which audit event that produced — the ingestion coordinator only
// dispatches notifications for incident_created and severity_changed.
type Result struct {
	Incident  *domain.Incident
	EventType domain.IncidentEventType
}

// Correlate attaches alert to an existing or newly created incident, or —
// for an already-resolved alert — checks whether its incident can now be
// auto-resolved. The returned Incident may be nil for a resolved alert
// with no prior incident.
func Correlate(ctx context.Context, store IncidentStore, alert domain.Alert, window time.Duration) (Result, error) {
	if alert.Status == domain.AlertStatusResolved {
		return handleResolvedAlert(ctx, store, alert)
	}

	incident, err := FindMatchingIncident(ctx, store, alert, window)
	if err != nil {
		return Result{}, err
	}

	if incident != nil {
		return attachToIncident(ctx, store, alert, *incident)
	}
	return createIncident(ctx, store, alert)
}

func attachToIncident(ctx context.Context, store IncidentStore, alert domain.Alert, incident domain.Incident) (Result, error) {
	if err := store.AttachAlert(ctx, incident.ID, alert.ID); err != nil {
		return Result{}, err
	}
	incident.Alerts = append(incident.Alerts, alert)

	newSeverity := domain.MaxSeverity(incident.Severity, alert.Severity)
	severityChanged := newSeverity != incident.Severity
	if severityChanged {
		if err := store.UpdateSeverity(ctx, incident.ID, newSeverity); err != nil {
			return Result{}, err
		}
	}

	event := domain.IncidentEvent{
		IncidentID:  incident.ID,
		EventType:   domain.EventAlertAdded,
		Description: fmt.Sprintf("Alert %q correlated to incident", alert.Name),
		Actor:       "system",
		EventData: domain.RawJSON{
			"alert_id":          alert.ID,
			"alert_name":        alert.Name,
			"alert_severity":    string(alert.Severity),
			"alert_host":        alert.Host,
			"severity_promoted": severityChanged,
		},
	}
	if err := store.AppendEvent(ctx, event); err != nil {
		return Result{}, err
	}

	if severityChanged {
		// Reproduces the original's off-by-one: "from" is computed as the
		// predecessor of the NEW severity in SEVERITY_ORDER, not the
		// incident's actual prior severity — the two only coincide when
		// severity is promoted exactly one rank at a time.
		sevEvent := domain.IncidentEvent{
			IncidentID:  incident.ID,
			EventType:   domain.EventSeverityChanged,
			Description: fmt.Sprintf("Severity escalated to %s", newSeverity),
			EventData: domain.RawJSON{
				"from":             string(newSeverity.Predecessor()),
				"to":               string(newSeverity),
				"trigger_alert_id": alert.ID,
			},
		}
		if err := store.AppendEvent(ctx, sevEvent); err != nil {
			return Result{}, err
		}
	}

	incident.Severity = newSeverity
	logging.L().WithFields(map[string]interface{}{
		"incident": incident.ID,
		"alert":    alert.Name,
	}).Info("alert attached to incident")

	eventType := domain.EventAlertAdded
	if severityChanged {
		eventType = domain.EventSeverityChanged
	}
	return Result{Incident: &incident, EventType: eventType}, nil
}

func createIncident(ctx context.Context, store IncidentStore, alert domain.Alert) (Result, error) {
	startedAt := time.Now().UTC()
	if alert.StartsAt != nil {
		startedAt = *alert.StartsAt
	}

	incident := &domain.Incident{
		Title:     buildIncidentTitle(alert),
		Status:    domain.IncidentStatusOpen,
		Severity:  alert.Severity,
		Summary:   alert.Description,
		StartedAt: startedAt,
	}
	if err := store.Create(ctx, incident); err != nil {
		return Result{}, err
	}

	if err := store.AttachAlert(ctx, incident.ID, alert.ID); err != nil {
		return Result{}, err
	}

	event := domain.IncidentEvent{
		IncidentID:  incident.ID,
		EventType:   domain.EventIncidentCreated,
		Description: fmt.Sprintf("Incident created from alert %q", alert.Name),
		Actor:       "system",
		EventData: domain.RawJSON{
			"trigger_alert_id": alert.ID,
			"alert_name":       alert.Name,
			"service":          alert.Service,
			"host":             alert.Host,
		},
	}
	if err := store.AppendEvent(ctx, event); err != nil {
		return Result{}, err
	}

	logging.L().WithFields(map[string]interface{}{
		"incident": incident.ID,
		"severity": incident.Severity,
	}).Info("new incident created")

	return Result{Incident: incident, EventType: domain.EventIncidentCreated}, nil
}

func handleResolvedAlert(ctx context.Context, store IncidentStore, alert domain.Alert) (Result, error) {
	if alert.IncidentID == "" {
		return Result{EventType: domain.EventNone}, nil
	}

	incident, err := store.GetByID(ctx, alert.IncidentID)
	if err != nil {
		return Result{}, err
	}
	if incident == nil {
		return Result{EventType: domain.EventNone}, nil
	}

	allResolved := true
	for _, a := range incident.Alerts {
		if a.Status != domain.AlertStatusResolved {
			allResolved = false
			break
		}
	}

	eventType := domain.EventNone
	if allResolved && incident.Status != domain.IncidentStatusResolved {
		now := time.Now().UTC()
		if err := store.MarkResolved(ctx, incident.ID, now); err != nil {
			return Result{}, err
		}
		incident.Status = domain.IncidentStatusResolved
		incident.ResolvedAt = &now

		event := domain.IncidentEvent{
			IncidentID:  incident.ID,
			EventType:   domain.EventIncidentAutoResolved,
			Description: "All alerts resolved — incident auto-resolved",
			Actor:       "system",
			EventData: domain.RawJSON{
				"resolved_alert_id": alert.ID,
			},
		}
		if err := store.AppendEvent(ctx, event); err != nil {
			return Result{}, err
		}

		logging.L().WithField("incident", incident.ID).Info("incident auto-resolved")
		eventType = domain.EventIncidentAutoResolved
	}

	return Result{Incident: incident, EventType: eventType}, nil
}
