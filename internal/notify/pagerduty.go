package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"solace/internal/domain"
	"solace/pkg/errors"
)

const pagerDutyEventsURL = "https://events.pagerduty.com/v2/enqueue"

type pagerDutySender struct {
	client *http.Client
}

// pagerDutySeverity maps the canonical severity onto PagerDuty's four
// allowed Events API v2 severities.
func pagerDutySeverity(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return "critical"
	case domain.SeverityHigh:
		return "error"
	case domain.SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// eventAction maps incident/event state onto PagerDuty's trigger/resolve
// idempotency model (dedup_key scoped to the incident), per spec.md §4.7.
func eventAction(incident domain.Incident, event domain.IncidentEventType) string {
	if incident.Status == domain.IncidentStatusResolved || event == domain.EventIncidentResolved {
		return "resolve"
	}
	return "trigger"
}

func (s *pagerDutySender) Send(ctx context.Context, channel domain.NotificationChannel, incident domain.Incident, event domain.IncidentEventType) error {
	routingKey := channel.Config.String("routing_key")
	if routingKey == "" {
		return &errors.DeliveryError{Channel: "pagerduty", Err: fmt.Errorf("missing routing_key in config")}
	}

	payload := map[string]interface{}{
		"routing_key":  routingKey,
		"event_action": eventAction(incident, event),
		"dedup_key":    "solace-incident-" + incident.ID,
		"payload": map[string]interface{}{
			"summary":  fmt.Sprintf("%s: %s", eventLabel(event), incident.Title),
			"source":   "solace",
			"severity": pagerDutySeverity(incident.Severity),
			"custom_details": map[string]interface{}{
				"status":      string(incident.Status),
				"alert_count": len(incident.Alerts),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &errors.DeliveryError{Channel: "pagerduty", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pagerDutyEventsURL, bytes.NewReader(body))
	if err != nil {
		return &errors.DeliveryError{Channel: "pagerduty", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &errors.DeliveryError{Channel: "pagerduty", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &errors.DeliveryError{Channel: "pagerduty", Err: fmt.Errorf("pagerduty events API returned status %d", resp.StatusCode)}
	}
	return nil
}
