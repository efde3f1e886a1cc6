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

type webhookSender struct {
	client *http.Client
}

// webhookEnvelope is the generic JSON body delivered to a plain webhook
// channel, per spec.md §6's generic outbound format — grounded in the
// teacher's sendWebhookAlert (its non-Lark branch, which posts the alert
// payload verbatim).
type webhookEnvelope struct {
	EventType   string   `json:"event_type"`
	IncidentID  string   `json:"incident_id"`
	Title       string   `json:"title"`
	Severity    string   `json:"severity"`
	Status      string   `json:"status"`
	Summary     string   `json:"summary"`
	AlertCount  int      `json:"alert_count"`
	Services    []string `json:"services"`
	StartedAt   string   `json:"started_at"`
	ResolvedAt  string   `json:"resolved_at,omitempty"`
}

func buildWebhookEnvelope(incident domain.Incident, event domain.IncidentEventType) webhookEnvelope {
	services := map[string]bool{}
	for _, a := range incident.Alerts {
		if a.Service != "" {
			services[a.Service] = true
		}
	}
	var list []string
	for s := range services {
		list = append(list, s)
	}

	env := webhookEnvelope{
		EventType:  string(event),
		IncidentID: incident.ID,
		Title:      incident.Title,
		Severity:   string(incident.Severity),
		Status:     string(incident.Status),
		Summary:    incident.Summary,
		AlertCount: len(incident.Alerts),
		Services:   list,
		StartedAt:  incident.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if incident.ResolvedAt != nil {
		env.ResolvedAt = incident.ResolvedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return env
}

func (s *webhookSender) Send(ctx context.Context, channel domain.NotificationChannel, incident domain.Incident, event domain.IncidentEventType) error {
	url := channel.Config.String("url")
	if url == "" {
		return &errors.DeliveryError{Channel: "webhook", Err: fmt.Errorf("missing url in config")}
	}

	body, err := json.Marshal(buildWebhookEnvelope(incident, event))
	if err != nil {
		return &errors.DeliveryError{Channel: "webhook", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &errors.DeliveryError{Channel: "webhook", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range channel.Config.StringMap("headers") {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &errors.DeliveryError{Channel: "webhook", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &errors.DeliveryError{Channel: "webhook", Err: fmt.Errorf("webhook returned status %d", resp.StatusCode)}
	}
	return nil
}
