package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"solace/internal/domain"
	"solace/pkg/errors"
)

type teamsSender struct {
	client *http.Client
}

// formatTeamsCard builds a Microsoft Adaptive Card v1.4, the Teams
// equivalent of formatSlackMessage — no precedent in the teacher or
// original_source, authored fresh following the teacher's raw-POST idiom.
func formatTeamsCard(incident domain.Incident, event domain.IncidentEventType, dashboardURL string) map[string]interface{} {
	label := eventLabel(event)

	body := []map[string]interface{}{
		{
			"type":   "TextBlock",
			"text":   label,
			"weight": "bolder",
			"size":   "medium",
			"color":  teamsColorName(incident.Severity),
		},
		{
			"type":   "TextBlock",
			"text":   incident.Title,
			"wrap":   true,
			"weight": "bolder",
		},
		{
			"type": "FactSet",
			"facts": []map[string]interface{}{
				{"title": "Severity", "value": strings.ToUpper(string(incident.Severity))},
				{"title": "Status", "value": string(incident.Status)},
				{"title": "Alerts", "value": fmt.Sprintf("%d", len(incident.Alerts))},
			},
		},
	}

	actions := []map[string]interface{}{}
	if dashboardURL != "" {
		actions = append(actions, map[string]interface{}{
			"type":  "Action.OpenUrl",
			"title": "View in Solace",
			"url":   dashboardURL,
		})
	}

	card := map[string]interface{}{
		"type":    "AdaptiveCard",
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"version": "1.4",
		"body":    body,
		"actions": actions,
	}

	return map[string]interface{}{
		"type": "message",
		"attachments": []map[string]interface{}{
			{
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content":     card,
			},
		},
	}
}

func teamsColorName(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical, domain.SeverityHigh:
		return "attention"
	case domain.SeverityWarning:
		return "warning"
	default:
		return "default"
	}
}

func (s *teamsSender) Send(ctx context.Context, channel domain.NotificationChannel, incident domain.Incident, event domain.IncidentEventType) error {
	webhookURL := channel.Config.String("webhook_url")
	if webhookURL == "" {
		return &errors.DeliveryError{Channel: "teams", Err: fmt.Errorf("missing webhook_url in config")}
	}

	dashboardURL := channel.Config.String("dashboard_url")
	card := formatTeamsCard(incident, event, dashboardURL)

	body, err := json.Marshal(card)
	if err != nil {
		return &errors.DeliveryError{Channel: "teams", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return &errors.DeliveryError{Channel: "teams", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &errors.DeliveryError{Channel: "teams", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &errors.DeliveryError{Channel: "teams", Err: fmt.Errorf("teams webhook returned status %d", resp.StatusCode)}
	}
	return nil
}
