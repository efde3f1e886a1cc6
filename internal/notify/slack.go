package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"solace/internal/domain"
	"solace/pkg/errors"
)

type slackSender struct {
	client *http.Client
}

// formatSlackMessage builds a Block Kit attachment, ported from
// format_slack_message in notifications.py.
func formatSlackMessage(incident domain.Incident, event domain.IncidentEventType, dashboardURL string) map[string]interface{} {
	severity := string(incident.Severity)
	color := severityColor(incident.Severity)
	label := eventLabel(event)

	services := map[string]bool{}
	for _, a := range incident.Alerts {
		if a.Service != "" {
			services[a.Service] = true
		}
	}
	var serviceList []string
	for s := range services {
		serviceList = append(serviceList, s)
	}
	sort.Strings(serviceList)
	serviceText := "unknown"
	if len(serviceList) > 0 {
		serviceText = strings.Join(serviceList, ", ")
	}

	return map[string]interface{}{
		"attachments": []map[string]interface{}{
			{
				"color": color,
				"blocks": []map[string]interface{}{
					{
						"type": "section",
						"text": map[string]interface{}{
							"type": "mrkdwn",
							"text": fmt.Sprintf("*%s*\n*%s*", label, incident.Title),
						},
					},
					{
						"type": "section",
						"fields": []map[string]interface{}{
							{"type": "mrkdwn", "text": "*Severity:* " + strings.ToUpper(severity)},
							{"type": "mrkdwn", "text": fmt.Sprintf("*Alerts:* %d", len(incident.Alerts))},
							{"type": "mrkdwn", "text": "*Service:* " + serviceText},
							{"type": "mrkdwn", "text": "*Status:* " + string(incident.Status)},
						},
					},
					{
						"type": "context",
						"elements": []map[string]interface{}{
							{"type": "mrkdwn", "text": fmt.Sprintf("<%s|View in Solace>", dashboardURL)},
						},
					},
				},
			},
		},
	}
}

func (s *slackSender) Send(ctx context.Context, channel domain.NotificationChannel, incident domain.Incident, event domain.IncidentEventType) error {
	webhookURL := channel.Config.String("webhook_url")
	if webhookURL == "" {
		return &errors.DeliveryError{Channel: "slack", Err: fmt.Errorf("missing webhook_url in config")}
	}

	dashboardURL := channel.Config.String("dashboard_url")
	message := formatSlackMessage(incident, event, dashboardURL)

	body, err := json.Marshal(message)
	if err != nil {
		return &errors.DeliveryError{Channel: "slack", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return &errors.DeliveryError{Channel: "slack", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &errors.DeliveryError{Channel: "slack", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &errors.DeliveryError{Channel: "slack", Err: fmt.Errorf("slack webhook returned status %d", resp.StatusCode)}
	}
	return nil
}
