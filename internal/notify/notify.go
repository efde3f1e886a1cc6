// Package notify dispatches incident events to configured notification
// channels, grounded in original_source/backend/core/notifications.py
// (matches_filters, check_rate_limit, dispatch_notifications) and the
// teacher's alert_channel_service.go for raw-HTTP transport idiom.
package notify

import (
	"context"
	"net/http"
	"time"

	"solace/internal/domain"
	"solace/pkg/errors"
	"solace/pkg/logging"
	"solace/pkg/ratelimit"
)

// eventLabels mirrors EVENT_LABELS in notifications.py.
var eventLabels = map[domain.IncidentEventType]string{
	domain.EventIncidentCreated: "New Incident",
	domain.EventSeverityChanged: "Severity Escalated",
	domain.EventIncidentResolved: "Incident Resolved",
}

func eventLabel(t domain.IncidentEventType) string {
	if l, ok := eventLabels[t]; ok {
		return l
	}
	return string(t)
}

// severityColors mirrors SEVERITY_COLORS in notifications.py, used by the
// Slack and Teams card senders.
var severityColors = map[domain.Severity]string{
	domain.SeverityCritical: "#ef4444",
	domain.SeverityHigh:     "#f97316",
	domain.SeverityWarning:  "#eab308",
	domain.SeverityLow:      "#3b82f6",
	domain.SeverityInfo:     "#6b7280",
}

func severityColor(s domain.Severity) string {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return "#6b7280"
}

// ChannelLister is satisfied by the notification-channel repository.
type ChannelLister interface {
	ListActive(ctx context.Context) ([]domain.NotificationChannel, error)
}

// LogStore records the PENDING -> SENT/FAILED lifecycle of one dispatch
// attempt per matching, non-rate-limited channel.
type LogStore interface {
	Create(ctx context.Context, log domain.NotificationLog) (string, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
}

// sender is implemented by each channel type's transport.
type sender interface {
	Send(ctx context.Context, channel domain.NotificationChannel, incident domain.Incident, event domain.IncidentEventType) error
}

// Dispatcher fans an incident event out to every active, matching,
// not-cooled-down channel.
type Dispatcher struct {
	Channels    ChannelLister
	Logs        LogStore
	RateLimiter ratelimit.RateLimiter
	Cooldown    time.Duration

	senders map[domain.ChannelType]sender
}

// NewDispatcher wires the five built-in channel senders using a shared
// HTTP client with the 10s timeout named in spec.md §5.
func NewDispatcher(channels ChannelLister, logs LogStore, limiter ratelimit.RateLimiter, cooldown time.Duration, smtp SMTPConfig) *Dispatcher {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &Dispatcher{
		Channels:    channels,
		Logs:        logs,
		RateLimiter: limiter,
		Cooldown:    cooldown,
		senders: map[domain.ChannelType]sender{
			domain.ChannelSlack:     &slackSender{client: httpClient},
			domain.ChannelTeams:     &teamsSender{client: httpClient},
			domain.ChannelWebhook:   &webhookSender{client: httpClient},
			domain.ChannelPagerDuty: &pagerDutySender{client: httpClient},
			domain.ChannelEmail:     &emailSender{cfg: smtp},
		},
	}
}

// matchesFilters reports whether an incident satisfies a channel's
// severity/service filters. Missing or empty filter lists match everything.
func matchesFilters(channel domain.NotificationChannel, incident domain.Incident) bool {
	if len(channel.Filters.Severity) > 0 {
		found := false
		for _, s := range channel.Filters.Severity {
			if domain.Severity(s) == incident.Severity {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(channel.Filters.Service) > 0 {
		incidentServices := map[string]bool{}
		for _, a := range incident.Alerts {
			if a.Service != "" {
				incidentServices[a.Service] = true
			}
		}
		matched := false
		for _, s := range channel.Filters.Service {
			if incidentServices[s] {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Dispatch sends the event to every active channel whose filters match,
// gated by the shared rate-limit store, logging PENDING then SENT/FAILED
// for each attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, incident domain.Incident, event domain.IncidentEventType) error {
	channels, err := d.Channels.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return nil
	}

	for _, channel := range channels {
		if !matchesFilters(channel, incident) {
			continue
		}

		key := channel.ID + ":" + incident.ID
		ok, err := d.RateLimiter.CheckAndSet(ctx, key, d.Cooldown)
		if err != nil {
			logging.L().WithError(err).Warn("rate limiter check failed")
			continue
		}
		if !ok {
			logging.L().WithFields(map[string]interface{}{
				"channel":  channel.Name,
				"incident": incident.ID,
			}).Debug("notification rate-limited")
			continue
		}

		d.send(ctx, channel, incident, event)
	}

	return nil
}

func (d *Dispatcher) send(ctx context.Context, channel domain.NotificationChannel, incident domain.Incident, event domain.IncidentEventType) {
	logID, err := d.Logs.Create(ctx, domain.NotificationLog{
		ChannelID:  channel.ID,
		IncidentID: incident.ID,
		EventType:  event,
		Status:     domain.NotificationPending,
	})
	if err != nil {
		logging.L().WithError(err).Error("failed to create notification log")
		return
	}

	transport, ok := d.senders[channel.ChannelType]
	if !ok {
		_ = d.Logs.MarkFailed(ctx, logID, errors.ErrUnknownProvider.Error())
		return
	}

	if err := transport.Send(ctx, channel, incident, event); err != nil {
		msg := errors.Truncate(err.Error(), 500)
		if markErr := d.Logs.MarkFailed(ctx, logID, msg); markErr != nil {
			logging.L().WithError(markErr).Error("failed to mark notification failed")
		}
		logging.L().WithFields(map[string]interface{}{
			"channel":  channel.Name,
			"incident": incident.ID,
			"error":    err,
		}).Warn("notification failed")
		return
	}

	if err := d.Logs.MarkSent(ctx, logID, time.Now().UTC()); err != nil {
		logging.L().WithError(err).Error("failed to mark notification sent")
	}
	logging.L().WithFields(map[string]interface{}{
		"channel":  channel.Name,
		"incident": incident.ID,
		"event":    event,
	}).Info("notification sent")
}
