// Command worker runs the self-polling metric rule evaluator (§10
// architecture decision) as a standalone process, for deployments that
// split the HTTP edge from the PromQL/VictoriaMetrics polling loop rather
// than running it embedded in cmd/api. It shares cmd/api's config loading
// but runs no migrations itself (cmd/api applies them), mirroring the
// teacher's own api/worker binary split.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solace/internal/domain"
	"solace/internal/evaluator"
	"solace/internal/notify"
	"solace/internal/repository"
	"solace/internal/services"
	"solace/pkg/config"
	"solace/pkg/logging"
	"solace/pkg/ratelimit"
)

// noopBroadcaster satisfies services.Broadcaster when this binary runs
// without the HTTP edge's WebSocket handler to push to.
type noopBroadcaster struct{}

func (noopBroadcaster) SendAlertNotification(*services.AlertNotification) {}
func (noopBroadcaster) AlertCreated(domain.Alert)                         {}
func (noopBroadcaster) AlertUpdated(domain.Alert)                         {}
func (noopBroadcaster) IncidentCreated(domain.Incident)                   {}
func (noopBroadcaster) IncidentUpdated(domain.Incident)                   {}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings, err := config.Load()
	if err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Fatal("failed to load config")
	}

	db, err := repository.NewDatabase(ctx, settings)
	if err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Fatal("failed to connect to database")
	}
	defer db.Close()

	ruleRepo := repository.NewAlertRuleRepository(db.Conn())
	channelRepo := repository.NewNotificationChannelRepository(db.Conn())
	notificationLogRepo := repository.NewNotificationLogRepository(db.Conn())

	rateLimiter := ratelimit.New(settings.RedisURL)

	smtp := notify.SMTPConfig{
		Host:     settings.SMTP.Host,
		Port:     settings.SMTP.Port,
		Username: settings.SMTP.Username,
		Password: settings.SMTP.Password,
		From:     settings.SMTP.From,
		StartTLS: settings.SMTP.StartTLS,
	}
	notifier := notify.NewDispatcher(channelRepo, notificationLogRepo, rateLimiter, settings.NotificationCooldown(), smtp)

	checkInterval := 1 * time.Minute
	ruleEvaluator := evaluator.New(ruleRepo, db, notifier, noopBroadcaster{}, settings.DedupWindow(), settings.CorrelationWindow(), checkInterval)

	logging.L().WithFields(map[string]interface{}{"check_interval": checkInterval}).Info("starting alert rule evaluator worker")
	go ruleEvaluator.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.L().Info("shutting down worker")
	cancel()
	logging.L().Info("worker stopped")
}
