// @title Solace Alert Center API
// @version 1.0
// @description Alert ingestion, deduplication, correlation and notification platform
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"solace/internal/domain"
	"solace/internal/evaluator"
	"solace/internal/handlers"
	"solace/internal/middleware"
	"solace/internal/notify"
	"solace/internal/repository"
	"solace/internal/services"
	"solace/pkg/config"
	"solace/pkg/logging"
	"solace/pkg/ratelimit"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings, err := config.Load()
	if err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Fatal("failed to load config")
	}
	if settings.Env == "development" {
		logging.SetLevel("debug")
	}

	if settings.NoAuthRequired() {
		logging.L().Warn("no api_key configured in development environment: authentication is disabled")
	}

	db, err := repository.NewDatabase(ctx, settings)
	if err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := runMigrations(ctx, db); err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Fatal("failed to run migrations")
	}
	seedAdminUser(ctx, db, settings)

	rateLimiter := newRateLimiter(settings)

	alertRepo := repository.NewAlertRepository(db.Conn())
	incidentRepo := repository.NewIncidentRepository(db.Conn())
	silenceRepo := repository.NewSilenceRepository(db.Conn())
	runbookRepo := repository.NewRunbookRuleRepository(db.Conn())
	channelRepo := repository.NewNotificationChannelRepository(db.Conn())
	notificationLogRepo := repository.NewNotificationLogRepository(db.Conn())
	oncallRepo := repository.NewOnCallRepository(db.Conn())
	escalationRepo := repository.NewEscalationRepository(db.Conn())
	userRepo := repository.NewUserRepository(db.Conn())
	auditRepo := repository.NewAuditLogRepository(db.Conn())
	statsRepo := repository.NewStatisticsRepository(db.Conn())
	ruleRepo := repository.NewAlertRuleRepository(db.Conn())

	wsHandler := handlers.NewWebSocketHandler()

	smtp := notify.SMTPConfig{
		Host:     settings.SMTP.Host,
		Port:     settings.SMTP.Port,
		Username: settings.SMTP.Username,
		Password: settings.SMTP.Password,
		From:     settings.SMTP.From,
		StartTLS: settings.SMTP.StartTLS,
	}
	notifier := notify.NewDispatcher(channelRepo, notificationLogRepo, rateLimiter, settings.NotificationCooldown(), smtp)

	authService := services.NewAuthService(userRepo, settings.SecretKey, settings.JWTExpiry)
	correlationAnalytics := services.NewCorrelationAnalytics(incidentRepo)
	schedulingService := services.NewSchedulingService(oncallRepo)

	webhookHandler := handlers.NewWebhookHandler(db, notifier, wsHandler, settings.DedupWindow(), settings.CorrelationWindow())
	userHandler := handlers.NewUserHandler(authService, userRepo)
	alertHandler := handlers.NewAlertHandler(alertRepo)
	incidentHandler := handlers.NewIncidentHandler(incidentRepo)
	silenceHandler := handlers.NewAlertSilenceHandler(silenceRepo)
	runbookHandler := handlers.NewRunbookRuleHandler(runbookRepo)
	channelHandler := handlers.NewNotificationChannelHandler(channelRepo, notificationLogRepo)
	oncallHandler := handlers.NewOnCallHandler(oncallRepo)
	escalationHandler := handlers.NewEscalationHandler(escalationRepo)
	correlationHandler := handlers.NewCorrelationHandler(correlationAnalytics)
	schedulingHandler := handlers.NewSchedulingHandler(schedulingService)
	batchHandler := handlers.NewBatchImportHandler(silenceRepo, channelRepo, runbookRepo)
	auditLogHandler := handlers.NewAuditLogHandler(auditRepo)
	statisticsHandler := handlers.NewStatisticsHandler(statsRepo)
	ruleHandler := handlers.NewAlertRuleHandler(ruleRepo)

	router := initRouter(settings, wsHandler, webhookHandler, userHandler, alertHandler, incidentHandler,
		silenceHandler, runbookHandler, channelHandler, oncallHandler, escalationHandler, correlationHandler,
		schedulingHandler, batchHandler, auditLogHandler, statisticsHandler, ruleHandler)

	addr := fmt.Sprintf(":%d", settings.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logging.L().WithFields(map[string]interface{}{"addr": addr}).Info("starting api server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().WithFields(map[string]interface{}{"error": err}).Fatal("server failed")
		}
	}()

	go wsHandler.HandleBroadcast()

	checkInterval := 1 * time.Minute
	ruleEvaluator := evaluator.New(ruleRepo, db, notifier, wsHandler, settings.DedupWindow(), settings.CorrelationWindow(), checkInterval)
	go ruleEvaluator.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.L().Info("shutting down server")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Warn("server forced to shutdown")
	}
	logging.L().Info("server exited")
}

func newRateLimiter(settings *config.Settings) ratelimit.RateLimiter {
	if settings.RedisURL == "" {
		logging.L().Info("no redis_url configured: using process-local rate limiter")
	}
	return ratelimit.New(settings.RedisURL)
}

// seedAdminUser creates the configured admin account if no user exists.
func seedAdminUser(ctx context.Context, db *repository.Database, settings *config.Settings) {
	users := repository.NewUserRepository(db.Conn())
	existing, err := users.List(ctx)
	if err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Warn("failed to check for existing users")
		return
	}
	if len(existing) > 0 {
		return
	}

	admin := &domain.User{
		Email:       settings.AdminEmail,
		Username:    settings.AdminUsername,
		DisplayName: "Administrator",
		Role:        domain.RoleAdmin,
		IsActive:    true,
	}
	if err := users.Create(ctx, admin, settings.AdminPassword); err != nil {
		logging.L().WithFields(map[string]interface{}{"error": err}).Warn("failed to seed admin user")
		return
	}
	logging.L().WithFields(map[string]interface{}{"username": settings.AdminUsername}).Info("seeded default admin user")
}

func initRouter(
	settings *config.Settings,
	wsHandler *handlers.WebSocketHandler,
	webhookHandler *handlers.WebhookHandler,
	userHandler *handlers.UserHandler,
	alertHandler *handlers.AlertHandler,
	incidentHandler *handlers.IncidentHandler,
	silenceHandler *handlers.AlertSilenceHandler,
	runbookHandler *handlers.RunbookRuleHandler,
	channelHandler *handlers.NotificationChannelHandler,
	oncallHandler *handlers.OnCallHandler,
	escalationHandler *handlers.EscalationHandler,
	correlationHandler *handlers.CorrelationHandler,
	schedulingHandler *handlers.SchedulingHandler,
	batchHandler *handlers.BatchImportHandler,
	auditLogHandler *handlers.AuditLogHandler,
	statisticsHandler *handlers.StatisticsHandler,
	ruleHandler *handlers.AlertRuleHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	prefix := settings.Prefix

	webhooks := router.Group(prefix)
	webhooks.Use(middleware.WebhookAuthMiddleware(settings.APIKey, settings.NoAuthRequired()))
	{
		webhooks.POST("/webhooks/:provider", webhookHandler.Ingest)
	}

	public := router.Group(prefix)
	{
		public.POST("/auth/login", userHandler.Login)
	}

	router.GET(prefix+"/ws", wsTokenGate(settings), wsHandler.HandleConnection)

	api := router.Group(prefix)
	api.Use(middleware.AuthMiddleware(settings.SecretKey, settings.APIKey, settings.NoAuthRequired()))
	{
		api.GET("/auth/me", userHandler.Me)
		api.GET("/users", userHandler.List)
		api.POST("/users", userHandler.Create)

		api.GET("/alerts", alertHandler.List)
		api.GET("/alerts/:id", alertHandler.Get)
		api.POST("/alerts/:id/acknowledge", alertHandler.Acknowledge)
		api.POST("/alerts/:id/resolve", alertHandler.Resolve)
		api.POST("/alerts/bulk/acknowledge", alertHandler.BulkAcknowledge)
		api.POST("/alerts/bulk/resolve", alertHandler.BulkResolve)
		api.PUT("/alerts/:id/tags", alertHandler.UpdateTags)
		api.GET("/alerts/:id/notes", alertHandler.ListNotes)
		api.POST("/alerts/:id/notes", alertHandler.CreateNote)

		api.GET("/incidents", incidentHandler.List)
		api.GET("/incidents/:id", incidentHandler.Get)
		api.GET("/incidents/:id/events", incidentHandler.Events)
		api.POST("/incidents/:id/acknowledge", incidentHandler.Acknowledge)
		api.POST("/incidents/:id/resolve", incidentHandler.Resolve)

		api.GET("/silences", silenceHandler.List)
		api.POST("/silences", silenceHandler.Create)
		api.GET("/silences/:id", silenceHandler.Get)
		api.DELETE("/silences/:id", silenceHandler.Delete)

		api.GET("/runbook-rules", runbookHandler.List)
		api.POST("/runbook-rules", runbookHandler.Create)
		api.PUT("/runbook-rules/:id", runbookHandler.Update)
		api.DELETE("/runbook-rules/:id", runbookHandler.Delete)

		api.GET("/channels", channelHandler.List)
		api.POST("/channels", channelHandler.Create)
		api.GET("/channels/:id", channelHandler.Get)
		api.PUT("/channels/:id", channelHandler.Update)
		api.DELETE("/channels/:id", channelHandler.Delete)
		api.GET("/incidents/:id/notifications", channelHandler.ListLogs)

		api.GET("/oncall/schedules", oncallHandler.ListSchedules)
		api.POST("/oncall/schedules", oncallHandler.CreateSchedule)
		api.GET("/oncall/schedules/:id", oncallHandler.GetSchedule)
		api.PUT("/oncall/schedules/:id", oncallHandler.UpdateSchedule)
		api.POST("/oncall/schedules/:id/overrides", oncallHandler.CreateOverride)
		api.GET("/oncall/schedules/:id/overrides", oncallHandler.ListOverrides)
		api.GET("/oncall/schedules/:id/current", oncallHandler.WhoIsOnCall)
		api.GET("/escalation-policies", oncallHandler.ListEscalationPolicies)
		api.POST("/escalation-policies", oncallHandler.CreateEscalationPolicy)
		api.GET("/escalation-mappings", oncallHandler.ListMappings)
		api.POST("/escalation-mappings", oncallHandler.CreateMapping)

		api.POST("/oncall/schedules/:id/generate", schedulingHandler.GenerateSchedule)
		api.GET("/oncall/schedules/:id/suggest-rotation", schedulingHandler.SuggestRotation)
		api.GET("/oncall/schedules/:id/validate", schedulingHandler.ValidateSchedule)

		api.POST("/escalations", escalationHandler.Create)
		api.GET("/escalations", escalationHandler.List)
		api.GET("/escalations/stats", escalationHandler.Stats)
		api.GET("/escalations/pending", escalationHandler.ListMyPending)
		api.GET("/escalations/alert/:alert_id", escalationHandler.ListByAlert)
		api.POST("/escalations/:id/accept", escalationHandler.Accept)
		api.POST("/escalations/:id/reject", escalationHandler.Reject)
		api.POST("/escalations/:id/resolve", escalationHandler.Resolve)

		api.GET("/correlation/root-cause/:id", correlationHandler.RootCause)
		api.GET("/correlation/flapping/:id", correlationHandler.Flapping)
		api.GET("/correlation/timeline/:id", correlationHandler.Timeline)

		api.POST("/batch/import/silences", batchHandler.ImportSilences)
		api.GET("/batch/export/silences", batchHandler.ExportSilences)
		api.POST("/batch/import/channels", batchHandler.ImportChannels)
		api.GET("/batch/export/channels", batchHandler.ExportChannels)
		api.POST("/batch/import/runbook-rules", batchHandler.ImportRunbookRules)
		api.GET("/batch/export/runbook-rules", batchHandler.ExportRunbookRules)

		api.GET("/audit-logs", auditLogHandler.List)
		api.GET("/audit-logs/export", auditLogHandler.Export)

		api.GET("/statistics", statisticsHandler.GetStatistics)
		api.GET("/dashboard", statisticsHandler.GetDashboardSummary)

		api.GET("/alert-rules", ruleHandler.List)
		api.POST("/alert-rules", ruleHandler.Create)
		api.GET("/alert-rules/:id", ruleHandler.Get)
		api.PUT("/alert-rules/:id", ruleHandler.Update)
		api.DELETE("/alert-rules/:id", ruleHandler.Delete)
	}

	return router
}

// wsTokenGate validates the ?token= query parameter before the upgrade
// handshake, per spec.md §6: a bad or missing token closes the socket
// with close code 4003 rather than leaving the teacher's route
// unauthenticated.
func wsTokenGate(settings *config.Settings) gin.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return func(c *gin.Context) {
		token := c.Query("token")
		if middleware.AuthenticateWebSocketToken(token, settings.SecretKey, settings.APIKey, settings.NoAuthRequired()) {
			c.Next()
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		defer conn.Close()
		closeMsg := websocket.FormatCloseMessage(4003, "invalid or missing token")
		_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
		c.Abort()
	}
}
