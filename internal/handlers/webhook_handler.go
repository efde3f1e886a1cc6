package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solace/internal/domain"
	"solace/internal/ingest"
	"solace/internal/normalize"
	"solace/internal/notify"
	"solace/internal/repository"
	"solace/internal/services"
	"solace/pkg/errors"
	"solace/pkg/logging"
	"solace/pkg/response"
)

// WebhookHandler is the HTTP edge for C9, grounded in
// original_source/backend/api/routes/webhooks.py's five-step flow:
// resolve provider -> validate shape -> normalize -> ingest each alert in
// its own transaction -> 202 with the last alert's outcome.
type WebhookHandler struct {
	db                *repository.Database
	notifier          *notify.Dispatcher
	broadcaster       services.Broadcaster
	dedupWindow       time.Duration
	correlationWindow time.Duration
}

func NewWebhookHandler(db *repository.Database, notifier *notify.Dispatcher, broadcaster services.Broadcaster, dedupWindow, correlationWindow time.Duration) *WebhookHandler {
	return &WebhookHandler{
		db:                db,
		notifier:          notifier,
		broadcaster:       broadcaster,
		dedupWindow:       dedupWindow,
		correlationWindow: correlationWindow,
	}
}

// webhookAcceptedResponse mirrors spec.md §6's 202 contract.
type webhookAcceptedResponse struct {
	Status         string  `json:"status"`
	AlertID        string  `json:"alert_id"`
	Fingerprint    string  `json:"fingerprint"`
	IsDuplicate    bool    `json:"is_duplicate"`
	DuplicateCount int     `json:"duplicate_count"`
	IncidentID     *string `json:"incident_id,omitempty"`
}

// Ingest handles POST {prefix}/webhooks/:provider.
func (h *WebhookHandler) Ingest(c *gin.Context) {
	provider := c.Param("provider")
	normalizer, ok := normalize.Get(provider)
	if !ok {
		response.Detail(c, http.StatusBadRequest, "unknown provider: "+provider)
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Detail(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !normalizer.Validate(payload) {
		response.Detail(c, http.StatusUnprocessableEntity, "payload does not match "+provider+" shape")
		return
	}

	alerts := normalizer.Normalize(payload)
	if len(alerts) == 0 {
		response.Detail(c, http.StatusUnprocessableEntity, errors.ErrNoAlertsExtracted.Message)
		return
	}

	var last *ingest.Result
	for _, normalized := range alerts {
		result, err := h.ingestOne(c.Request.Context(), normalized)
		if err != nil {
			logging.L().WithError(err).WithFields(map[string]interface{}{"provider": provider}).Error("ingestion failed")
			response.Detail(c, http.StatusInternalServerError, "failed to ingest alert")
			return
		}
		last = result
	}

	resp := webhookAcceptedResponse{
		Status:         "accepted",
		AlertID:        last.Alert.ID,
		Fingerprint:    last.Alert.Fingerprint,
		IsDuplicate:    last.IsDuplicate,
		DuplicateCount: last.DuplicateCount,
	}
	if last.Incident != nil {
		resp.IncidentID = &last.Incident.ID
	}
	c.JSON(http.StatusAccepted, resp)
}

// ingestOne opens one transaction per normalized alert, mirroring the
// original's per-alert commit inside a provider payload that can carry more
// than one (e.g. Prometheus Alertmanager batches).
func (h *WebhookHandler) ingestOne(ctx context.Context, normalized domain.NormalizedAlert) (*ingest.Result, error) {
	tx, err := h.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	conn := tx.Conn()
	coordinator := &ingest.Coordinator{
		Alerts:            repository.NewAlertRepository(conn),
		Silences:          repository.NewSilenceRepository(conn),
		Runbooks:          repository.NewRunbookRuleRepository(conn),
		Incidents:         repository.NewIncidentRepository(conn),
		Locks:             repository.NewLockRepository(conn),
		Notifier:          h.notifier,
		Broadcaster:       h.broadcaster,
		DedupWindow:       h.dedupWindow,
		CorrelationWindow: h.correlationWindow,
	}

	result, err := coordinator.Ingest(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
