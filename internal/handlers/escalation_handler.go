package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"solace/internal/domain"
	"solace/internal/repository"
	"solace/pkg/response"
)

// EscalationHandler is the manual-escalation (operator handoff) surface,
// merged from the teacher's EscalationHandler and EscalationHistoryHandler
// — both backed the same user_escalations table, one via a service, the
// other via raw SQL directly on *repository.Database — now both rewired to
// a single EscalationRepository.
type EscalationHandler struct {
	escalations *repository.EscalationRepository
}

func NewEscalationHandler(escalations *repository.EscalationRepository) *EscalationHandler {
	return &EscalationHandler{escalations: escalations}
}

type createEscalationRequest struct {
	AlertID    string `json:"alert_id" binding:"required"`
	ToUserID   string `json:"to_user_id" binding:"required"`
	ToUsername string `json:"to_username" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

func (h *EscalationHandler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")
	username, _ := c.Get("username")

	var req createEscalationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	fromUserID, _ := userID.(string)
	fromUsername, _ := username.(string)

	esc := &domain.UserEscalation{
		AlertID:      req.AlertID,
		FromUserID:   fromUserID,
		FromUsername: fromUsername,
		ToUserID:     req.ToUserID,
		ToUsername:   req.ToUsername,
		Reason:       req.Reason,
	}
	if err := h.escalations.Create(c.Request.Context(), esc); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create escalation")
		return
	}
	c.JSON(http.StatusCreated, esc)
}

func (h *EscalationHandler) ListByAlert(c *gin.Context) {
	list, err := h.escalations.ListByAlert(c.Request.Context(), c.Param("alert_id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list escalations")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *EscalationHandler) ListMyPending(c *gin.Context) {
	userID, _ := c.Get("user_id")
	id, _ := userID.(string)

	list, err := h.escalations.ListPendingForUser(c.Request.Context(), id)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list pending escalations")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *EscalationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, total, err := h.escalations.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list escalations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "page_size": pageSize})
}

func (h *EscalationHandler) Stats(c *gin.Context) {
	stats, err := h.escalations.Stats(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load escalation stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *EscalationHandler) Accept(c *gin.Context) {
	if err := h.escalations.Accept(c.Request.Context(), c.Param("id")); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to accept escalation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

func (h *EscalationHandler) Reject(c *gin.Context) {
	if err := h.escalations.Reject(c.Request.Context(), c.Param("id")); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to reject escalation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

func (h *EscalationHandler) Resolve(c *gin.Context) {
	if err := h.escalations.Resolve(c.Request.Context(), c.Param("id")); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to resolve escalation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}
