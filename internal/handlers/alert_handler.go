package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"solace/internal/repository"
	"solace/pkg/response"
)

// AlertHandler is the thin CRUD surface over alerts, grounded in
// original_source/backend/api/routes/alerts.py.
type AlertHandler struct {
	alerts *repository.AlertRepository
}

func NewAlertHandler(alerts *repository.AlertRepository) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List handles GET {prefix}/alerts.
func (h *AlertHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	f := repository.AlertFilter{
		Status:   c.Query("status"),
		Severity: c.Query("severity"),
		Service:  c.Query("service"),
		Search:   c.Query("q"),
		Tag:      c.Query("tag"),
		SortBy:   c.DefaultQuery("sort_by", "created_at"),
		Desc:     c.DefaultQuery("sort_order", "desc") == "desc",
		Page:     page,
		PageSize: pageSize,
	}

	alerts, total, err := h.alerts.List(c.Request.Context(), f)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": alerts, "total": total, "page": f.Page, "page_size": f.PageSize})
}

// Get handles GET {prefix}/alerts/:id.
func (h *AlertHandler) Get(c *gin.Context) {
	alert, err := h.alerts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load alert")
		return
	}
	if alert == nil {
		response.Detail(c, http.StatusNotFound, "alert not found")
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Acknowledge handles POST {prefix}/alerts/:id/acknowledge.
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	var body struct {
		AcknowledgedBy string `json:"acknowledged_by"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.AcknowledgedBy == "" {
		if username, ok := c.Get("username"); ok {
			body.AcknowledgedBy, _ = username.(string)
		}
	}

	alert, err := h.alerts.Acknowledge(c.Request.Context(), c.Param("id"), body.AcknowledgedBy)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to acknowledge alert")
		return
	}
	if alert == nil {
		response.Detail(c, http.StatusNotFound, "alert not found")
		return
	}
	c.JSON(http.StatusOK, alert)
}

// Resolve handles POST {prefix}/alerts/:id/resolve.
func (h *AlertHandler) Resolve(c *gin.Context) {
	alert, err := h.alerts.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to resolve alert")
		return
	}
	if alert == nil {
		response.Detail(c, http.StatusNotFound, "alert not found")
		return
	}
	c.JSON(http.StatusOK, alert)
}

// BulkAcknowledge handles POST {prefix}/alerts/bulk/acknowledge.
func (h *AlertHandler) BulkAcknowledge(c *gin.Context) {
	var body struct {
		IDs            []string `json:"ids"`
		AcknowledgedBy string   `json:"acknowledged_by"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Detail(c, http.StatusBadRequest, "invalid body")
		return
	}

	ids, err := h.alerts.BulkAcknowledge(c.Request.Context(), body.IDs, body.AcknowledgedBy)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to acknowledge alerts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": ids})
}

// BulkResolve handles POST {prefix}/alerts/bulk/resolve.
func (h *AlertHandler) BulkResolve(c *gin.Context) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Detail(c, http.StatusBadRequest, "invalid body")
		return
	}

	ids, err := h.alerts.BulkResolve(c.Request.Context(), body.IDs)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to resolve alerts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": ids})
}

// UpdateTags handles PUT {prefix}/alerts/:id/tags.
func (h *AlertHandler) UpdateTags(c *gin.Context) {
	var body struct {
		Tags []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Detail(c, http.StatusBadRequest, "invalid body")
		return
	}

	alert, err := h.alerts.UpdateTags(c.Request.Context(), c.Param("id"), body.Tags)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to update tags")
		return
	}
	if alert == nil {
		response.Detail(c, http.StatusNotFound, "alert not found")
		return
	}
	c.JSON(http.StatusOK, alert)
}

// ListNotes handles GET {prefix}/alerts/:id/notes.
func (h *AlertHandler) ListNotes(c *gin.Context) {
	notes, err := h.alerts.ListNotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list notes")
		return
	}
	c.JSON(http.StatusOK, notes)
}

// CreateNote handles POST {prefix}/alerts/:id/notes.
func (h *AlertHandler) CreateNote(c *gin.Context) {
	var body struct {
		Author string `json:"author"`
		Body   string `json:"body"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Body == "" {
		response.Detail(c, http.StatusBadRequest, "note body is required")
		return
	}

	note, err := h.alerts.CreateNote(c.Request.Context(), c.Param("id"), body.Author, body.Body)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create note")
		return
	}
	c.JSON(http.StatusCreated, note)
}
