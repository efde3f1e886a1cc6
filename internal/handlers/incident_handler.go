package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"solace/internal/repository"
	"solace/pkg/response"
)

// IncidentHandler is the thin CRUD surface over incidents, grounded in
// original_source/backend/api/routes/incidents.py.
type IncidentHandler struct {
	incidents *repository.IncidentRepository
}

func NewIncidentHandler(incidents *repository.IncidentRepository) *IncidentHandler {
	return &IncidentHandler{incidents: incidents}
}

// List handles GET {prefix}/incidents.
func (h *IncidentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	f := repository.IncidentFilter{
		Status:   c.Query("status"),
		Search:   c.Query("q"),
		SortBy:   c.DefaultQuery("sort_by", "started_at"),
		Desc:     c.DefaultQuery("sort_order", "desc") == "desc",
		Page:     page,
		PageSize: pageSize,
	}

	incidents, total, err := h.incidents.List(c.Request.Context(), f)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list incidents")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": incidents, "total": total, "page": f.Page, "page_size": f.PageSize})
}

// Get handles GET {prefix}/incidents/:id.
func (h *IncidentHandler) Get(c *gin.Context) {
	incident, err := h.incidents.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load incident")
		return
	}
	if incident == nil {
		response.Detail(c, http.StatusNotFound, "incident not found")
		return
	}
	c.JSON(http.StatusOK, incident)
}

// Events handles GET {prefix}/incidents/:id/events.
func (h *IncidentHandler) Events(c *gin.Context) {
	events, err := h.incidents.ListEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list incident events")
		return
	}
	c.JSON(http.StatusOK, events)
}

// Acknowledge handles POST {prefix}/incidents/:id/acknowledge.
func (h *IncidentHandler) Acknowledge(c *gin.Context) {
	var body struct {
		AcknowledgedBy string `json:"acknowledged_by"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.AcknowledgedBy == "" {
		if username, ok := c.Get("username"); ok {
			body.AcknowledgedBy, _ = username.(string)
		}
	}

	incident, err := h.incidents.Acknowledge(c.Request.Context(), c.Param("id"), body.AcknowledgedBy)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to acknowledge incident")
		return
	}
	c.JSON(http.StatusOK, incident)
}

// Resolve handles POST {prefix}/incidents/:id/resolve.
func (h *IncidentHandler) Resolve(c *gin.Context) {
	var body struct {
		ResolvedBy string `json:"resolved_by"`
	}
	_ = c.ShouldBindJSON(&body)
	if body.ResolvedBy == "" {
		if username, ok := c.Get("username"); ok {
			body.ResolvedBy, _ = username.(string)
		}
	}

	incident, err := h.incidents.Resolve(c.Request.Context(), c.Param("id"), body.ResolvedBy)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to resolve incident")
		return
	}
	c.JSON(http.StatusOK, incident)
}
