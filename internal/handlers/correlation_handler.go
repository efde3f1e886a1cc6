package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solace/internal/services"
	"solace/pkg/response"
)

// CorrelationHandler exposes the read-only analytics companion
// (services.CorrelationAnalytics) over already-correlated incidents —
// adapted from the teacher's CorrelationHandler, rewired from per-alert
// rule-id queries to per-incident ones matching the new data model.
type CorrelationHandler struct {
	analytics *services.CorrelationAnalytics
}

func NewCorrelationHandler(analytics *services.CorrelationAnalytics) *CorrelationHandler {
	return &CorrelationHandler{analytics: analytics}
}

func (h *CorrelationHandler) RootCause(c *gin.Context) {
	candidates, err := h.analytics.RankRootCause(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to rank root cause")
		return
	}
	c.JSON(http.StatusOK, candidates)
}

func (h *CorrelationHandler) Flapping(c *gin.Context) {
	window, err := h.analytics.DetectFlapping(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to detect flapping")
		return
	}
	if window == nil {
		c.JSON(http.StatusOK, gin.H{"flapping": false})
		return
	}
	c.JSON(http.StatusOK, window)
}

func (h *CorrelationHandler) Timeline(c *gin.Context) {
	events, err := h.analytics.Timeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to build timeline")
		return
	}
	c.JSON(http.StatusOK, events)
}
