package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solace/internal/repository"
	"solace/pkg/response"
)

// StatisticsHandler serves dashboard aggregates, adapted from the
// teacher's AlertStatisticsService onto repository.StatisticsRepository.
type StatisticsHandler struct {
	stats *repository.StatisticsRepository
}

func NewStatisticsHandler(stats *repository.StatisticsRepository) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	var startTime, endTime *time.Time
	if v := c.Query("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			startTime = &t
		}
	}
	if v := c.Query("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			endTime = &t
		}
	}

	stats, err := h.stats.GetStatistics(c.Request.Context(), startTime, endTime)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatisticsHandler) GetDashboardSummary(c *gin.Context) {
	summary, err := h.stats.GetDashboardSummary(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load dashboard summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}
