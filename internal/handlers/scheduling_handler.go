package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solace/internal/services"
	"solace/pkg/response"
)

// SchedulingHandler exposes on-call rotation generation and validation,
// adapted from the teacher's SchedulingHandler onto the new
// SchedulingService (previously stubs, now a real implementation over
// domain.OnCallSchedule).
type SchedulingHandler struct {
	scheduling *services.SchedulingService
}

func NewSchedulingHandler(scheduling *services.SchedulingService) *SchedulingHandler {
	return &SchedulingHandler{scheduling: scheduling}
}

func (h *SchedulingHandler) GenerateSchedule(c *gin.Context) {
	scheduleID := c.Param("id")

	start, err := time.Parse(time.RFC3339, c.Query("start_time"))
	if err != nil {
		response.Detail(c, http.StatusBadRequest, "start_time must be RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end_time"))
	if err != nil {
		response.Detail(c, http.StatusBadRequest, "end_time must be RFC3339")
		return
	}

	shifts, err := h.scheduling.GenerateSchedule(c.Request.Context(), scheduleID, start, end)
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to generate schedule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"shifts": shifts, "total": len(shifts)})
}

func (h *SchedulingHandler) SuggestRotation(c *gin.Context) {
	shift, err := h.scheduling.SuggestRotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to suggest rotation")
		return
	}
	if shift == nil {
		c.JSON(http.StatusOK, gin.H{"suggestion": nil})
		return
	}
	c.JSON(http.StatusOK, shift)
}

func (h *SchedulingHandler) ValidateSchedule(c *gin.Context) {
	validation, err := h.scheduling.ValidateSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to validate schedule")
		return
	}
	c.JSON(http.StatusOK, validation)
}
