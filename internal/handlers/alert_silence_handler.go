package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solace/internal/domain"
	"solace/internal/repository"
	"solace/pkg/response"
)

// AlertSilenceHandler is the silence-window CRUD surface, adapted from the
// teacher's handler scaffolding but rewired to domain.SilenceWindow and
// SilenceRepository — the matching algorithm itself lives in
// internal/silence, not here.
type AlertSilenceHandler struct {
	silences *repository.SilenceRepository
}

func NewAlertSilenceHandler(silences *repository.SilenceRepository) *AlertSilenceHandler {
	return &AlertSilenceHandler{silences: silences}
}

type createSilenceRequest struct {
	Name      string                 `json:"name" binding:"required"`
	Matchers  domain.SilenceMatchers `json:"matchers"`
	StartsAt  time.Time              `json:"starts_at" binding:"required"`
	EndsAt    time.Time              `json:"ends_at" binding:"required"`
	CreatedBy string                 `json:"created_by"`
}

func (h *AlertSilenceHandler) Create(c *gin.Context) {
	var req createSilenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		response.Detail(c, http.StatusBadRequest, "ends_at must be after starts_at")
		return
	}

	window := &domain.SilenceWindow{
		Name:      req.Name,
		Matchers:  req.Matchers,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		CreatedBy: req.CreatedBy,
		IsActive:  true,
	}

	if err := h.silences.Create(c.Request.Context(), window); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create silence window")
		return
	}
	c.JSON(http.StatusCreated, window)
}

func (h *AlertSilenceHandler) List(c *gin.Context) {
	windows, err := h.silences.List(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list silence windows")
		return
	}
	c.JSON(http.StatusOK, windows)
}

func (h *AlertSilenceHandler) Get(c *gin.Context) {
	window, err := h.silences.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load silence window")
		return
	}
	if window == nil {
		response.Detail(c, http.StatusNotFound, "silence window not found")
		return
	}
	c.JSON(http.StatusOK, window)
}

func (h *AlertSilenceHandler) Delete(c *gin.Context) {
	if err := h.silences.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to delete silence window")
		return
	}
	c.Status(http.StatusNoContent)
}
