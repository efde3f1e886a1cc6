package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solace/internal/domain"
	"solace/internal/repository"
	"solace/pkg/response"
)

// NotificationChannelHandler is the notification-channel CRUD surface,
// repurposed from the teacher's AlertChannelBindingHandler (which bound
// alert rules to channels) — this model attaches match filters directly to
// each channel instead, so binding is folded into channel create/update.
type NotificationChannelHandler struct {
	channels *repository.NotificationChannelRepository
	logs     *repository.NotificationLogRepository
}

func NewNotificationChannelHandler(channels *repository.NotificationChannelRepository, logs *repository.NotificationLogRepository) *NotificationChannelHandler {
	return &NotificationChannelHandler{channels: channels, logs: logs}
}

func (h *NotificationChannelHandler) List(c *gin.Context) {
	channels, err := h.channels.List(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list channels")
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (h *NotificationChannelHandler) Get(c *gin.Context) {
	channel, err := h.channels.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load channel")
		return
	}
	if channel == nil {
		response.Detail(c, http.StatusNotFound, "channel not found")
		return
	}
	c.JSON(http.StatusOK, channel)
}

type createChannelRequest struct {
	Name        string              `json:"name" binding:"required"`
	ChannelType domain.ChannelType  `json:"channel_type" binding:"required"`
	Config      domain.ChannelConfig `json:"config"`
	Filters     domain.ChannelFilters `json:"filters"`
}

func (h *NotificationChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	channel := &domain.NotificationChannel{
		Name:        req.Name,
		ChannelType: req.ChannelType,
		Config:      req.Config,
		Filters:     req.Filters,
		IsActive:    true,
	}
	if err := h.channels.Create(c.Request.Context(), channel); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create channel")
		return
	}
	c.JSON(http.StatusCreated, channel)
}

func (h *NotificationChannelHandler) Update(c *gin.Context) {
	channel, err := h.channels.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load channel")
		return
	}
	if channel == nil {
		response.Detail(c, http.StatusNotFound, "channel not found")
		return
	}

	var req struct {
		Name        *string               `json:"name"`
		ChannelType *domain.ChannelType   `json:"channel_type"`
		Config      domain.ChannelConfig  `json:"config"`
		Filters     domain.ChannelFilters `json:"filters"`
		IsActive    *bool                 `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		channel.Name = *req.Name
	}
	if req.ChannelType != nil {
		channel.ChannelType = *req.ChannelType
	}
	if req.Config != nil {
		channel.Config = req.Config
	}
	if req.Filters != nil {
		channel.Filters = req.Filters
	}
	if req.IsActive != nil {
		channel.IsActive = *req.IsActive
	}

	if err := h.channels.Update(c.Request.Context(), channel); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to update channel")
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (h *NotificationChannelHandler) Delete(c *gin.Context) {
	if err := h.channels.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to delete channel")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListLogs handles GET {prefix}/incidents/:id/notifications — the delivery
// audit trail for one incident.
func (h *NotificationChannelHandler) ListLogs(c *gin.Context) {
	logs, err := h.logs.ListByIncident(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list notification logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}
