package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"solace/internal/domain"
	"solace/internal/repository"
	"solace/pkg/response"
)

// BatchImportHandler is bulk export/import over silences, notification
// channels, and runbook rules, adapted from the teacher's BatchImportHandler
// (which imported/exported alert rules) to the new data model (spec.md's
// ambient batch-tooling supplement).
type BatchImportHandler struct {
	silences *repository.SilenceRepository
	channels *repository.NotificationChannelRepository
	rules    *repository.RunbookRuleRepository
}

func NewBatchImportHandler(silences *repository.SilenceRepository, channels *repository.NotificationChannelRepository, rules *repository.RunbookRuleRepository) *BatchImportHandler {
	return &BatchImportHandler{silences: silences, channels: channels, rules: rules}
}

type ImportResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

type ImportSilencesRequest struct {
	Silences []struct {
		Name      string                 `json:"name" binding:"required"`
		Matchers  domain.SilenceMatchers `json:"matchers"`
		StartsAt  time.Time              `json:"starts_at" binding:"required"`
		EndsAt    time.Time              `json:"ends_at" binding:"required"`
		CreatedBy string                 `json:"created_by"`
	} `json:"silences" binding:"required"`
}

func (h *BatchImportHandler) ImportSilences(c *gin.Context) {
	var req ImportSilencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	result := &ImportResult{}
	for i, s := range req.Silences {
		window := &domain.SilenceWindow{
			Name:      s.Name,
			Matchers:  s.Matchers,
			StartsAt:  s.StartsAt,
			EndsAt:    s.EndsAt,
			CreatedBy: s.CreatedBy,
			IsActive:  true,
		}
		if err := h.silences.Create(c.Request.Context(), window); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, "silence "+strconv.Itoa(i)+": "+err.Error())
			continue
		}
		result.Success++
	}
	c.JSON(http.StatusOK, result)
}

func (h *BatchImportHandler) ExportSilences(c *gin.Context) {
	list, err := h.silences.List(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to export silences")
		return
	}
	c.Header("Content-Disposition", "attachment; filename=silences_export_"+time.Now().Format("20060102150405")+".json")
	c.JSON(http.StatusOK, list)
}

type ImportChannelsRequest struct {
	Channels []struct {
		Name        string                `json:"name" binding:"required"`
		ChannelType domain.ChannelType    `json:"channel_type" binding:"required"`
		Config      domain.ChannelConfig  `json:"config"`
		Filters     domain.ChannelFilters `json:"filters"`
	} `json:"channels" binding:"required"`
}

func (h *BatchImportHandler) ImportChannels(c *gin.Context) {
	var req ImportChannelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	result := &ImportResult{}
	for i, ch := range req.Channels {
		channel := &domain.NotificationChannel{
			Name:        ch.Name,
			ChannelType: ch.ChannelType,
			Config:      ch.Config,
			Filters:     ch.Filters,
			IsActive:    true,
		}
		if err := h.channels.Create(c.Request.Context(), channel); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, "channel "+strconv.Itoa(i)+": "+err.Error())
			continue
		}
		result.Success++
	}
	c.JSON(http.StatusOK, result)
}

func (h *BatchImportHandler) ExportChannels(c *gin.Context) {
	list, err := h.channels.List(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to export channels")
		return
	}
	c.Header("Content-Disposition", "attachment; filename=channels_export_"+time.Now().Format("20060102150405")+".json")
	c.JSON(http.StatusOK, list)
}

type ImportRunbookRulesRequest struct {
	Rules []struct {
		ServicePattern     string `json:"service_pattern" binding:"required"`
		NamePattern        string `json:"name_pattern"`
		RunbookURLTemplate string `json:"runbook_url_template" binding:"required"`
		Priority           int    `json:"priority"`
	} `json:"rules" binding:"required"`
}

func (h *BatchImportHandler) ImportRunbookRules(c *gin.Context) {
	var req ImportRunbookRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	result := &ImportResult{}
	for i, r := range req.Rules {
		rule := &domain.RunbookRule{
			ServicePattern:     r.ServicePattern,
			NamePattern:        r.NamePattern,
			RunbookURLTemplate: r.RunbookURLTemplate,
			Priority:           r.Priority,
			IsActive:           true,
		}
		if err := h.rules.Create(c.Request.Context(), rule); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, "rule "+strconv.Itoa(i)+": "+err.Error())
			continue
		}
		result.Success++
	}
	c.JSON(http.StatusOK, result)
}

func (h *BatchImportHandler) ExportRunbookRules(c *gin.Context) {
	list, err := h.rules.List(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to export runbook rules")
		return
	}
	c.Header("Content-Disposition", "attachment; filename=runbook_rules_export_"+time.Now().Format("20060102150405")+".json")
	c.JSON(http.StatusOK, list)
}
