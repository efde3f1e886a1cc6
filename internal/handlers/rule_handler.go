package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solace/internal/domain"
	"solace/internal/repository"
	"solace/pkg/response"
)

// AlertRuleHandler is CRUD over the self-polling metric rules the
// evaluator worker evaluates (§10 architecture decision), adapted from
// the teacher's alert rule management endpoints onto domain.AlertRule.
type AlertRuleHandler struct {
	rules *repository.AlertRuleRepository
}

func NewAlertRuleHandler(rules *repository.AlertRuleRepository) *AlertRuleHandler {
	return &AlertRuleHandler{rules: rules}
}

type createAlertRuleRequest struct {
	Name                      string                   `json:"name" binding:"required"`
	Description               string                   `json:"description"`
	Expression                string                   `json:"expression" binding:"required"`
	EvaluationIntervalSeconds int                      `json:"evaluation_interval_seconds"`
	Severity                  domain.Severity          `json:"severity" binding:"required"`
	Service                   string                   `json:"service"`
	Labels                    domain.StringMap         `json:"labels"`
	Annotations               domain.StringMap         `json:"annotations"`
	DataSourceType            string                   `json:"data_source_type" binding:"required"`
	DataSourceURL             string                   `json:"data_source_url" binding:"required"`
	Operator                  domain.ThresholdOperator `json:"operator" binding:"required"`
	Threshold                 float64                  `json:"threshold"`
}

func (h *AlertRuleHandler) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list alert rules")
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *AlertRuleHandler) Get(c *gin.Context) {
	rule, err := h.rules.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to get alert rule")
		return
	}
	if rule == nil {
		response.Detail(c, http.StatusNotFound, "alert rule not found")
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *AlertRuleHandler) Create(c *gin.Context) {
	var req createAlertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	interval := req.EvaluationIntervalSeconds
	if interval <= 0 {
		interval = 60
	}

	rule := &domain.AlertRule{
		Name:                      req.Name,
		Description:               req.Description,
		Expression:                req.Expression,
		EvaluationIntervalSeconds: interval,
		Severity:                  req.Severity,
		Service:                   req.Service,
		Labels:                    req.Labels,
		Annotations:               req.Annotations,
		DataSourceType:            req.DataSourceType,
		DataSourceURL:             req.DataSourceURL,
		Operator:                  req.Operator,
		Threshold:                 req.Threshold,
		IsActive:                  true,
	}
	if err := h.rules.Create(c.Request.Context(), rule); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create alert rule")
		return
	}
	c.JSON(http.StatusCreated, rule)
}

type updateAlertRuleRequest struct {
	Name                      *string                   `json:"name"`
	Description               *string                   `json:"description"`
	Expression                *string                   `json:"expression"`
	EvaluationIntervalSeconds *int                      `json:"evaluation_interval_seconds"`
	Severity                  *domain.Severity          `json:"severity"`
	Service                   *string                   `json:"service"`
	Labels                    domain.StringMap          `json:"labels"`
	Annotations               domain.StringMap          `json:"annotations"`
	DataSourceType            *string                   `json:"data_source_type"`
	DataSourceURL             *string                   `json:"data_source_url"`
	Operator                  *domain.ThresholdOperator `json:"operator"`
	Threshold                 *float64                  `json:"threshold"`
	IsActive                  *bool                     `json:"is_active"`
}

func (h *AlertRuleHandler) Update(c *gin.Context) {
	rule, err := h.rules.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to get alert rule")
		return
	}
	if rule == nil {
		response.Detail(c, http.StatusNotFound, "alert rule not found")
		return
	}

	var req updateAlertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.Expression != nil {
		rule.Expression = *req.Expression
	}
	if req.EvaluationIntervalSeconds != nil {
		rule.EvaluationIntervalSeconds = *req.EvaluationIntervalSeconds
	}
	if req.Severity != nil {
		rule.Severity = *req.Severity
	}
	if req.Service != nil {
		rule.Service = *req.Service
	}
	if req.Labels != nil {
		rule.Labels = req.Labels
	}
	if req.Annotations != nil {
		rule.Annotations = req.Annotations
	}
	if req.DataSourceType != nil {
		rule.DataSourceType = *req.DataSourceType
	}
	if req.DataSourceURL != nil {
		rule.DataSourceURL = *req.DataSourceURL
	}
	if req.Operator != nil {
		rule.Operator = *req.Operator
	}
	if req.Threshold != nil {
		rule.Threshold = *req.Threshold
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.rules.Update(c.Request.Context(), rule); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to update alert rule")
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *AlertRuleHandler) Delete(c *gin.Context) {
	if err := h.rules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to delete alert rule")
		return
	}
	c.Status(http.StatusNoContent)
}
