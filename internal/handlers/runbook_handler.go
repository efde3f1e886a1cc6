package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solace/internal/domain"
	"solace/internal/repository"
	"solace/pkg/response"
)

// RunbookRuleHandler is the runbook-rule CRUD surface, repurposed from the
// teacher's AlertTemplateHandler — same create/list/update/delete shape,
// rewired to domain.RunbookRule and RunbookRuleRepository. The matching
// itself lives in internal/runbook, not here.
type RunbookRuleHandler struct {
	rules *repository.RunbookRuleRepository
}

func NewRunbookRuleHandler(rules *repository.RunbookRuleRepository) *RunbookRuleHandler {
	return &RunbookRuleHandler{rules: rules}
}

type createRunbookRuleRequest struct {
	ServicePattern     string `json:"service_pattern" binding:"required"`
	NamePattern        string `json:"name_pattern"`
	RunbookURLTemplate string `json:"runbook_url_template" binding:"required"`
	Priority           int    `json:"priority"`
}

func (h *RunbookRuleHandler) Create(c *gin.Context) {
	var req createRunbookRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	rule := &domain.RunbookRule{
		ServicePattern:     req.ServicePattern,
		NamePattern:        req.NamePattern,
		RunbookURLTemplate: req.RunbookURLTemplate,
		Priority:           req.Priority,
		IsActive:           true,
	}
	if err := h.rules.Create(c.Request.Context(), rule); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to create runbook rule")
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *RunbookRuleHandler) List(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list runbook rules")
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *RunbookRuleHandler) Update(c *gin.Context) {
	rule, err := h.rules.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load runbook rule")
		return
	}
	if rule == nil {
		response.Detail(c, http.StatusNotFound, "runbook rule not found")
		return
	}

	var req struct {
		ServicePattern     *string `json:"service_pattern"`
		NamePattern        *string `json:"name_pattern"`
		RunbookURLTemplate *string `json:"runbook_url_template"`
		Priority           *int    `json:"priority"`
		IsActive           *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.ServicePattern != nil {
		rule.ServicePattern = *req.ServicePattern
	}
	if req.NamePattern != nil {
		rule.NamePattern = *req.NamePattern
	}
	if req.RunbookURLTemplate != nil {
		rule.RunbookURLTemplate = *req.RunbookURLTemplate
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.rules.Update(c.Request.Context(), rule); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to update runbook rule")
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RunbookRuleHandler) Delete(c *gin.Context) {
	if err := h.rules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to delete runbook rule")
		return
	}
	c.Status(http.StatusNoContent)
}
