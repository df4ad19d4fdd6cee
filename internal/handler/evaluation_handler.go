package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
	"github.com/nonprofit-edge/evaluation-api/internal/service"
	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
	"github.com/nonprofit-edge/evaluation-api/pkg/response"
)

// EvaluationHandler wires the admin-facing evaluation endpoints.
type EvaluationHandler struct {
	service *service.EvaluationService
	reports *service.ReportService
}

// NewEvaluationHandler creates a new handler.
func NewEvaluationHandler(svc *service.EvaluationService, reports *service.ReportService) *EvaluationHandler {
	return &EvaluationHandler{service: svc, reports: reports}
}

// Create godoc
// @Summary Launch a CEO evaluation
// @Description Create an evaluation with its evaluator roster and send invitations
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param payload body service.CreateEvaluationRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req service.CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}

	res, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// List godoc
// @Summary List evaluations
// @Description List evaluations with filtering and pagination
// @Tags Evaluations
// @Produce json
// @Param organization_id query string false "Filter by organization"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /evaluations [get]
func (h *EvaluationHandler) List(c *gin.Context) {
	filter := models.EvaluationFilter{
		OrganizationID: c.Query("organization_id"),
		Status:         models.EvaluationStatus(c.Query("status")),
		SortBy:         c.Query("sort_by"),
		SortOrder:      c.Query("sort_order"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	evaluations, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, evaluations, pagination)
}

// Progress godoc
// @Summary Evaluation progress
// @Description Aggregate counts plus per-evaluator status, no response content
// @Tags Evaluations
// @Produce json
// @Param id path string true "Evaluation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /evaluations/{id}/progress [get]
func (h *EvaluationHandler) Progress(c *gin.Context) {
	progress, err := h.service.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, progress, nil)
}

// ExportProgress godoc
// @Summary Export evaluator progress as CSV
// @Tags Evaluations
// @Produce text/csv
// @Param id path string true "Evaluation ID"
// @Success 200 {string} string "CSV content"
// @Failure 404 {object} response.Envelope
// @Router /evaluations/{id}/progress/export [get]
func (h *EvaluationHandler) ExportProgress(c *gin.Context) {
	data, err := h.service.ExportProgressCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="evaluation-progress.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// Close godoc
// @Summary Close an evaluation
// @Description Transition the evaluation to closed; forward only
// @Tags Evaluations
// @Produce json
// @Param id path string true "Evaluation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /evaluations/{id}/close [post]
func (h *EvaluationHandler) Close(c *gin.Context) {
	evaluation, err := h.service.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, evaluation, nil)
}

// SendReport godoc
// @Summary Email the evaluation report
// @Description Render the aggregate report as PDF and email it to the admin and optional extra recipients
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path string true "Evaluation ID"
// @Param payload body service.SendReportRequest false "Additional recipients"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /evaluations/{id}/report [post]
func (h *EvaluationHandler) SendReport(c *gin.Context) {
	var req service.SendReportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
			return
		}
	}
	req.EvaluationID = c.Param("id")

	res, err := h.reports.Send(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
