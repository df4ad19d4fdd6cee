package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
	"github.com/nonprofit-edge/evaluation-api/internal/service"
	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
	"github.com/nonprofit-edge/evaluation-api/pkg/response"
)

type submissionService interface {
	Lookup(ctx context.Context, token string) (*models.Evaluator, *models.Evaluation, error)
	Submit(ctx context.Context, req service.SubmitRequest) (*service.SubmitResponse, error)
}

// SubmissionHandler wires the public token-authenticated evaluator
// endpoints. No session and no account; the token is the credential.
type SubmissionHandler struct {
	service submissionService
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc submissionService) *SubmissionHandler {
	return &SubmissionHandler{service: svc}
}

// Lookup godoc
// @Summary Resolve an evaluator token
// @Description Return the evaluator and evaluation context shown on the form page
// @Tags Submissions
// @Produce json
// @Param token path string true "Evaluator token"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /eval/{token} [get]
func (h *SubmissionHandler) Lookup(c *gin.Context) {
	evaluator, evaluation, err := h.service.Lookup(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"evaluator":  evaluator,
		"evaluation": evaluation,
	}, nil)
}

// Submit godoc
// @Summary Submit an evaluation
// @Description Store the full set of answers and mark the evaluator completed, exactly once
// @Tags Submissions
// @Accept json
// @Produce json
// @Param token path string true "Evaluator token"
// @Param payload body service.SubmitRequest true "Answers"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /eval/{token} [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}
	req.Token = c.Param("token")

	res, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}
