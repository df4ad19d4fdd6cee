package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nonprofit-edge/evaluation-api/internal/service"
	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
	"github.com/nonprofit-edge/evaluation-api/pkg/response"
)

type reminderService interface {
	Run(ctx context.Context) (*service.RunSummary, error)
	OptOut(ctx context.Context, token string) (bool, error)
}

// ReminderHandler wires the scheduler-invoked reminder sweep and the
// public opt-out redirect.
type ReminderHandler struct {
	service    reminderService
	appBaseURL string
}

// NewReminderHandler creates a new handler.
func NewReminderHandler(svc reminderService, appBaseURL string) *ReminderHandler {
	return &ReminderHandler{service: svc, appBaseURL: appBaseURL}
}

// Run godoc
// @Summary Run the reminder sweep
// @Description Queue the reminders that apply today across all active evaluations
// @Tags Reminders
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /reminders/run [post]
func (h *ReminderHandler) Run(c *gin.Context) {
	summary, err := h.service.Run(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "reminder sweep failed"))
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Unsubscribe godoc
// @Summary Opt out of reminders
// @Description Flag the evaluator so future reminder sweeps skip them, then redirect to the confirmation page
// @Tags Reminders
// @Param token query string true "Evaluator token"
// @Success 302
// @Failure 404 {object} response.Envelope
// @Router /unsubscribe [get]
func (h *ReminderHandler) Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	found, err := h.service.OptOut(c.Request.Context(), token)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to opt out"))
		return
	}
	if !found {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidLink, ""))
		return
	}

	c.Redirect(http.StatusFound, h.appBaseURL+"/eval/unsubscribed")
}
