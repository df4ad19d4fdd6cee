package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
	"github.com/nonprofit-edge/evaluation-api/internal/repository"
	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
)

type evaluatorTokenReader interface {
	FindByToken(ctx context.Context, token string) (*models.Evaluator, *models.Evaluation, error)
}

type responseWriter interface {
	InsertBatchAndComplete(ctx context.Context, responses []models.EvaluatorResponse) error
}

// SubmitRequest is the evaluator-facing submission payload. The token is
// the only credential; no session or account is involved.
type SubmitRequest struct {
	Token   string               `json:"-" validate:"required"`
	Answers []models.AnswerInput `json:"responses" validate:"required,min=1,dive"`
}

// SubmitResponse acknowledges a stored submission. It carries nothing
// else; progress and aggregates are never disclosed to the evaluator.
type SubmitResponse struct {
	Success bool `json:"success"`
}

// SubmissionService handles the token-authenticated evaluator flow:
// validate, store atomically, recompute aggregates, and fire the
// follow-up notifications. Only the store step can fail the request;
// everything after it is best effort.
type SubmissionService struct {
	evaluators    evaluatorTokenReader
	responses     responseWriter
	aggregates    *AggregationService
	notifications *NotificationService
	emails        *EmailService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(evaluators evaluatorTokenReader, responses responseWriter, aggregates *AggregationService, notifications *NotificationService, emails *EmailService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		evaluators:    evaluators,
		responses:     responses,
		aggregates:    aggregates,
		notifications: notifications,
		emails:        emails,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// Lookup resolves a token to the evaluator and evaluation shown on the
// form page. Unknown tokens are indistinguishable from expired ones.
func (s *SubmissionService) Lookup(ctx context.Context, token string) (*models.Evaluator, *models.Evaluation, error) {
	evaluator, evaluation, err := s.evaluators.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidLink, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve token")
	}
	return evaluator, evaluation, nil
}

// Submit stores a full evaluator submission. The response rows and the
// evaluator's pending-to-completed flip commit together; a concurrent
// duplicate loses the race and surfaces as a conflict.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		s.recordSubmission("rejected")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "responses are required")
	}

	evaluator, evaluation, err := s.Lookup(ctx, req.Token)
	if err != nil {
		s.recordSubmission("rejected")
		return nil, err
	}

	if evaluator.Status == models.EvaluatorStatusCompleted {
		s.recordSubmission("duplicate")
		return nil, appErrors.Clone(appErrors.ErrAlreadySubmitted, "")
	}
	if evaluation.Status != models.EvaluationStatusActive {
		s.recordSubmission("rejected")
		return nil, appErrors.Clone(appErrors.ErrEvaluationClosed, "")
	}

	now := time.Now().UTC()
	if now.After(evaluation.Deadline) {
		// Accepted anyway; the deadline gates reminders, not submissions.
		s.logger.Warn("late submission accepted",
			zap.String("evaluation_id", evaluation.ID),
			zap.String("evaluator_id", evaluator.ID),
			zap.Time("deadline", evaluation.Deadline))
	}

	rows := make([]models.EvaluatorResponse, len(req.Answers))
	for i, a := range req.Answers {
		rows[i] = models.EvaluatorResponse{
			ID:           uuid.NewString(),
			EvaluationID: evaluation.ID,
			EvaluatorID:  evaluator.ID,
			Dimension:    a.Dimension,
			QuestionID:   a.QuestionID,
			QuestionText: a.QuestionText,
			Score:        a.Score,
			OpenResponse: a.OpenResponse,
			CreatedAt:    now,
		}
	}

	if err := s.responses.InsertBatchAndComplete(ctx, rows); err != nil {
		if errors.Is(err, repository.ErrAlreadyCompleted) {
			s.recordSubmission("duplicate")
			return nil, appErrors.Clone(appErrors.ErrAlreadySubmitted, "")
		}
		s.recordSubmission("error")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	s.recordSubmission("accepted")

	result, err := s.aggregates.Recompute(ctx, evaluation.ID)
	if err != nil {
		// The submission is already committed; the aggregate catches up
		// on the next recompute.
		s.logger.Error("aggregate recompute failed after submission",
			zap.String("evaluation_id", evaluation.ID),
			zap.Error(err))
	} else {
		s.notifications.NotifyIfMilestone(ctx, evaluation, result)
	}

	if thanks := s.emails.SendThankYou(ctx, evaluation, evaluator); !thanks.Success {
		s.logger.Warn("thank-you email failed",
			zap.String("evaluator_id", evaluator.ID),
			zap.String("error", thanks.Error))
	}

	s.logger.Info("submission stored",
		zap.String("evaluation_id", evaluation.ID),
		zap.String("evaluator_id", evaluator.ID),
		zap.Int("answers", len(rows)))

	return &SubmitResponse{Success: true}, nil
}

func (s *SubmissionService) recordSubmission(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSubmission(outcome)
	}
}
