package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
	"github.com/nonprofit-edge/evaluation-api/pkg/export"
)

type evaluationRepository interface {
	CreateWithEvaluators(ctx context.Context, evaluation *models.Evaluation, evaluators []models.Evaluator) ([]models.Evaluator, error)
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
	List(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, int, error)
	CloseIfActive(ctx context.Context, id string) (bool, error)
}

type evaluatorProgressReader interface {
	ListProgress(ctx context.Context, evaluationID string) ([]models.EvaluatorProgress, error)
}

// CreateEvaluationRequest is the inbound payload for launching an
// evaluation. Dates arrive as ISO-8601 strings and are parsed at this
// boundary before any domain logic runs.
type CreateEvaluationRequest struct {
	OrganizationID      string                       `json:"organization_id"`
	OrganizationName    string                       `json:"organization_name" validate:"required"`
	CEOName             string                       `json:"ceo_name" validate:"required"`
	CEOEmail            string                       `json:"ceo_email" validate:"omitempty,email"`
	AdminName           string                       `json:"admin_name"`
	AdminEmail          string                       `json:"admin_email" validate:"required,email"`
	PeriodStart         string                       `json:"period_start"`
	PeriodEnd           string                       `json:"period_end"`
	Deadline            string                       `json:"deadline" validate:"required"`
	MinimumResponses    int                          `json:"minimum_responses"`
	ShareResultsWithCEO bool                         `json:"share_results_with_ceo"`
	HasCommittees       bool                         `json:"has_committees"`
	CommitteeList       []string                     `json:"committee_list"`
	ReminderConfig      models.ReminderConfig        `json:"reminder_config"`
	Evaluators          []models.EvaluatorDescriptor `json:"evaluators" validate:"required,min=1,dive"`
}

// CreateEvaluationResponse reports the created evaluation and the
// per-evaluator invitation outcomes.
type CreateEvaluationResponse struct {
	EvaluationID      string              `json:"evaluation_id"`
	EvaluatorsInvited int                 `json:"evaluators_invited"`
	Emails            []models.SendResult `json:"emails"`
}

// EvaluationService orchestrates the evaluation lifecycle: creation with
// roster and invitations, progress reads, and closing.
type EvaluationService struct {
	repo       evaluationRepository
	evaluators evaluatorProgressReader
	aggregates *AggregationService
	emails     *EmailService
	cache      *CacheService
	csv        *export.CSVExporter
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewEvaluationService constructs the evaluation service.
func NewEvaluationService(repo evaluationRepository, evaluators evaluatorProgressReader, aggregates *AggregationService, emails *EmailService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{repo: repo, evaluators: evaluators, aggregates: aggregates, emails: emails, cache: cache, csv: export.NewCSVExporter(), validator: validate, logger: logger}
}

// Create validates the request, persists the evaluation and its roster
// as one unit, and then attempts the invitation sends. Validation runs
// before any write; send failures are per-recipient and non-fatal.
func (s *EvaluationService) Create(ctx context.Context, req CreateEvaluationRequest) (*CreateEvaluationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required fields")
	}

	deadline, err := parseDate(req.Deadline)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline")
	}
	periodStart, err := parseOptionalDate(req.PeriodStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period_start")
	}
	periodEnd, err := parseOptionalDate(req.PeriodEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period_end")
	}

	minimum := req.MinimumResponses
	if minimum <= 0 {
		minimum = 3
	}

	evaluation := &models.Evaluation{
		OrganizationID:      req.OrganizationID,
		OrganizationName:    req.OrganizationName,
		CEOName:             req.CEOName,
		CEOEmail:            req.CEOEmail,
		AdminName:           req.AdminName,
		AdminEmail:          req.AdminEmail,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		Deadline:            deadline,
		MinimumResponses:    minimum,
		ShareResultsWithCEO: req.ShareResultsWithCEO,
		HasCommittees:       req.HasCommittees,
		CommitteeList:       req.CommitteeList,
		ReminderConfig:      req.ReminderConfig,
	}

	evaluators := make([]models.Evaluator, len(req.Evaluators))
	for i, desc := range req.Evaluators {
		evaluators[i] = models.Evaluator{
			Name:                 desc.Name,
			Email:                desc.Email,
			BoardRole:            desc.BoardRole,
			CommitteeMemberships: desc.CommitteeMemberships,
		}
	}

	inserted, err := s.repo.CreateWithEvaluators(ctx, evaluation, evaluators)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation")
	}

	emailResults := make([]models.SendResult, 0, len(inserted))
	for i := range inserted {
		emailResults = append(emailResults, s.emails.SendInvitation(ctx, evaluation, &inserted[i]))
	}

	if confirm := s.emails.SendAdminConfirmation(ctx, evaluation, len(inserted)); !confirm.Success {
		s.logger.Warn("admin confirmation failed",
			zap.String("evaluation_id", evaluation.ID),
			zap.String("error", confirm.Error))
	}

	s.logger.Info("evaluation created",
		zap.String("evaluation_id", evaluation.ID),
		zap.Int("evaluators", len(inserted)))

	return &CreateEvaluationResponse{
		EvaluationID:      evaluation.ID,
		EvaluatorsInvited: len(inserted),
		Emails:            emailResults,
	}, nil
}

// List returns evaluations with pagination metadata.
func (s *EvaluationService) List(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, *models.Pagination, error) {
	evaluations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return evaluations, pagination, nil
}

// Progress returns the aggregate plus per-evaluator status for the admin
// dashboard, served from cache when possible.
func (s *EvaluationService) Progress(ctx context.Context, id string) (*models.EvaluationProgress, error) {
	key := progressCacheKey(id)
	if s.cache.Enabled() {
		var cached models.EvaluationProgress
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	evaluation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}

	result, err := s.aggregates.Current(ctx, id)
	if err != nil {
		return nil, err
	}

	evaluatorProgress, err := s.evaluators.ListProgress(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluator progress")
	}

	progress := &models.EvaluationProgress{
		Evaluation: *evaluation,
		Result:     *result,
		Evaluators: evaluatorProgress,
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, progress, 0); err != nil {
			s.logger.Warn("failed to cache progress", zap.String("evaluation_id", id), zap.Error(err))
		}
	}
	return progress, nil
}

// Close transitions an evaluation to closed. The transition is forward
// only; closing an already closed evaluation is a conflict.
func (s *EvaluationService) Close(ctx context.Context, id string) (*models.Evaluation, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}

	closed, err := s.repo.CloseIfActive(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close evaluation")
	}
	if !closed {
		return nil, appErrors.Clone(appErrors.ErrEvaluationClosed, "")
	}

	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, progressCacheKey(id)); err != nil {
			s.logger.Warn("failed to invalidate progress cache", zap.String("evaluation_id", id), zap.Error(err))
		}
	}

	evaluation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload evaluation")
	}
	return evaluation, nil
}

// ExportProgressCSV renders the evaluator roster with submission status
// as CSV for download from the admin dashboard.
func (s *EvaluationService) ExportProgressCSV(ctx context.Context, id string) ([]byte, error) {
	progress, err := s.Progress(ctx, id)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Columns: []string{"name", "email", "board_role", "status", "invited_at", "completed_at"},
		Rows:    make([][]string, 0, len(progress.Evaluators)),
	}
	for _, e := range progress.Evaluators {
		completed := ""
		if e.CompletedAt != nil {
			completed = e.CompletedAt.Format(time.RFC3339)
		}
		dataset.Rows = append(dataset.Rows, []string{
			e.Name, e.Email, e.BoardRole, string(e.Status),
			e.InvitedAt.Format(time.RFC3339), completed,
		})
	}

	out, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return out, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

func parseOptionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return parseDate(raw)
}
