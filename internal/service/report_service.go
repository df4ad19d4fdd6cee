package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
	"github.com/nonprofit-edge/evaluation-api/pkg/export"
)

type reportEvaluationReader interface {
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
}

// SendReportRequest asks for the report to be emailed. The admin always
// receives it; additional recipients are optional and capped.
type SendReportRequest struct {
	EvaluationID     string   `json:"-" validate:"required"`
	AdditionalEmails []string `json:"additional_emails" validate:"omitempty,dive,email"`
}

// SendReportResponse confirms delivery.
type SendReportResponse struct {
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

// ReportService assembles and delivers the final evaluation report as a
// PDF attachment. The report only contains aggregates.
type ReportService struct {
	evaluations   reportEvaluationReader
	aggregates    *AggregationService
	emails        *EmailService
	pdf           *export.PDFExporter
	maxRecipients int
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(evaluations reportEvaluationReader, aggregates *AggregationService, emails *EmailService, pdf *export.PDFExporter, maxRecipients int, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRecipients <= 0 {
		maxRecipients = 5
	}
	return &ReportService{
		evaluations:   evaluations,
		aggregates:    aggregates,
		emails:        emails,
		pdf:           pdf,
		maxRecipients: maxRecipients,
		validator:     validate,
		logger:        logger,
	}
}

// Send renders the report and emails it to the admin plus any additional
// recipients. Sending requires the minimum response count to be met so a
// thin aggregate cannot leak individual positions.
func (s *ReportService) Send(ctx context.Context, req SendReportRequest) (*SendReportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	evaluation, err := s.evaluations.FindByID(ctx, req.EvaluationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}

	result, err := s.aggregates.Recompute(ctx, evaluation.ID)
	if err != nil {
		return nil, err
	}

	if result.TotalResponded < evaluation.MinimumResponses {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("report requires at least %d responses, have %d", evaluation.MinimumResponses, result.TotalResponded))
	}

	pdfBytes, err := s.pdf.RenderReport(export.ReportData{
		OrganizationName:  evaluation.OrganizationName,
		CEOName:           evaluation.CEOName,
		PeriodLabel:       periodLabel(evaluation),
		TotalInvited:      result.TotalInvited,
		TotalResponded:    result.TotalResponded,
		ResponseRate:      result.ResponseRate(),
		DimensionAverages: result.DimensionAverages,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	recipients := []string{evaluation.AdminEmail}
	seen := map[string]bool{evaluation.AdminEmail: true}
	for _, email := range req.AdditionalEmails {
		email = strings.TrimSpace(email)
		if email == "" || seen[email] {
			continue
		}
		if len(recipients)-1 >= s.maxRecipients {
			break
		}
		seen[email] = true
		recipients = append(recipients, email)
	}

	sent := s.emails.SendReport(ctx, evaluation, result, recipients, pdfBytes)
	if !sent.Success {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "failed to send report email")
	}

	s.logger.Info("report sent",
		zap.String("evaluation_id", evaluation.ID),
		zap.Int("recipients", len(recipients)))

	plural := ""
	if len(recipients) != 1 {
		plural = "s"
	}
	return &SendReportResponse{
		Recipients: recipients,
		Message:    fmt.Sprintf("Report sent to %d recipient%s", len(recipients), plural),
	}, nil
}

func periodLabel(evaluation *models.Evaluation) string {
	if evaluation.PeriodStart.IsZero() || evaluation.PeriodEnd.IsZero() {
		return ""
	}
	return fmt.Sprintf("Review period: %s to %s",
		evaluation.PeriodStart.Format("January 2, 2006"),
		evaluation.PeriodEnd.Format("January 2, 2006"))
}
