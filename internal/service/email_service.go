package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nonprofit-edge/evaluation-api/internal/mailer"
	"github.com/nonprofit-edge/evaluation-api/internal/models"
	"github.com/nonprofit-edge/evaluation-api/pkg/config"
)

type emailLogWriter interface {
	Insert(ctx context.Context, log *models.EmailLog) error
}

// EmailService renders and delivers the product's transactional emails,
// recording every attempt in the audit log. Delivery failures are
// returned to the caller but carry no retry semantics.
type EmailService struct {
	sender  mailer.Sender
	logRepo emailLogWriter
	metrics *MetricsService
	mailCfg config.MailerConfig
	appCfg  config.AppConfig
	logger  *zap.Logger
}

// NewEmailService constructs the email service.
func NewEmailService(sender mailer.Sender, logRepo emailLogWriter, metrics *MetricsService, mailCfg config.MailerConfig, appCfg config.AppConfig, logger *zap.Logger) *EmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailService{sender: sender, logRepo: logRepo, metrics: metrics, mailCfg: mailCfg, appCfg: appCfg, logger: logger}
}

// EvalLink builds the evaluator-facing submission link.
func (s *EmailService) EvalLink(token string) string {
	return s.appCfg.BaseURL + "/eval/" + token
}

// OptOutLink builds the reminder opt-out link.
func (s *EmailService) OptOutLink(token string) string {
	return s.appCfg.BaseURL + "/unsubscribe/" + token
}

// SendInvitation delivers one evaluator invitation and logs the attempt.
func (s *EmailService) SendInvitation(ctx context.Context, evaluation *models.Evaluation, evaluator *models.Evaluator) models.SendResult {
	subject := fmt.Sprintf("CEO Evaluation Request — %s", evaluation.OrganizationName)
	html, err := mailer.RenderEmail("invitation", mailer.InvitationData{
		EvaluatorName:    evaluator.Name,
		CEOName:          evaluation.CEOName,
		OrganizationName: evaluation.OrganizationName,
		AdminName:        evaluation.AdminName,
		Deadline:         formatDeadline(evaluation.Deadline),
		EvalLink:         s.EvalLink(evaluator.Token),
		OptOutLink:       s.OptOutLink(evaluator.Token),
	})
	if err != nil {
		return s.finish(ctx, models.EmailTypeInvite, subject, evaluation.ID, &evaluator.ID, evaluator.Email, "", err)
	}
	id, err := s.send(ctx, []string{evaluator.Email}, subject, html)
	return s.finish(ctx, models.EmailTypeInvite, subject, evaluation.ID, &evaluator.ID, evaluator.Email, id, err)
}

// SendAdminConfirmation tells the admin the evaluation launched.
func (s *EmailService) SendAdminConfirmation(ctx context.Context, evaluation *models.Evaluation, evaluatorCount int) models.SendResult {
	subject := fmt.Sprintf("✅ CEO Evaluation Launched — %s", evaluation.OrganizationName)
	html, err := mailer.RenderEmail("admin_confirmation", mailer.AdminConfirmationData{
		AdminName:        evaluation.AdminName,
		CEOName:          evaluation.CEOName,
		OrganizationName: evaluation.OrganizationName,
		EvaluatorCount:   evaluatorCount,
		Deadline:         formatDeadline(evaluation.Deadline),
		EvaluationID:     evaluation.ID,
	})
	if err != nil {
		return s.finish(ctx, models.EmailTypeAdminConfirmation, subject, evaluation.ID, nil, evaluation.AdminEmail, "", err)
	}
	id, err := s.send(ctx, []string{evaluation.AdminEmail}, subject, html)
	return s.finish(ctx, models.EmailTypeAdminConfirmation, subject, evaluation.ID, nil, evaluation.AdminEmail, id, err)
}

// SendThankYou acknowledges a completed submission to the evaluator.
func (s *EmailService) SendThankYou(ctx context.Context, evaluation *models.Evaluation, evaluator *models.Evaluator) models.SendResult {
	subject := "Thank you — CEO Evaluation Complete"
	html, err := mailer.RenderEmail("thank_you", mailer.ThankYouData{
		EvaluatorName:    evaluator.Name,
		CEOName:          evaluation.CEOName,
		OrganizationName: evaluation.OrganizationName,
	})
	if err != nil {
		return s.finish(ctx, models.EmailTypeThankYou, subject, evaluation.ID, &evaluator.ID, evaluator.Email, "", err)
	}
	id, err := s.send(ctx, []string{evaluator.Email}, subject, html)
	return s.finish(ctx, models.EmailTypeThankYou, subject, evaluation.ID, &evaluator.ID, evaluator.Email, id, err)
}

// SendProgress delivers the admin milestone notification.
func (s *EmailService) SendProgress(ctx context.Context, evaluation *models.Evaluation, result *models.EvaluationResult) models.SendResult {
	subject := fmt.Sprintf("📊 %d responses in — CEO Evaluation Update", result.TotalResponded)
	html, err := mailer.RenderEmail("progress", mailer.ProgressData{
		CEOName:          evaluation.CEOName,
		OrganizationName: evaluation.OrganizationName,
		TotalResponded:   result.TotalResponded,
		ResponseRate:     result.ResponseRate(),
		Remaining:        result.Remaining(),
		ThresholdMet:     result.TotalResponded >= evaluation.MinimumResponses,
	})
	if err != nil {
		return s.finish(ctx, models.EmailTypeProgress, subject, evaluation.ID, nil, evaluation.AdminEmail, "", err)
	}
	id, err := s.send(ctx, []string{evaluation.AdminEmail}, subject, html)
	return s.finish(ctx, models.EmailTypeProgress, subject, evaluation.ID, nil, evaluation.AdminEmail, id, err)
}

// SendReminder delivers one deadline reminder to a pending evaluator.
func (s *EmailService) SendReminder(ctx context.Context, evaluation *models.Evaluation, evaluator *models.Evaluator, emailType, subject, urgency string) models.SendResult {
	fullSubject := fmt.Sprintf("%s — %s", subject, evaluation.OrganizationName)
	html, err := mailer.RenderEmail("reminder", mailer.ReminderData{
		EvaluatorName:    evaluator.Name,
		CEOName:          evaluation.CEOName,
		OrganizationName: evaluation.OrganizationName,
		Deadline:         formatDeadline(evaluation.Deadline),
		UrgencyMessage:   urgency,
		EvalLink:         s.EvalLink(evaluator.Token),
		OptOutLink:       s.OptOutLink(evaluator.Token),
	})
	if err != nil {
		return s.finish(ctx, emailType, fullSubject, evaluation.ID, &evaluator.ID, evaluator.Email, "", err)
	}
	id, err := s.send(ctx, []string{evaluator.Email}, fullSubject, html)
	return s.finish(ctx, emailType, fullSubject, evaluation.ID, &evaluator.ID, evaluator.Email, id, err)
}

// SendLateSummary tells the admin the deadline passed with evaluators outstanding.
func (s *EmailService) SendLateSummary(ctx context.Context, evaluation *models.Evaluation, result *models.EvaluationResult, pendingNames []string) models.SendResult {
	subject := fmt.Sprintf("⏰ Deadline passed — %d/%d responses received", result.TotalResponded, result.TotalInvited)
	html, err := mailer.RenderEmail("late_summary", mailer.LateSummaryData{
		AdminName:        evaluation.AdminName,
		CEOName:          evaluation.CEOName,
		OrganizationName: evaluation.OrganizationName,
		Responded:        result.TotalResponded,
		Total:            result.TotalInvited,
		PendingNames:     strings.Join(pendingNames, ", "),
		EvaluationID:     evaluation.ID,
	})
	if err != nil {
		return s.finish(ctx, models.EmailTypeLateSummary, subject, evaluation.ID, nil, evaluation.AdminEmail, "", err)
	}
	id, err := s.send(ctx, []string{evaluation.AdminEmail}, subject, html)
	return s.finish(ctx, models.EmailTypeLateSummary, subject, evaluation.ID, nil, evaluation.AdminEmail, id, err)
}

// SendReport delivers the aggregated report with a PDF attachment to the
// admin and any additional recipients.
func (s *EmailService) SendReport(ctx context.Context, evaluation *models.Evaluation, result *models.EvaluationResult, recipients []string, pdf []byte) models.SendResult {
	subject := fmt.Sprintf("CEO Evaluation Report — %s", evaluation.OrganizationName)
	html, err := mailer.RenderEmail("report", mailer.ReportData{
		AdminName:        evaluation.AdminName,
		CEOName:          evaluation.CEOName,
		OrganizationName: evaluation.OrganizationName,
		Responded:        result.TotalResponded,
		Total:            result.TotalInvited,
		ResponseRate:     result.ResponseRate(),
	})
	if err != nil {
		return s.finish(ctx, models.EmailTypeReport, subject, evaluation.ID, nil, strings.Join(recipients, ","), "", err)
	}
	msg := mailer.Message{
		From:    s.mailCfg.FromAddress,
		To:      recipients,
		Subject: subject,
		HTML:    html,
		ReplyTo: s.mailCfg.ReplyTo,
	}
	if len(pdf) > 0 {
		msg.Attachments = []mailer.Attachment{{Filename: "ceo-evaluation-report.pdf", Content: pdf}}
	}
	id, err := s.sender.Send(ctx, msg)
	return s.finish(ctx, models.EmailTypeReport, subject, evaluation.ID, nil, strings.Join(recipients, ","), id, err)
}

func (s *EmailService) send(ctx context.Context, to []string, subject, html string) (string, error) {
	return s.sender.Send(ctx, mailer.Message{
		From:    s.mailCfg.FromAddress,
		To:      to,
		Subject: subject,
		HTML:    html,
		ReplyTo: s.mailCfg.ReplyTo,
	})
}

// finish records the attempt in the audit log, updates metrics, and folds
// the outcome into a per-recipient SendResult.
func (s *EmailService) finish(ctx context.Context, emailType, subject, evaluationID string, evaluatorID *string, to, providerID string, sendErr error) models.SendResult {
	status := models.EmailStatusSent
	var errText *string
	if sendErr != nil {
		status = models.EmailStatusFailed
		msg := sendErr.Error()
		errText = &msg
		s.logger.Warn("email send failed",
			zap.String("type", emailType),
			zap.String("to", to),
			zap.Error(sendErr))
	}
	if s.metrics != nil {
		s.metrics.RecordEmail(emailType, status)
	}

	var msgID *string
	if providerID != "" {
		msgID = &providerID
	}
	if s.logRepo != nil {
		logEntry := &models.EmailLog{
			EvaluationID:      evaluationID,
			EvaluatorID:       evaluatorID,
			EmailTo:           to,
			EmailType:         emailType,
			Subject:           subject,
			ProviderMessageID: msgID,
			Status:            status,
			Error:             errText,
		}
		if err := s.logRepo.Insert(ctx, logEntry); err != nil {
			s.logger.Warn("failed to record email log", zap.String("type", emailType), zap.Error(err))
		}
	}

	result := models.SendResult{Email: to, Success: sendErr == nil}
	if sendErr != nil {
		result.Error = sendErr.Error()
	}
	return result
}

func formatDeadline(t time.Time) string {
	return t.Format("January 2, 2006")
}
