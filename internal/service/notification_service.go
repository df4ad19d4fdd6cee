package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
)

// NotificationService decides whether a freshly recomputed aggregate
// warrants an admin progress email and dispatches it.
type NotificationService struct {
	emails *EmailService
	logger *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(emails *EmailService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{emails: emails, logger: logger}
}

// milestoneReached checks the response count against the exact milestone
// set {3, 5, minimum_responses}. Membership is checked against the set,
// not a >= threshold, so each milestone fires once — and a minimum that
// coincides with 3 or 5 still produces a single send at that count.
func milestoneReached(totalResponded, minimumResponses int) bool {
	milestones := map[int]struct{}{3: {}, 5: {}}
	if minimumResponses > 0 {
		milestones[minimumResponses] = struct{}{}
	}
	_, ok := milestones[totalResponded]
	return ok
}

// NotifyIfMilestone sends the admin progress email when the aggregate
// sits exactly on a milestone count. Delivery failures are logged and
// swallowed; they must never surface to the submitting evaluator.
func (s *NotificationService) NotifyIfMilestone(ctx context.Context, evaluation *models.Evaluation, result *models.EvaluationResult) {
	if evaluation == nil || result == nil {
		return
	}
	if !milestoneReached(result.TotalResponded, evaluation.MinimumResponses) {
		return
	}
	sendResult := s.emails.SendProgress(ctx, evaluation, result)
	if !sendResult.Success {
		s.logger.Warn("progress notification failed",
			zap.String("evaluation_id", evaluation.ID),
			zap.Int("total_responded", result.TotalResponded),
			zap.String("error", sendResult.Error))
		return
	}
	s.logger.Info("progress notification sent",
		zap.String("evaluation_id", evaluation.ID),
		zap.Int("total_responded", result.TotalResponded))
}
