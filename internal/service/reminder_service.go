package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
	"github.com/nonprofit-edge/evaluation-api/pkg/jobs"
)

type reminderEvaluationReader interface {
	ListActiveWithPending(ctx context.Context) ([]models.Evaluation, error)
}

type reminderEvaluatorRepository interface {
	ListPendingForReminders(ctx context.Context, evaluationID string) ([]models.Evaluator, error)
	AppendReminderLog(ctx context.Context, id string, log models.ReminderLog) error
	OptOutByToken(ctx context.Context, token string) (bool, error)
}

// RunSummary reports one reminder sweep.
type RunSummary struct {
	Queued  int `json:"queued"`
	Skipped int `json:"skipped"`
}

type reminderJob struct {
	evaluation models.Evaluation
	evaluator  models.Evaluator
	trigger    string
	emailType  string
	subject    string
	urgency    string
}

// ReminderService runs the daily reminder sweep. Each evaluator gets at
// most one email per trigger; sends go through a worker queue so a slow
// provider cannot stall the sweep.
type ReminderService struct {
	evaluations reminderEvaluationReader
	evaluators  reminderEvaluatorRepository
	aggregates  *AggregationService
	emails      *EmailService
	queue       *jobs.Queue
	logger      *zap.Logger
}

// NewReminderService constructs the reminder service and its send queue.
// Call Start before Run and Stop on shutdown.
func NewReminderService(evaluations reminderEvaluationReader, evaluators reminderEvaluatorRepository, aggregates *AggregationService, emails *EmailService, workers int, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReminderService{
		evaluations: evaluations,
		evaluators:  evaluators,
		aggregates:  aggregates,
		emails:      emails,
		logger:      logger,
	}
	s.queue = jobs.NewQueue("reminders", s.handleJob, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start launches the send workers.
func (s *ReminderService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the send workers.
func (s *ReminderService) Stop() {
	s.queue.Stop()
}

// Run executes one sweep over all active evaluations with pending
// evaluators, queueing whichever reminder applies today per evaluator.
func (s *ReminderService) Run(ctx context.Context) (*RunSummary, error) {
	today := midnightUTC(time.Now().UTC())
	summary := &RunSummary{}

	evaluations, err := s.evaluations.ListActiveWithPending(ctx)
	if err != nil {
		return nil, err
	}

	for i := range evaluations {
		evaluation := evaluations[i]
		days := daysUntil(evaluation.Deadline, today)

		pending, err := s.evaluators.ListPendingForReminders(ctx, evaluation.ID)
		if err != nil {
			s.logger.Error("failed to list pending evaluators",
				zap.String("evaluation_id", evaluation.ID), zap.Error(err))
			continue
		}

		for j := range pending {
			evaluator := pending[j]
			trigger, emailType, subject, urgency := s.pickTrigger(ctx, &evaluation, &evaluator, days, today)
			if trigger == "" {
				summary.Skipped++
				continue
			}

			job := jobs.Job{
				ID:   uuid.NewString(),
				Type: emailType,
				Payload: reminderJob{
					evaluation: evaluation,
					evaluator:  evaluator,
					trigger:    trigger,
					emailType:  emailType,
					subject:    subject,
					urgency:    urgency,
				},
			}
			if err := s.queue.Enqueue(job); err != nil {
				s.logger.Error("failed to enqueue reminder",
					zap.String("evaluator_id", evaluator.ID), zap.Error(err))
				summary.Skipped++
				continue
			}
			summary.Queued++
		}

		if days == -1 {
			s.sendLateSummary(ctx, &evaluation, pending)
		}
	}

	s.logger.Info("reminder sweep finished",
		zap.Int("queued", summary.Queued),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// OptOut flags the evaluator so future sweeps skip them. Returns false
// when the token is unknown.
func (s *ReminderService) OptOut(ctx context.Context, token string) (bool, error) {
	return s.evaluators.OptOutByToken(ctx, token)
}

// pickTrigger decides which reminder, if any, applies to this evaluator
// today. Post-deadline fires only while responses are still below three,
// matching the final-notice intent rather than the configured minimum.
func (s *ReminderService) pickTrigger(ctx context.Context, evaluation *models.Evaluation, evaluator *models.Evaluator, days int, today time.Time) (trigger, emailType, subject, urgency string) {
	config := evaluation.ReminderConfig
	sent := evaluator.ReminderLog.Contains

	switch {
	case days == 7 && config.SevenDay && !sent(models.ReminderTriggerSevenDay):
		return models.ReminderTriggerSevenDay, models.EmailTypeReminderSevenDay,
			"Reminder: CEO Evaluation due in 7 days",
			"You have 7 days to complete this evaluation."
	case days == 3 && config.ThreeDay && !sent(models.ReminderTriggerThreeDay):
		return models.ReminderTriggerThreeDay, models.EmailTypeReminderThreeDay,
			"Reminder: CEO Evaluation due in 3 days",
			"The deadline is in 3 days — please set aside 15 minutes today."
	case days == 0 && config.DayOf && !sent(models.ReminderTriggerDayOf):
		return models.ReminderTriggerDayOf, models.EmailTypeReminderDayOf,
			"Today is the deadline — CEO Evaluation",
			"Today is the final day to submit your evaluation."
	case days == -1 && config.PostDeadline && !sent(models.ReminderTriggerPostDeadline):
		result, err := s.aggregates.Current(ctx, evaluation.ID)
		if err != nil {
			s.logger.Warn("failed to load aggregate for post-deadline gate",
				zap.String("evaluation_id", evaluation.ID), zap.Error(err))
			return "", "", "", ""
		}
		if result.TotalResponded >= 3 {
			return "", "", "", ""
		}
		return models.ReminderTriggerPostDeadline, models.EmailTypeReminderPost,
			"Final notice: CEO Evaluation still needs your input",
			"The deadline has passed, but your input is still needed. Please complete this today."
	case config.CustomDate != "":
		custom, err := time.Parse("2006-01-02", config.CustomDate)
		if err != nil {
			return "", "", "", ""
		}
		if !midnightUTC(custom).Equal(today) || sent(models.ReminderTriggerCustom) {
			return "", "", "", ""
		}
		return models.ReminderTriggerCustom, models.EmailTypeReminderCustom,
			"Reminder: CEO Evaluation",
			"This is a reminder to complete the CEO evaluation."
	}
	return "", "", "", ""
}

func (s *ReminderService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(reminderJob)
	if !ok {
		s.logger.Error("unexpected reminder payload", zap.String("job_id", job.ID))
		return nil
	}

	result := s.emails.SendReminder(ctx, &payload.evaluation, &payload.evaluator, payload.emailType, payload.subject, payload.urgency)
	if !result.Success {
		// Leave the log untouched so the next sweep retries this trigger.
		s.logger.Warn("reminder send failed",
			zap.String("evaluator_id", payload.evaluator.ID),
			zap.String("trigger", payload.trigger),
			zap.String("error", result.Error))
		return nil
	}

	updated := append(payload.evaluator.ReminderLog, models.ReminderEntry{
		Trigger: payload.trigger,
		SentAt:  time.Now().UTC(),
	})
	if err := s.evaluators.AppendReminderLog(ctx, payload.evaluator.ID, updated); err != nil {
		s.logger.Error("failed to record reminder log",
			zap.String("evaluator_id", payload.evaluator.ID),
			zap.String("trigger", payload.trigger),
			zap.Error(err))
	}
	return nil
}

// sendLateSummary tells the admin the deadline passed with responses
// outstanding. Runs once, the day after the deadline.
func (s *ReminderService) sendLateSummary(ctx context.Context, evaluation *models.Evaluation, pending []models.Evaluator) {
	result, err := s.aggregates.Current(ctx, evaluation.ID)
	if err != nil {
		s.logger.Warn("failed to load aggregate for late summary",
			zap.String("evaluation_id", evaluation.ID), zap.Error(err))
		return
	}
	if result.TotalResponded >= result.TotalInvited {
		return
	}

	names := make([]string, len(pending))
	for i, e := range pending {
		names[i] = e.Name
	}
	if sent := s.emails.SendLateSummary(ctx, evaluation, result, names); !sent.Success {
		s.logger.Warn("late summary failed",
			zap.String("evaluation_id", evaluation.ID),
			zap.String("error", sent.Error))
	}
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysUntil(deadline, today time.Time) int {
	return int(midnightUTC(deadline).Sub(today).Hours() / 24)
}
