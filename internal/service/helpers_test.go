package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nonprofit-edge/evaluation-api/internal/mailer"
	"github.com/nonprofit-edge/evaluation-api/internal/models"
	"github.com/nonprofit-edge/evaluation-api/pkg/config"
)

// fakeSender records outbound messages and can be told to fail.
type fakeSender struct {
	sent    []mailer.Message
	failAll bool
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) (string, error) {
	if f.failAll {
		return "", errors.New("provider unavailable")
	}
	f.sent = append(f.sent, msg)
	return "msg-id", nil
}

// fakeEmailLog collects audit rows in memory.
type fakeEmailLog struct {
	entries []*models.EmailLog
}

func (f *fakeEmailLog) Insert(ctx context.Context, log *models.EmailLog) error {
	f.entries = append(f.entries, log)
	return nil
}

func newTestEmailService(sender *fakeSender, logRepo *fakeEmailLog) *EmailService {
	return NewEmailService(sender, logRepo, nil, config.MailerConfig{
		FromAddress: "Test <test@example.org>",
	}, config.AppConfig{BaseURL: "https://app.example.org"}, zap.NewNop())
}

func testEvaluation(minimum int) *models.Evaluation {
	return &models.Evaluation{
		ID:               "eval-1",
		OrganizationName: "Hope Foundation",
		CEOName:          "Jordan Reyes",
		AdminName:        "Alex Admin",
		AdminEmail:       "admin@example.org",
		Deadline:         time.Now().Add(14 * 24 * time.Hour),
		MinimumResponses: minimum,
		Status:           models.EvaluationStatusActive,
	}
}

func testEvaluator(status models.EvaluatorStatus) *models.Evaluator {
	return &models.Evaluator{
		ID:           "ev-1",
		EvaluationID: "eval-1",
		Name:         "Board Member One",
		Email:        "one@example.org",
		Token:        "tok-1",
		Status:       status,
	}
}
