package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
)

// EmailLogRepository records every outbound email attempt for audit.
type EmailLogRepository struct {
	db *sqlx.DB
}

// NewEmailLogRepository constructs the repository.
func NewEmailLogRepository(db *sqlx.DB) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

// Insert persists one email log record.
func (r *EmailLogRepository) Insert(ctx context.Context, log *models.EmailLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO ceo_eval_email_log (id, evaluation_id, evaluator_id, email_to, email_type,
        subject, provider_message_id, status, error, created_at)
        VALUES (:id, :evaluation_id, :evaluator_id, :email_to, :email_type, :subject, :provider_message_id, :status, :error, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

// ListByEvaluation returns email audit records for one evaluation, newest first.
func (r *EmailLogRepository) ListByEvaluation(ctx context.Context, evaluationID string) ([]models.EmailLog, error) {
	const query = `SELECT id, evaluation_id, evaluator_id, email_to, email_type, subject,
        provider_message_id, status, error, created_at
        FROM ceo_eval_email_log WHERE evaluation_id = $1 ORDER BY created_at DESC`
	var logs []models.EmailLog
	if err := r.db.SelectContext(ctx, &logs, query, evaluationID); err != nil {
		return nil, fmt.Errorf("list email log: %w", err)
	}
	return logs, nil
}
