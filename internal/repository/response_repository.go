package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
)

// ErrAlreadyCompleted signals that the evaluator's status flip matched no
// rows, meaning another submission won the race or the evaluator had
// already completed.
var ErrAlreadyCompleted = errors.New("evaluator already completed")

// ResponseRepository handles persistence of evaluator responses.
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository constructs the repository.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// InsertBatchAndComplete persists the evaluator's full answer set and the
// pending -> completed status transition as one transaction. The status
// update is conditional on the current status; zero affected rows rolls
// everything back and returns ErrAlreadyCompleted, which makes concurrent
// duplicate submissions resolve to at-most-once.
func (r *ResponseRepository) InsertBatchAndComplete(ctx context.Context, responses []models.EvaluatorResponse) error {
	if len(responses) == 0 {
		return fmt.Errorf("insert responses: empty batch")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission: %w", err)
	}

	now := time.Now().UTC()
	const insertQuery = `INSERT INTO ceo_evaluator_responses (id, evaluation_id, evaluator_id, dimension,
        question_id, question_text, score, open_response, created_at)
        VALUES (:id, :evaluation_id, :evaluator_id, :dimension, :question_id, :question_text, :score, :open_response, :created_at)`
	for i := range responses {
		if responses[i].ID == "" {
			responses[i].ID = uuid.NewString()
		}
		responses[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertQuery, responses[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert response: %w", err)
		}
	}

	const completeQuery = `UPDATE ceo_evaluators SET status = $2, completed_at = $3 WHERE id = $1 AND status = $4`
	res, err := tx.ExecContext(ctx, completeQuery, responses[0].EvaluatorID, models.EvaluatorStatusCompleted, now, models.EvaluatorStatusPending)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("complete evaluator: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("complete evaluator rows affected: %w", err)
	}
	if affected == 0 {
		tx.Rollback() //nolint:errcheck
		return ErrAlreadyCompleted
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission: %w", err)
	}
	return nil
}

// CountByEvaluator returns how many response rows exist for an evaluator.
func (r *ResponseRepository) CountByEvaluator(ctx context.Context, evaluatorID string) (int, error) {
	const query = `SELECT COUNT(*) FROM ceo_evaluator_responses WHERE evaluator_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, evaluatorID); err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return count, nil
}
