package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
)

// EvaluatorRepository handles persistence of evaluators.
type EvaluatorRepository struct {
	db *sqlx.DB
}

// NewEvaluatorRepository constructs the repository.
func NewEvaluatorRepository(db *sqlx.DB) *EvaluatorRepository {
	return &EvaluatorRepository{db: db}
}

// FindByToken returns the evaluator matching the access token together
// with its parent evaluation. sql.ErrNoRows signals an unknown token.
func (r *EvaluatorRepository) FindByToken(ctx context.Context, token string) (*models.Evaluator, *models.Evaluation, error) {
	const evaluatorQuery = `SELECT id, evaluation_id, name, email, board_role, committee_memberships,
        token, status, invited_at, completed_at, reminder_opt_out, reminder_log
        FROM ceo_evaluators WHERE token = $1`
	var evaluator models.Evaluator
	if err := r.db.GetContext(ctx, &evaluator, evaluatorQuery, token); err != nil {
		return nil, nil, err
	}

	const evaluationQuery = `SELECT id, organization_id, organization_name, ceo_name, ceo_email, admin_name, admin_email,
        period_start, period_end, deadline, minimum_responses, share_results_with_ceo, has_committees,
        committee_list, reminder_config, status, published_at, created_at
        FROM ceo_evaluations WHERE id = $1`
	var evaluation models.Evaluation
	if err := r.db.GetContext(ctx, &evaluation, evaluationQuery, evaluator.EvaluationID); err != nil {
		return nil, nil, err
	}

	return &evaluator, &evaluation, nil
}

// ListProgress returns the admin-facing status of every evaluator on an
// evaluation, without tokens or response content.
func (r *EvaluatorRepository) ListProgress(ctx context.Context, evaluationID string) ([]models.EvaluatorProgress, error) {
	const query = `SELECT id, name, email, board_role, status, invited_at, completed_at
        FROM ceo_evaluators WHERE evaluation_id = $1 ORDER BY invited_at, name`
	var evaluators []models.EvaluatorProgress
	if err := r.db.SelectContext(ctx, &evaluators, query, evaluationID); err != nil {
		return nil, fmt.Errorf("list evaluator progress: %w", err)
	}
	return evaluators, nil
}

// ListPendingForReminders returns pending evaluators on an evaluation
// that have not opted out of reminders.
func (r *EvaluatorRepository) ListPendingForReminders(ctx context.Context, evaluationID string) ([]models.Evaluator, error) {
	const query = `SELECT id, evaluation_id, name, email, board_role, committee_memberships,
        token, status, invited_at, completed_at, reminder_opt_out, reminder_log
        FROM ceo_evaluators
        WHERE evaluation_id = $1 AND status = $2 AND reminder_opt_out = FALSE`
	var evaluators []models.Evaluator
	if err := r.db.SelectContext(ctx, &evaluators, query, evaluationID, models.EvaluatorStatusPending); err != nil {
		return nil, fmt.Errorf("list pending evaluators: %w", err)
	}
	return evaluators, nil
}

// AppendReminderLog persists an updated reminder log for the evaluator.
func (r *EvaluatorRepository) AppendReminderLog(ctx context.Context, id string, log models.ReminderLog) error {
	const query = `UPDATE ceo_evaluators SET reminder_log = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, log); err != nil {
		return fmt.Errorf("update reminder log: %w", err)
	}
	return nil
}

// OptOutByToken sets the reminder opt-out flag for the evaluator holding
// the token. It reports whether any row matched.
func (r *EvaluatorRepository) OptOutByToken(ctx context.Context, token string) (bool, error) {
	const query = `UPDATE ceo_evaluators SET reminder_opt_out = TRUE WHERE token = $1`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("opt out evaluator: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("opt out rows affected: %w", err)
	}
	return affected > 0, nil
}
