package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
)

// ResultRepository maintains the materialized per-evaluation aggregate.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs the repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

type dimensionAverageRow struct {
	Dimension string  `db:"dimension"`
	Average   float64 `db:"average"`
}

// Recompute rebuilds the aggregate for an evaluation from the current
// evaluator and response rows and upserts it. The computation reads only
// durable rows, so repeated invocations under any interleaving converge
// on the same persisted result.
func (r *ResultRepository) Recompute(ctx context.Context, evaluationID string) (*models.EvaluationResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin recompute: %w", err)
	}

	const countsQuery = `SELECT COUNT(*) AS total_invited,
        COUNT(*) FILTER (WHERE status = $2) AS total_responded
        FROM ceo_evaluators WHERE evaluation_id = $1`
	var counts struct {
		TotalInvited   int `db:"total_invited"`
		TotalResponded int `db:"total_responded"`
	}
	if err := tx.GetContext(ctx, &counts, countsQuery, evaluationID, models.EvaluatorStatusCompleted); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("count evaluators: %w", err)
	}

	const averagesQuery = `SELECT r.dimension, AVG(r.score)::float8 AS average
        FROM ceo_evaluator_responses r
        JOIN ceo_evaluators e ON e.id = r.evaluator_id
        WHERE r.evaluation_id = $1 AND e.status = $2 AND r.score IS NOT NULL
        GROUP BY r.dimension`
	var rows []dimensionAverageRow
	if err := tx.SelectContext(ctx, &rows, averagesQuery, evaluationID, models.EvaluatorStatusCompleted); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("average dimensions: %w", err)
	}
	averages := make(models.DimensionAverages, len(rows))
	for _, row := range rows {
		averages[row.Dimension] = row.Average
	}

	result := &models.EvaluationResult{
		EvaluationID:      evaluationID,
		TotalInvited:      counts.TotalInvited,
		TotalResponded:    counts.TotalResponded,
		DimensionAverages: averages,
		UpdatedAt:         time.Now().UTC(),
	}

	const upsertQuery = `INSERT INTO ceo_evaluation_results (evaluation_id, total_invited, total_responded, dimension_averages, updated_at)
        VALUES (:evaluation_id, :total_invited, :total_responded, :dimension_averages, :updated_at)
        ON CONFLICT (evaluation_id)
        DO UPDATE SET total_invited = EXCLUDED.total_invited, total_responded = EXCLUDED.total_responded,
        dimension_averages = EXCLUDED.dimension_averages, updated_at = EXCLUDED.updated_at`
	if _, err := tx.NamedExecContext(ctx, upsertQuery, result); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("upsert result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit recompute: %w", err)
	}
	return result, nil
}

// Find returns the stored aggregate for an evaluation.
func (r *ResultRepository) Find(ctx context.Context, evaluationID string) (*models.EvaluationResult, error) {
	const query = `SELECT evaluation_id, total_invited, total_responded, dimension_averages, updated_at
        FROM ceo_evaluation_results WHERE evaluation_id = $1`
	var result models.EvaluationResult
	if err := r.db.GetContext(ctx, &result, query, evaluationID); err != nil {
		return nil, err
	}
	return &result, nil
}
