package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
)

// EvaluationRepository handles persistence of evaluations and their rosters.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// CreateWithEvaluators inserts the evaluation row and its evaluator batch
// in a single transaction. Each evaluator receives a server-generated
// unique token and starts in pending status. Nothing is persisted if any
// insert fails.
func (r *EvaluationRepository) CreateWithEvaluators(ctx context.Context, evaluation *models.Evaluation, evaluators []models.Evaluator) ([]models.Evaluator, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create evaluation: %w", err)
	}

	now := time.Now().UTC()
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	if evaluation.Status == "" {
		evaluation.Status = models.EvaluationStatusActive
	}
	if evaluation.PublishedAt.IsZero() {
		evaluation.PublishedAt = now
	}
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = now
	}

	const evalQuery = `INSERT INTO ceo_evaluations (id, organization_id, organization_name, ceo_name, ceo_email,
        admin_name, admin_email, period_start, period_end, deadline, minimum_responses, share_results_with_ceo,
        has_committees, committee_list, reminder_config, status, published_at, created_at)
        VALUES (:id, :organization_id, :organization_name, :ceo_name, :ceo_email,
        :admin_name, :admin_email, :period_start, :period_end, :deadline, :minimum_responses, :share_results_with_ceo,
        :has_committees, :committee_list, :reminder_config, :status, :published_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, evalQuery, evaluation); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("insert evaluation: %w", err)
	}

	inserted := make([]models.Evaluator, 0, len(evaluators))
	const evaluatorQuery = `INSERT INTO ceo_evaluators (id, evaluation_id, name, email, board_role,
        committee_memberships, token, status, invited_at, reminder_opt_out, reminder_log)
        VALUES (:id, :evaluation_id, :name, :email, :board_role,
        :committee_memberships, :token, :status, :invited_at, :reminder_opt_out, :reminder_log)`
	for i := range evaluators {
		evaluators[i].ID = uuid.NewString()
		evaluators[i].EvaluationID = evaluation.ID
		evaluators[i].Token = uuid.NewString()
		evaluators[i].Status = models.EvaluatorStatusPending
		evaluators[i].InvitedAt = now
		if _, err := tx.NamedExecContext(ctx, evaluatorQuery, evaluators[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("insert evaluator: %w", err)
		}
		inserted = append(inserted, evaluators[i])
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create evaluation: %w", err)
	}
	return inserted, nil
}

// FindByID returns an evaluation by its ID.
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	const query = `SELECT id, organization_id, organization_name, ceo_name, ceo_email, admin_name, admin_email,
        period_start, period_end, deadline, minimum_responses, share_results_with_ceo, has_committees,
        committee_list, reminder_config, status, published_at, created_at
        FROM ceo_evaluations WHERE id = $1`
	var evaluation models.Evaluation
	if err := r.db.GetContext(ctx, &evaluation, query, id); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// List returns evaluations filtered by the provided criteria.
func (r *EvaluationRepository) List(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, int, error) {
	base := "FROM ceo_evaluations"
	var conditions []string
	var args []interface{}

	if filter.OrganizationID != "" {
		conditions = append(conditions, fmt.Sprintf("organization_id = $%d", len(args)+1))
		args = append(args, filter.OrganizationID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"published_at": "published_at",
		"deadline":     "deadline",
		"ceo_name":     "ceo_name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "published_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, organization_id, organization_name, ceo_name, ceo_email, admin_name, admin_email,
        period_start, period_end, deadline, minimum_responses, share_results_with_ceo, has_committees,
        committee_list, reminder_config, status, published_at, created_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var evaluations []models.Evaluation
	if err := r.db.SelectContext(ctx, &evaluations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list evaluations: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count evaluations: %w", err)
	}
	return evaluations, total, nil
}

// CloseIfActive transitions an active evaluation to closed. It reports
// whether a row actually changed so callers can distinguish "already
// closed" from success.
func (r *EvaluationRepository) CloseIfActive(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE ceo_evaluations SET status = $2 WHERE id = $1 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, id, models.EvaluationStatusClosed, models.EvaluationStatusActive)
	if err != nil {
		return false, fmt.Errorf("close evaluation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close evaluation rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListActiveWithPending returns active evaluations that still have at
// least one pending evaluator, for the reminder dispatcher.
func (r *EvaluationRepository) ListActiveWithPending(ctx context.Context) ([]models.Evaluation, error) {
	const query = `SELECT DISTINCT ev.id, ev.organization_id, ev.organization_name, ev.ceo_name, ev.ceo_email,
        ev.admin_name, ev.admin_email, ev.period_start, ev.period_end, ev.deadline, ev.minimum_responses,
        ev.share_results_with_ceo, ev.has_committees, ev.committee_list, ev.reminder_config, ev.status,
        ev.published_at, ev.created_at
        FROM ceo_evaluations ev
        JOIN ceo_evaluators e ON e.evaluation_id = ev.id
        WHERE ev.status = $1 AND e.status = $2`
	var evaluations []models.Evaluation
	if err := r.db.SelectContext(ctx, &evaluations, query, models.EvaluationStatusActive, models.EvaluatorStatusPending); err != nil {
		return nil, fmt.Errorf("list active evaluations with pending evaluators: %w", err)
	}
	return evaluations, nil
}
