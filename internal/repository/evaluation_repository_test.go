package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func evaluationColumns() []string {
	return []string{"id", "organization_id", "organization_name", "ceo_name", "ceo_email",
		"admin_name", "admin_email", "period_start", "period_end", "deadline", "minimum_responses",
		"share_results_with_ceo", "has_committees", "committee_list", "reminder_config", "status",
		"published_at", "created_at"}
}

func evaluationRow(rows *sqlmock.Rows, id string, deadline time.Time) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "org-1", "Hope Foundation", "Jordan Reyes", "ceo@example.org",
		"Alex Admin", "admin@example.org", now, now, deadline, 3,
		false, false, "{}", []byte(`{}`), string(models.EvaluationStatusActive), now, now)
}

func TestCreateWithEvaluators(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ceo_evaluations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ceo_evaluators").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ceo_evaluators").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	evaluation := &models.Evaluation{
		OrganizationName: "Hope Foundation",
		CEOName:          "Jordan Reyes",
		AdminEmail:       "admin@example.org",
		Deadline:         time.Now().Add(14 * 24 * time.Hour),
		MinimumResponses: 3,
	}
	evaluators := []models.Evaluator{
		{Name: "Board Member One", Email: "one@example.org"},
		{Name: "Board Member Two", Email: "two@example.org"},
	}

	inserted, err := repo.CreateWithEvaluators(context.Background(), evaluation, evaluators)
	require.NoError(t, err)
	require.Len(t, inserted, 2)

	assert.NotEmpty(t, evaluation.ID)
	assert.Equal(t, models.EvaluationStatusActive, evaluation.Status)
	for _, e := range inserted {
		assert.NotEmpty(t, e.ID)
		assert.NotEmpty(t, e.Token)
		assert.Equal(t, evaluation.ID, e.EvaluationID)
		assert.Equal(t, models.EvaluatorStatusPending, e.Status)
	}
	assert.NotEqual(t, inserted[0].Token, inserted[1].Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithEvaluatorsRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ceo_evaluations").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ceo_evaluators").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	evaluation := &models.Evaluation{
		OrganizationName: "Hope Foundation",
		CEOName:          "Jordan Reyes",
		AdminEmail:       "admin@example.org",
		Deadline:         time.Now().Add(14 * 24 * time.Hour),
	}
	evaluators := []models.Evaluator{{Name: "Board Member One", Email: "one@example.org"}}

	_, err := repo.CreateWithEvaluators(context.Background(), evaluation, evaluators)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	rows := evaluationRow(sqlmock.NewRows(evaluationColumns()), "eval-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM ceo_evaluations WHERE id = $1")).
		WithArgs("eval-1").
		WillReturnRows(rows)

	evaluation, err := repo.FindByID(context.Background(), "eval-1")
	require.NoError(t, err)
	assert.Equal(t, "Hope Foundation", evaluation.OrganizationName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEvaluations(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	rows := evaluationRow(sqlmock.NewRows(evaluationColumns()), "eval-1", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY published_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("org-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ceo_evaluations WHERE organization_id = $1")).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	evaluations, total, err := repo.List(context.Background(), models.EvaluationFilter{OrganizationID: "org-1"})
	require.NoError(t, err)
	assert.Len(t, evaluations, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseIfActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ceo_evaluations SET status = $2 WHERE id = $1 AND status = $3")).
		WithArgs("eval-1", string(models.EvaluationStatusClosed), string(models.EvaluationStatusActive)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	closed, err := repo.CloseIfActive(context.Background(), "eval-1")
	require.NoError(t, err)
	assert.True(t, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseIfActiveAlreadyClosed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ceo_evaluations SET status = $2 WHERE id = $1 AND status = $3")).
		WithArgs("eval-1", string(models.EvaluationStatusClosed), string(models.EvaluationStatusActive)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	closed, err := repo.CloseIfActive(context.Background(), "eval-1")
	require.NoError(t, err)
	assert.False(t, closed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveWithPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	rows := evaluationRow(sqlmock.NewRows(evaluationColumns()), "eval-1", time.Now())
	mock.ExpectQuery("SELECT DISTINCT ev.id").
		WithArgs(string(models.EvaluationStatusActive), string(models.EvaluatorStatusPending)).
		WillReturnRows(rows)

	evaluations, err := repo.ListActiveWithPending(context.Background())
	require.NoError(t, err)
	assert.Len(t, evaluations, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
