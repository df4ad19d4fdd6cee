package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
)

func evaluatorColumns() []string {
	return []string{"id", "evaluation_id", "name", "email", "board_role", "committee_memberships",
		"token", "status", "invited_at", "completed_at", "reminder_opt_out", "reminder_log"}
}

func TestFindByToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluatorRepository(db)

	now := time.Now()
	evaluatorRows := sqlmock.NewRows(evaluatorColumns()).
		AddRow("ev-1", "eval-1", "Board Member One", "one@example.org", "Chair", "{}",
			"tok-1", string(models.EvaluatorStatusPending), now, nil, false, []byte(`[]`))
	mock.ExpectQuery(regexp.QuoteMeta("FROM ceo_evaluators WHERE token = $1")).
		WithArgs("tok-1").
		WillReturnRows(evaluatorRows)

	evaluationRows := evaluationRow(sqlmock.NewRows(evaluationColumns()), "eval-1", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM ceo_evaluations WHERE id = $1")).
		WithArgs("eval-1").
		WillReturnRows(evaluationRows)

	evaluator, evaluation, err := repo.FindByToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "ev-1", evaluator.ID)
	assert.Equal(t, "eval-1", evaluation.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByTokenUnknown(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluatorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ceo_evaluators WHERE token = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, _, err := repo.FindByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProgress(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluatorRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "board_role", "status", "invited_at", "completed_at"}).
		AddRow("ev-1", "Board Member One", "one@example.org", "Chair", string(models.EvaluatorStatusCompleted), now, now).
		AddRow("ev-2", "Board Member Two", "two@example.org", "Treasurer", string(models.EvaluatorStatusPending), now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM ceo_evaluators WHERE evaluation_id = $1 ORDER BY invited_at, name")).
		WithArgs("eval-1").
		WillReturnRows(rows)

	progress, err := repo.ListProgress(context.Background(), "eval-1")
	require.NoError(t, err)
	require.Len(t, progress, 2)
	assert.Equal(t, models.EvaluatorStatusCompleted, progress[0].Status)
	assert.Nil(t, progress[1].CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingForReminders(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluatorRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(evaluatorColumns()).
		AddRow("ev-2", "eval-1", "Board Member Two", "two@example.org", "", "{}",
			"tok-2", string(models.EvaluatorStatusPending), now, nil, false, []byte(`[{"trigger":"7day","sent_at":"2026-03-01T08:00:00Z"}]`))
	mock.ExpectQuery(regexp.QuoteMeta("reminder_opt_out = FALSE")).
		WithArgs("eval-1", string(models.EvaluatorStatusPending)).
		WillReturnRows(rows)

	evaluators, err := repo.ListPendingForReminders(context.Background(), "eval-1")
	require.NoError(t, err)
	require.Len(t, evaluators, 1)
	assert.True(t, evaluators[0].ReminderLog.Contains(models.ReminderTriggerSevenDay))
	assert.False(t, evaluators[0].ReminderLog.Contains(models.ReminderTriggerThreeDay))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendReminderLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluatorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ceo_evaluators SET reminder_log = $2 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	log := models.ReminderLog{{Trigger: models.ReminderTriggerThreeDay, SentAt: time.Now()}}
	err := repo.AppendReminderLog(context.Background(), "ev-1", log)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptOutByToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEvaluatorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ceo_evaluators SET reminder_opt_out = TRUE WHERE token = $1")).
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	found, err := repo.OptOutByToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.True(t, found)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ceo_evaluators SET reminder_opt_out = TRUE WHERE token = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err = repo.OptOutByToken(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
