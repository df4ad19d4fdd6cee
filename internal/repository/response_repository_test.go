package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
)

func submissionBatch() []models.EvaluatorResponse {
	score := 4
	open := "Strong communicator"
	return []models.EvaluatorResponse{
		{EvaluationID: "eval-1", EvaluatorID: "ev-1", Dimension: "Leadership", QuestionID: "q1", Score: &score},
		{EvaluationID: "eval-1", EvaluatorID: "ev-1", Dimension: "Leadership", QuestionID: "q2", OpenResponse: &open},
	}
}

func TestInsertBatchAndComplete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ceo_evaluator_responses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ceo_evaluator_responses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ceo_evaluators SET status = $2, completed_at = $3 WHERE id = $1 AND status = $4")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.InsertBatchAndComplete(context.Background(), submissionBatch())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchAndCompleteDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ceo_evaluator_responses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ceo_evaluator_responses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ceo_evaluators SET status = $2, completed_at = $3 WHERE id = $1 AND status = $4")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.InsertBatchAndComplete(context.Background(), submissionBatch())
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchAndCompleteRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ceo_evaluator_responses").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.InsertBatchAndComplete(context.Background(), submissionBatch())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchAndCompleteEmptyBatch(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	err := repo.InsertBatchAndComplete(context.Background(), nil)
	require.Error(t, err)
}

func TestCountByEvaluator(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResponseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ceo_evaluator_responses WHERE evaluator_id = $1")).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountByEvaluator(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
