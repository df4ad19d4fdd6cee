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
)

func TestRecompute(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("eval-1", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"total_invited", "total_responded"}).AddRow(8, 5))
	mock.ExpectQuery("SELECT r.dimension").
		WithArgs("eval-1", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"dimension", "average"}).
			AddRow("Leadership", 4.2).
			AddRow("Financial Oversight", 3.8))
	mock.ExpectExec("INSERT INTO ceo_evaluation_results").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Recompute(context.Background(), "eval-1")
	require.NoError(t, err)
	assert.Equal(t, 8, result.TotalInvited)
	assert.Equal(t, 5, result.TotalResponded)
	assert.InDelta(t, 4.2, result.DimensionAverages["Leadership"], 0.001)
	assert.InDelta(t, 3.8, result.DimensionAverages["Financial Oversight"], 0.001)
	assert.Equal(t, 63, result.ResponseRate())
	assert.Equal(t, 3, result.Remaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeNoResponses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("eval-1", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"total_invited", "total_responded"}).AddRow(8, 0))
	mock.ExpectQuery("SELECT r.dimension").
		WithArgs("eval-1", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"dimension", "average"}))
	mock.ExpectExec("INSERT INTO ceo_evaluation_results").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Recompute(context.Background(), "eval-1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalResponded)
	assert.Empty(t, result.DimensionAverages)
	assert.Equal(t, 0, result.ResponseRate())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindResult(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	rows := sqlmock.NewRows([]string{"evaluation_id", "total_invited", "total_responded", "dimension_averages", "updated_at"}).
		AddRow("eval-1", 8, 5, []byte(`{"Leadership":4.2}`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM ceo_evaluation_results WHERE evaluation_id = $1")).
		WithArgs("eval-1").
		WillReturnRows(rows)

	result, err := repo.Find(context.Background(), "eval-1")
	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalResponded)
	assert.InDelta(t, 4.2, result.DimensionAverages["Leadership"], 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindResultMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ceo_evaluation_results WHERE evaluation_id = $1")).
		WithArgs("eval-9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "eval-9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
