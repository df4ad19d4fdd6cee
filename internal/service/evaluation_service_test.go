package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
)

type mockEvaluationRepo struct {
	created      *models.Evaluation
	evaluators   []models.Evaluator
	createErr    error
	findResult   *models.Evaluation
	findErr      error
	listResult   []models.Evaluation
	listTotal    int
	closedResult bool
	closeErr     error
}

func (m *mockEvaluationRepo) CreateWithEvaluators(ctx context.Context, evaluation *models.Evaluation, evaluators []models.Evaluator) ([]models.Evaluator, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	evaluation.ID = uuid.NewString()
	for i := range evaluators {
		evaluators[i].ID = uuid.NewString()
		evaluators[i].EvaluationID = evaluation.ID
		evaluators[i].Token = uuid.NewString()
		evaluators[i].Status = models.EvaluatorStatusPending
	}
	m.created = evaluation
	m.evaluators = evaluators
	return evaluators, nil
}

func (m *mockEvaluationRepo) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.findResult != nil {
		return m.findResult, nil
	}
	return testEvaluation(3), nil
}

func (m *mockEvaluationRepo) List(ctx context.Context, filter models.EvaluationFilter) ([]models.Evaluation, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockEvaluationRepo) CloseIfActive(ctx context.Context, id string) (bool, error) {
	if m.closeErr != nil {
		return false, m.closeErr
	}
	return m.closedResult, nil
}

type mockProgressReader struct {
	progress []models.EvaluatorProgress
}

func (m *mockProgressReader) ListProgress(ctx context.Context, evaluationID string) ([]models.EvaluatorProgress, error) {
	return m.progress, nil
}

func newEvaluationService(repo *mockEvaluationRepo, results *mockResultRepo, sender *fakeSender) *EvaluationService {
	emails := newTestEmailService(sender, &fakeEmailLog{})
	aggregates := NewAggregationService(results, nil, zap.NewNop())
	return NewEvaluationService(repo, &mockProgressReader{}, aggregates, emails, nil, validator.New(), zap.NewNop())
}

func createRequest() CreateEvaluationRequest {
	return CreateEvaluationRequest{
		OrganizationName: "Hope Foundation",
		CEOName:          "Jordan Reyes",
		AdminName:        "Alex Admin",
		AdminEmail:       "admin@example.org",
		Deadline:         time.Now().Add(14 * 24 * time.Hour).Format(time.RFC3339),
		Evaluators: []models.EvaluatorDescriptor{
			{Name: "Board Member One", Email: "one@example.org"},
			{Name: "Board Member Two", Email: "two@example.org"},
			{Name: "Board Member Three", Email: "three@example.org"},
		},
	}
}

func TestCreateEvaluationSendsInvitations(t *testing.T) {
	repo := &mockEvaluationRepo{}
	sender := &fakeSender{}
	svc := newEvaluationService(repo, &mockResultRepo{}, sender)

	res, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, 3, res.EvaluatorsInvited)
	require.Len(t, res.Emails, 3)
	for _, r := range res.Emails {
		assert.True(t, r.Success)
	}

	// Three invitations plus the admin confirmation.
	require.Len(t, sender.sent, 4)
	assert.Equal(t, []string{"admin@example.org"}, sender.sent[3].To)

	// Each invitation carries that evaluator's unique link.
	links := map[string]bool{}
	for i, e := range repo.evaluators {
		assert.Contains(t, sender.sent[i].HTML, "/eval/"+e.Token)
		links[e.Token] = true
	}
	assert.Len(t, links, 3)
}

func TestCreateEvaluationValidatesBeforeWrite(t *testing.T) {
	repo := &mockEvaluationRepo{}
	svc := newEvaluationService(repo, &mockResultRepo{}, &fakeSender{})

	req := createRequest()
	req.Evaluators = nil

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestCreateEvaluationRejectsBadDeadline(t *testing.T) {
	repo := &mockEvaluationRepo{}
	svc := newEvaluationService(repo, &mockResultRepo{}, &fakeSender{})

	req := createRequest()
	req.Deadline = "soon"

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, repo.created)
}

func TestCreateEvaluationDefaultsMinimumResponses(t *testing.T) {
	repo := &mockEvaluationRepo{}
	svc := newEvaluationService(repo, &mockResultRepo{}, &fakeSender{})

	_, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, repo.created.MinimumResponses)
}

func TestCreateEvaluationReportsPerRecipientFailures(t *testing.T) {
	repo := &mockEvaluationRepo{}
	sender := &fakeSender{failAll: true}
	svc := newEvaluationService(repo, &mockResultRepo{}, sender)

	res, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	// Creation succeeds even when every send fails.
	require.Len(t, res.Emails, 3)
	for _, r := range res.Emails {
		assert.False(t, r.Success)
		assert.NotEmpty(t, r.Error)
	}
}

func TestCloseEvaluation(t *testing.T) {
	repo := &mockEvaluationRepo{closedResult: true}
	svc := newEvaluationService(repo, &mockResultRepo{}, &fakeSender{})

	evaluation, err := svc.Close(context.Background(), "eval-1")
	require.NoError(t, err)
	assert.NotNil(t, evaluation)
}

func TestCloseEvaluationAlreadyClosed(t *testing.T) {
	repo := &mockEvaluationRepo{closedResult: false}
	svc := newEvaluationService(repo, &mockResultRepo{}, &fakeSender{})

	_, err := svc.Close(context.Background(), "eval-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrEvaluationClosed.Code, appErr.Code)
}

func TestCloseEvaluationNotFound(t *testing.T) {
	repo := &mockEvaluationRepo{findErr: sql.ErrNoRows}
	svc := newEvaluationService(repo, &mockResultRepo{}, &fakeSender{})

	_, err := svc.Close(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestProgressCombinesAggregateAndEvaluators(t *testing.T) {
	repo := &mockEvaluationRepo{}
	results := &mockResultRepo{result: &models.EvaluationResult{EvaluationID: "eval-1", TotalInvited: 8, TotalResponded: 5}}
	emails := newTestEmailService(&fakeSender{}, &fakeEmailLog{})
	aggregates := NewAggregationService(results, nil, zap.NewNop())
	progress := &mockProgressReader{progress: []models.EvaluatorProgress{
		{ID: "ev-1", Name: "Board Member One", Status: models.EvaluatorStatusCompleted},
		{ID: "ev-2", Name: "Board Member Two", Status: models.EvaluatorStatusPending},
	}}
	svc := NewEvaluationService(repo, progress, aggregates, emails, nil, validator.New(), zap.NewNop())

	result, err := svc.Progress(context.Background(), "eval-1")
	require.NoError(t, err)
	assert.Equal(t, 5, result.Result.TotalResponded)
	assert.Len(t, result.Evaluators, 2)
}

func TestExportProgressCSV(t *testing.T) {
	repo := &mockEvaluationRepo{}
	results := &mockResultRepo{result: &models.EvaluationResult{EvaluationID: "eval-1", TotalInvited: 1, TotalResponded: 0}}
	emails := newTestEmailService(&fakeSender{}, &fakeEmailLog{})
	aggregates := NewAggregationService(results, nil, zap.NewNop())
	progress := &mockProgressReader{progress: []models.EvaluatorProgress{
		{ID: "ev-1", Name: "Board Member One", Email: "one@example.org", Status: models.EvaluatorStatusPending, InvitedAt: time.Now()},
	}}
	svc := NewEvaluationService(repo, progress, aggregates, emails, nil, validator.New(), zap.NewNop())

	out, err := svc.ExportProgressCSV(context.Background(), "eval-1")
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, "name,email,board_role,status,invited_at,completed_at"))
	assert.Contains(t, text, "one@example.org")
}
