package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nonprofit-edge/evaluation-api/internal/models"
	appErrors "github.com/nonprofit-edge/evaluation-api/pkg/errors"
)

type mockAuthRepo struct {
	user          *models.User
	findErr       error
	lastLoginSet  bool
	lastLoginErr  error
	lastLoginUser string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.user, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginSet = true
	m.lastLoginUser = id
	return m.lastLoginErr
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "evaluation-api",
		Audience:          []string{"admin"},
	}
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "admin@example.org",
		PasswordHash: string(hash),
		FullName:     "Alex Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "s3cret-pass")}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret-pass"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "user-1", res.User.ID)
	assert.True(t, repo.lastLoginSet)
	assert.Equal(t, "user-1", repo.lastLoginUser)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "s3cret-pass")}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.False(t, repo.lastLoginSet)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthRepo{findErr: sql.ErrNoRows}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.org", Password: "whatever"})
	require.Error(t, err)
	// Unknown email and wrong password are indistinguishable to the caller.
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "s3cret-pass")
	user.Active = false
	repo := &mockAuthRepo{user: user}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestLoginValidatesPayload(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "s3cret-pass")}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: ""})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginSucceedsWhenLastLoginUpdateFails(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "s3cret-pass"), lastLoginErr: sql.ErrConnDone}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "s3cret-pass")}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret-pass"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin@example.org", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	repo := &mockAuthRepo{user: testUser(t, "s3cret-pass")}
	issuer := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := issuer.Login(context.Background(), models.LoginRequest{Email: "admin@example.org", Password: "s3cret-pass"})
	require.NoError(t, err)

	cfg := testAuthConfig()
	cfg.AccessTokenSecret = "other-secret"
	verifier := NewAuthService(repo, validator.New(), zap.NewNop(), cfg)

	_, err = verifier.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
