package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
	"github.com/edutrack/edutrack-api/internal/session"
	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
)

type fakeAuthRepo struct {
	users         map[int64]*models.User
	nextID        int64
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog
	lastLoginSet  bool
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		users:         make(map[int64]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
		nextID:        1,
	}
}

func (f *fakeAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeAuthRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrUniqueViolation
		}
	}
	user.ID = f.nextID
	f.nextID++
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeAuthRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	f.lastLoginSet = true
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	if u, ok := f.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	for _, rt := range f.refreshTokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := f.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, rt := range f.refreshTokens {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
		}
	}
	return nil
}

type fakeAuditor struct {
	entries []*models.AuditLog
}

func (f *fakeAuditor) Record(entry *models.AuditLog) {
	f.entries = append(f.entries, entry)
}

func newAuthService(repo *fakeAuthRepo, sessions *session.Manager) (*AuthService, *fakeAuditor) {
	audit := &fakeAuditor{}
	svc := NewAuthService(repo, sessions, audit, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "test",
	})
	return svc, audit
}

func registerPayload(email string) models.RegisterRequest {
	return models.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Mobile:    "+4915112345678",
		Password:  "correct-horse",
		Role:      models.RoleStudent,
	}
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newFakeAuthRepo()
	svc, audit := newAuthService(repo, nil)

	user, err := svc.Register(context.Background(), registerPayload("ada@example.com"))
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "correct-horse", user.PasswordHash, "plaintext must never be stored")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionRegister, audit.entries[0].Action)
}

func TestAuthServiceRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	repo := newFakeAuthRepo()
	svc, _ := newAuthService(repo, nil)

	_, err := svc.Register(context.Background(), registerPayload("ada@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerPayload("ADA@Example.COM"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEmail.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	repo := newFakeAuthRepo()
	svc, _ := newAuthService(repo, nil)

	cases := []func(*models.RegisterRequest){
		func(r *models.RegisterRequest) { r.Email = "not-an-email" },
		func(r *models.RegisterRequest) { r.FirstName = "   " },
		func(r *models.RegisterRequest) { r.Mobile = "abc" },
		func(r *models.RegisterRequest) { r.Password = "short" },
		func(r *models.RegisterRequest) { r.Role = "ADMIN" },
	}
	for _, mutate := range cases {
		req := registerPayload("ada@example.com")
		mutate(&req)
		_, err := svc.Register(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.users, "no record may be created for invalid payloads")
}

func TestAuthServiceSamePasswordDifferentHashes(t *testing.T) {
	repo := newFakeAuthRepo()
	svc, _ := newAuthService(repo, nil)

	first, err := svc.Register(context.Background(), registerPayload("one@example.com"))
	require.NoError(t, err)
	second, err := svc.Register(context.Background(), registerPayload("two@example.com"))
	require.NoError(t, err)

	assert.NotEqual(t, first.PasswordHash, second.PasswordHash, "salting must produce distinct hashes")
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(first.PasswordHash), []byte("correct-horse")))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(second.PasswordHash), []byte("correct-horse")))
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := newFakeAuthRepo()
	sessions := session.NewManager(nil)
	svc, _ := newAuthService(repo, sessions)

	_, err := svc.Register(context.Background(), registerPayload("ada@example.com"))
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, repo.lastLoginSet)

	current, ok := sessions.Current()
	assert.True(t, ok)
	assert.Equal(t, res.User.ID, current.ID)
}

func TestAuthServiceLoginFailuresIndistinguishable(t *testing.T) {
	repo := newFakeAuthRepo()
	svc, _ := newAuthService(repo, nil)

	_, err := svc.Register(context.Background(), registerPayload("ada@example.com"))
	require.NoError(t, err)

	_, unknownErr := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	_, wrongErr := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	unknown := appErrors.FromError(unknownErr)
	wrong := appErrors.FromError(wrongErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, unknown.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, wrong.Code)
	assert.Equal(t, unknown.Message, wrong.Message, "unknown email and wrong password must look identical")
}

func TestAuthServiceLoginKeepsFirstSession(t *testing.T) {
	repo := newFakeAuthRepo()
	sessions := session.NewManager(nil)
	svc, _ := newAuthService(repo, sessions)

	_, err := svc.Register(context.Background(), registerPayload("one@example.com"))
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), registerPayload("two@example.com"))
	require.NoError(t, err)

	first, err := svc.Login(context.Background(), models.LoginRequest{Email: "one@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "two@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	current, ok := sessions.Current()
	assert.True(t, ok)
	assert.Equal(t, first.User.ID, current.ID, "a second login must not displace the active session")
}

func TestAuthServiceLogoutClearsSession(t *testing.T) {
	repo := newFakeAuthRepo()
	sessions := session.NewManager(nil)
	svc, _ := newAuthService(repo, sessions)

	_, err := svc.Register(context.Background(), registerPayload("ada@example.com"))
	require.NoError(t, err)
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), res.RefreshToken, res.User.ID, models.LoginRequest{})
	require.NoError(t, err)
	assert.False(t, sessions.Active())
	assert.True(t, repo.refreshTokens[res.RefreshToken].Revoked)
}

func TestAuthServiceRefreshTokenRotation(t *testing.T) {
	repo := newFakeAuthRepo()
	svc, _ := newAuthService(repo, nil)

	_, err := svc.Register(context.Background(), registerPayload("ada@example.com"))
	require.NoError(t, err)
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, refreshed.RefreshToken)
	assert.True(t, repo.refreshTokens[res.RefreshToken].Revoked, "used token must be revoked")

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: res.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newFakeAuthRepo()
	svc, _ := newAuthService(repo, nil)

	user, err := svc.Register(context.Background(), registerPayload("ada@example.com"))
	require.NoError(t, err)
	oldHash := user.PasswordHash

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{OldPassword: "correct-horse", NewPassword: "battery-staple"})
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, repo.users[user.ID].PasswordHash)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ada@example.com", Password: "battery-staple"})
	require.NoError(t, err)
}

func TestValidateToken(t *testing.T) {
	repo := newFakeAuthRepo()
	svc, _ := newAuthService(repo, nil)

	user := &models.User{ID: 42, Email: "ada@example.com", Role: models.RoleTeacher}
	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)

	_, err = svc.ValidateToken(token + "tampered")
	require.Error(t, err)
}
