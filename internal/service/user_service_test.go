package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edutrack/edutrack-api/internal/models"
	appErrors "github.com/edutrack/edutrack-api/pkg/errors"
)

type fakeUserRepo struct {
	users   map[int64]*models.User
	deleted []int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func profilePayload() models.UpdateProfileRequest {
	return models.UpdateProfileRequest{FirstName: "Grace", LastName: "Hopper", Mobile: "+14155550100"}
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateProfile(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users[1] = &models.User{ID: 1, FirstName: "Ada", LastName: "Lovelace", Mobile: "+441234567890"}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())

	updated, err := svc.UpdateProfile(context.Background(), 1, profilePayload())
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, "Hopper", repo.users[1].LastName)
}

func TestUserServiceUpdateMissingIsNotFound(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(), nil, validator.New(), zap.NewNop())

	_, err := svc.UpdateProfile(context.Background(), 42, profilePayload())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteMissingIsNoop(t *testing.T) {
	repo := newFakeUserRepo()
	audit := &fakeAuditor{}
	svc := NewUserService(repo, audit, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), 42, 1)
	require.NoError(t, err, "deleting an unknown identifier must succeed quietly")
	assert.Empty(t, audit.entries, "no audit entry for a record that never existed")
}

func TestUserServiceDeleteExistingAudits(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users[7] = &models.User{ID: 7, Email: "ada@example.com", Role: models.RoleStudent}
	audit := &fakeAuditor{}
	svc := NewUserService(repo, audit, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, int64(7))
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionUserDelete, audit.entries[0].Action)
}
