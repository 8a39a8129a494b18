package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"innkeeper/config"
	"innkeeper/infras/otel/mocks"
	"innkeeper/internal/domains/user/model"
	"innkeeper/internal/domains/user/model/dto"
	userMocks "innkeeper/internal/domains/user/repository/mocks"
	"innkeeper/internal/domains/user/service"
	"innkeeper/shared/constant"
	gModel "innkeeper/shared/model"
	"innkeeper/shared/password"
	"innkeeper/shared/timezone"
)

// fakeCache is an in-memory stand-in for the redis cache so tests stay
// deterministic even though invalidation runs on detached goroutines.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (c *fakeCache) Save(_ context.Context, key string, value any, _ int) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = raw

	return nil
}

func (c *fakeCache) Get(_ context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.store[key]
	if !ok {
		return errors.New("cache miss")
	}

	return json.Unmarshal(raw, value)
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.store, key)

	return nil
}

func (c *fakeCache) Clear(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.store {
		if strings.HasPrefix(key, prefix) {
			delete(c.store, key)
		}
	}

	return nil
}

func newUserService(t *testing.T) (*userMocks.MockUser, service.User) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := userMocks.NewMockUser(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 60

	return repo, service.New(repo, cfg, newFakeCache(), mocks.NewOtel())
}

func staffUser(t *testing.T) model.User {
	t.Helper()

	hashed, err := password.Hash("password")
	require.NoError(t, err)

	return model.User{
		ID:       "user-id-123",
		Name:     "Test User",
		Email:    "test@example.com",
		Password: hashed,
		Role:     constant.RoleReceptionist,
		Active:   true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "admin-id",
			ModifiedBy: "admin-id",
		},
	}
}

func TestUserService_Create(t *testing.T) {
	req := dto.CreateUserRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
		Role:     constant.RoleReceptionist,
	}

	t.Run("email already registered", func(t *testing.T) {
		repo, svc := newUserService(t)

		repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		err := svc.Create(context.Background(), "admin-id", req)
		assert.ErrorContains(t, err, "email already registered")
	})

	t.Run("successful create hashes the password", func(t *testing.T) {
		repo, svc := newUserService(t)

		repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, user model.User) error {
				assert.Equal(t, constant.RoleReceptionist, user.Role)
				assert.Equal(t, "admin-id", user.CreatedBy)
				assert.NotEqual(t, req.Password, user.Password)
				assert.NoError(t, password.Verify(req.Password, user.Password))

				return nil
			})

		err := svc.Create(context.Background(), "admin-id", req)
		assert.NoError(t, err)
	})
}

func TestUserService_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, svc := newUserService(t)

		repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(staffUser(t), nil)

		res, err := svc.Get(context.Background(), "user-id-123")

		require.NoError(t, err)
		assert.Equal(t, "user-id-123", res.ID)
		assert.Equal(t, constant.RoleReceptionist, res.Role)
	})

	t.Run("not found", func(t *testing.T) {
		repo, svc := newUserService(t)

		repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.User{}, nil)

		_, err := svc.Get(context.Background(), "missing-id")
		assert.ErrorContains(t, err, "user not found")
	})
}

func TestUserService_Update(t *testing.T) {
	t.Run("empty request rejected", func(t *testing.T) {
		_, svc := newUserService(t)

		err := svc.Update(context.Background(), "admin-id", dto.UpdateUserRequest{}, "user-id-123")
		assert.ErrorContains(t, err, "update request cannot be empty")
	})

	t.Run("user not found", func(t *testing.T) {
		repo, svc := newUserService(t)

		repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		name := "Renamed User"

		err := svc.Update(context.Background(), "admin-id", dto.UpdateUserRequest{Name: &name}, "missing-id")
		assert.ErrorContains(t, err, "user not found")
	})

	t.Run("successful update", func(t *testing.T) {
		repo, svc := newUserService(t)

		repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Contains(t, fields, model.FieldName)
				assert.Equal(t, "admin-id", fields[constant.FieldModifiedBy])

				return nil
			})

		name := "Renamed User"

		err := svc.Update(context.Background(), "admin-id", dto.UpdateUserRequest{Name: &name}, "user-id-123")
		assert.NoError(t, err)
	})
}

func TestUserService_Delete(t *testing.T) {
	t.Run("user not found", func(t *testing.T) {
		repo, svc := newUserService(t)

		repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := svc.Delete(context.Background(), "missing-id")
		assert.ErrorContains(t, err, "user not found")
	})

	t.Run("successful delete", func(t *testing.T) {
		repo, svc := newUserService(t)

		repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		repo.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			Return(nil)

		err := svc.Delete(context.Background(), "user-id-123")
		assert.NoError(t, err)
	})
}
