package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"innkeeper/config"
	"innkeeper/infras/otel/mocks"
	s3Mocks "innkeeper/infras/s3/mocks"
	"innkeeper/internal/domains/room/model"
	"innkeeper/internal/domains/room/model/dto"
	roomMocks "innkeeper/internal/domains/room/repository/mocks"
	"innkeeper/internal/domains/room/service"
	gModel "innkeeper/shared/model"
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

type roomFixture struct {
	repo *roomMocks.MockRoom
	s3   *s3Mocks.MockS3
	svc  service.Room
}

func newRoomFixture(t *testing.T) roomFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.External.S3.BucketName = "innkeeper-assets"

	repo := roomMocks.NewMockRoom(ctrl)
	s3Mock := s3Mocks.NewMockS3(ctrl)

	return roomFixture{
		repo: repo,
		s3:   s3Mock,
		svc:  service.New(repo, cfg, newFakeCache(), mocks.NewOtel(), s3Mock),
	}
}

func availableRoom() model.Room {
	return model.Room{
		ID:            "room-id-123",
		RoomNumber:    "101",
		RoomType:      "Deluxe",
		Floor:         1,
		Capacity:      2,
		PricePerNight: 150,
		Status:        model.StatusAvailable,
		Active:        true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "admin-id",
			ModifiedBy: "admin-id",
		},
	}
}

func TestRoomService_Create(t *testing.T) {
	req := dto.CreateRoomRequest{
		RoomNumber:    "101",
		RoomType:      "Deluxe",
		Floor:         1,
		Capacity:      2,
		PricePerNight: 150,
		Amenities:     []string{"WiFi", "AC"},
	}

	t.Run("duplicate room number", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		_, err := f.svc.Create(context.Background(), "admin-id", req)
		assert.ErrorContains(t, err, "room number already exists")
	})

	t.Run("successful create without image", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		f.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, room model.Room) error {
				assert.Equal(t, "101", room.RoomNumber)
				assert.Equal(t, model.StatusAvailable, room.Status)
				assert.True(t, room.Active)
				assert.Equal(t, "admin-id", room.CreatedBy)

				return nil
			})

		res, err := f.svc.Create(context.Background(), "admin-id", req)

		require.NoError(t, err)
		assert.Equal(t, "101", res.RoomNumber)
		assert.Equal(t, "Deluxe", res.RoomType)
	})
}

func TestRoomService_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(availableRoom(), nil)

		res, err := f.svc.Get(context.Background(), "room-id-123")

		require.NoError(t, err)
		assert.Equal(t, "room-id-123", res.ID)
	})

	t.Run("not found", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Room{}, nil)

		_, err := f.svc.Get(context.Background(), "missing-id")
		assert.ErrorContains(t, err, "room not found")
	})
}

func TestRoomService_Update(t *testing.T) {
	t.Run("room not found", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Room{}, nil)

		err := f.svc.Update(context.Background(), "admin-id", dto.UpdateRoomRequest{Floor: 2}, "missing-id")
		assert.ErrorContains(t, err, "room not found")
	})

	t.Run("renumbering onto an existing room rejected", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(availableRoom(), nil)

		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		err := f.svc.Update(context.Background(), "admin-id", dto.UpdateRoomRequest{RoomNumber: "202"}, "room-id-123")
		assert.ErrorContains(t, err, "room number already exists")
	})

	t.Run("same room number skips the collision check", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(availableRoom(), nil)

		f.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		err := f.svc.Update(context.Background(), "admin-id", dto.UpdateRoomRequest{RoomNumber: "101", Floor: 3}, "room-id-123")
		assert.NoError(t, err)
	})
}

func TestRoomService_SetStatus(t *testing.T) {
	t.Run("invalid status", func(t *testing.T) {
		f := newRoomFixture(t)

		err := f.svc.SetStatus(context.Background(), "admin-id", "room-id-123", "Broken")
		assert.ErrorContains(t, err, "invalid room status")
	})

	t.Run("room not found", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := f.svc.SetStatus(context.Background(), "admin-id", "missing-id", model.StatusMaintenance)
		assert.ErrorContains(t, err, "room not found")
	})

	t.Run("successful status change", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		f.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Equal(t, model.StatusMaintenance, fields[model.FieldStatus])

				return nil
			})

		err := f.svc.SetStatus(context.Background(), "admin-id", "room-id-123", model.StatusMaintenance)
		assert.NoError(t, err)
	})
}

func TestRoomService_FindAvailable(t *testing.T) {
	t.Run("invalid date format", func(t *testing.T) {
		f := newRoomFixture(t)

		_, err := f.svc.FindAvailable(context.Background(), dto.AvailabilityQuery{
			CheckInDate:  "03/10/2026",
			CheckOutDate: "2026-03-12",
		})
		assert.ErrorContains(t, err, "invalid date format")
	})

	t.Run("check-out must be after check-in", func(t *testing.T) {
		f := newRoomFixture(t)

		_, err := f.svc.FindAvailable(context.Background(), dto.AvailabilityQuery{
			CheckInDate:  "2026-03-12",
			CheckOutDate: "2026-03-10",
		})
		assert.ErrorContains(t, err, "check-out date must be after check-in date")
	})

	t.Run("passes the filters through", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			FindAvailable(gomock.Any(), gomock.Any(), gomock.Any(), "Deluxe", 2).
			DoAndReturn(func(_ context.Context, checkIn, checkOut time.Time, _ string, _ int) ([]model.Room, error) {
				assert.Equal(t, "2026-03-10", checkIn.Format("2006-01-02"))
				assert.Equal(t, "2026-03-12", checkOut.Format("2006-01-02"))

				return []model.Room{availableRoom()}, nil
			})

		res, err := f.svc.FindAvailable(context.Background(), dto.AvailabilityQuery{
			CheckInDate:  "2026-03-10",
			CheckOutDate: "2026-03-12",
			RoomType:     "Deluxe",
			Guests:       2,
		})

		require.NoError(t, err)
		require.Len(t, res.Rooms, 1)
		assert.Equal(t, "101", res.Rooms[0].RoomNumber)
	})
}

func TestRoomService_Delete(t *testing.T) {
	t.Run("room not found", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Room{}, nil)

		err := f.svc.Delete(context.Background(), "missing-id")
		assert.ErrorContains(t, err, "room not found")
	})

	t.Run("successful delete", func(t *testing.T) {
		f := newRoomFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(availableRoom(), nil)

		f.repo.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			Return(nil)

		err := f.svc.Delete(context.Background(), "room-id-123")
		assert.NoError(t, err)
	})
}
