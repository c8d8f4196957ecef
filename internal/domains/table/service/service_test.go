package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"quicktable/config"
	"quicktable/infras/otel/mocks"
	rMocks "quicktable/internal/domains/reservation/mocks"
	rModel "quicktable/internal/domains/reservation/model"
	tableMocks "quicktable/internal/domains/table/mocks"
	"quicktable/internal/domains/table/model"
	"quicktable/internal/domains/table/model/dto"
	"quicktable/internal/domains/table/repository"
	"quicktable/internal/domains/table/service"
	cacheMocks "quicktable/shared/cache/mocks"
	"quicktable/shared/constant"
)

func newService(t *testing.T) (service.Table, *tableMocks.MockTable, *rMocks.MockReservation, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := tableMocks.NewMockTable(ctrl)
	mockReservations := rMocks.NewMockReservation(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockReservations, cfg, mockCache, mocks.NewOtel())

	return svc, mockRepo, mockReservations, mockCache
}

func activeReservation(tableID, clock string) rModel.Reservation {
	return rModel.Reservation{
		ID:      "res-" + tableID + "-" + clock,
		TableID: tableID,
		Time:    clock,
		Status:  rModel.StatusConfirmed,
	}
}

func TestTableService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateTableRequest
		setupMock func(repo *tableMocks.MockTable, cache *cacheMocks.MockRedisCache)
		wantErr   bool
	}{
		{
			name: "successful creation",
			req:  dto.CreateTableRequest{TableNumber: 6, Capacity: 4, Location: model.LocationWindow, Shape: model.ShapeRound},
			setupMock: func(repo *tableMocks.MockTable, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantErr: false,
		},
		{
			name: "duplicate table number",
			req:  dto.CreateTableRequest{TableNumber: 6, Capacity: 4, Location: model.LocationWindow, Shape: model.ShapeRound},
			setupMock: func(repo *tableMocks.MockTable, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantErr: true,
		},
		{
			name: "repository error",
			req:  dto.CreateTableRequest{TableNumber: 6, Capacity: 4, Location: model.LocationWindow, Shape: model.ShapeRound},
			setupMock: func(repo *tableMocks.MockTable, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, _, mockCache := newService(t)
			tt.setupMock(mockRepo, mockCache)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "test-user-id")
			err := svc.Create(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTableService_FindAvailable(t *testing.T) {
	candidates := []model.Table{
		{ID: "table-6", TableNumber: 6, Capacity: 4, Status: model.StatusAvailable},
		{ID: "table-7", TableNumber: 7, Capacity: 4, Status: model.StatusAvailable},
	}

	// Table #6 already holds 18:00, so its window runs 16:00-20:00.
	existing := []rModel.Reservation{activeReservation("table-6", "18:00")}

	tests := []struct {
		name       string
		time       string
		wantTables []string
	}{
		{
			name:       "same hour collides",
			time:       "19:00",
			wantTables: []string{"table-7"},
		},
		{
			name:       "ninety minutes after the window start still collides",
			time:       "21:30",
			wantTables: []string{"table-7"},
		},
		{
			name:       "windows touching at the boundary do not collide",
			time:       "22:00",
			wantTables: []string{"table-6", "table-7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockReservations, mockCache := newService(t)

			mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
			mockRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(candidates, nil)
			mockReservations.EXPECT().ListActiveByDate(gomock.Any(), "2025-03-10").Return(existing, nil)
			mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

			res, err := svc.FindAvailable(context.Background(), dto.AvailableTablesRequest{
				Date:   "2025-03-10",
				Time:   tt.time,
				Guests: 2,
			})

			assert.NoError(t, err)

			got := make([]string, len(res.Tables))
			for i, table := range res.Tables {
				got[i] = table.ID
			}

			assert.Equal(t, tt.wantTables, got)
		})
	}
}

func TestTableService_FindAvailable_InvalidInput(t *testing.T) {
	svc, _, _, _ := newService(t)

	_, err := svc.FindAvailable(context.Background(), dto.AvailableTablesRequest{
		Date: "2025-03-10", Time: "25:00", Guests: 2,
	})
	assert.Error(t, err)

	_, err = svc.FindAvailable(context.Background(), dto.AvailableTablesRequest{
		Date: "10-03-2025", Time: "18:00", Guests: 2,
	})
	assert.Error(t, err)
}

func TestTableService_Stats(t *testing.T) {
	svc, mockRepo, _, _ := newService(t)

	mockRepo.EXPECT().CountByStatus(gomock.Any()).Return([]repository.StatusCount{
		{Status: model.StatusAvailable, Count: 6},
		{Status: model.StatusReserved, Count: 2},
		{Status: model.StatusOccupied, Count: 1},
		{Status: model.StatusMaintenance, Count: 1},
	}, nil)

	stats, err := svc.Stats(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 6, stats.Available)
	assert.Equal(t, 2, stats.Reserved)
	assert.Equal(t, 1, stats.Occupied)
	assert.Equal(t, 1, stats.Maintenance)
	assert.InDelta(t, 0.3, stats.OccupancyRate, 0.0001)
}

func TestTableService_ReconcileStatuses(t *testing.T) {
	now := time.Date(2025, time.March, 10, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(repo *tableMocks.MockTable, reservations *rMocks.MockReservation, cache *cacheMocks.MockRedisCache)
		wantReset int
		wantErr   bool
	}{
		{
			name: "no stale tables is a no-op",
			setupMock: func(repo *tableMocks.MockTable, reservations *rMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
			},
			wantReset: 0,
		},
		{
			name: "covered table is left alone, uncovered table is reset",
			setupMock: func(repo *tableMocks.MockTable, reservations *rMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Table{
					{ID: "table-1", Status: model.StatusReserved},
					{ID: "table-2", Status: model.StatusOccupied},
				}, nil)

				// 18:00 reservation covers 18:30 for table-1; table-2 has nothing.
				reservations.EXPECT().ListActiveByDate(gomock.Any(), "2025-03-10").Return([]rModel.Reservation{
					activeReservation("table-1", "18:00"),
				}, nil)

				repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						assert.Equal(t, model.StatusAvailable, fields[model.FieldStatus])
						return nil
					})

				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantReset: 1,
		},
		{
			name: "reservation load failure propagates",
			setupMock: func(repo *tableMocks.MockTable, reservations *rMocks.MockReservation, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return([]model.Table{
					{ID: "table-1", Status: model.StatusReserved},
				}, nil)

				reservations.EXPECT().ListActiveByDate(gomock.Any(), gomock.Any()).Return(nil, errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockReservations, mockCache := newService(t)
			tt.setupMock(mockRepo, mockReservations, mockCache)

			reset, err := svc.ReconcileStatuses(context.Background(), now)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantReset, reset)
		})
	}
}

func TestTableService_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(repo *tableMocks.MockTable, cache *cacheMocks.MockRedisCache)
		wantErr   bool
	}{
		{
			name: "cache miss, found in db",
			setupMock: func(repo *tableMocks.MockTable, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{ID: "table-1"}, nil)
				cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
		},
		{
			name: "not found",
			setupMock: func(repo *tableMocks.MockTable, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Table{}, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, _, mockCache := newService(t)
			tt.setupMock(mockRepo, mockCache)

			_, err := svc.Get(context.Background(), "table-1")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
