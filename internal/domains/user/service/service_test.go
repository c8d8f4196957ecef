package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"quicktable/config"
	"quicktable/infras/otel/mocks"
	userMocks "quicktable/internal/domains/user/mocks"
	"quicktable/internal/domains/user/model"
	"quicktable/internal/domains/user/service"
	cacheMocks "quicktable/shared/cache/mocks"
)

func newService(t *testing.T) (service.User, *userMocks.MockUser, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := userMocks.NewMockUser(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, cfg, mockCache, mocks.NewOtel())

	return svc, mockRepo, mockCache
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{0, model.TierBronze},
		{199, model.TierBronze},
		{200, model.TierSilver},
		{220, model.TierSilver},
		{499, model.TierSilver},
		{500, model.TierGold},
		{999, model.TierGold},
		{1000, model.TierPlatinum},
		{5000, model.TierPlatinum},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, model.TierFor(tt.points), "points=%d", tt.points)
	}
}

func TestUserService_AddLoyaltyPoints(t *testing.T) {
	tests := []struct {
		name      string
		points    int
		setupMock func(repo *userMocks.MockUser, cache *cacheMocks.MockRedisCache)
		wantErr   bool
	}{
		{
			name:   "award crossing the silver threshold",
			points: 40,
			setupMock: func(repo *userMocks.MockUser, cache *cacheMocks.MockRedisCache) {
				// Balance was 180, the award lands on 220, so the tier
				// recompute must produce SILVER regardless of award order.
				repo.EXPECT().AddPoints(gomock.Any(), "user-1", 40).Return(220, nil)

				repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						assert.Equal(t, model.TierSilver, fields[model.FieldTier])
						return nil
					})

				cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
				cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
		},
		{
			name:   "zero points is a no-op",
			points: 0,
			setupMock: func(repo *userMocks.MockUser, cache *cacheMocks.MockRedisCache) {
				// No repository calls expected.
			},
		},
		{
			name:   "missing user propagates",
			points: 40,
			setupMock: func(repo *userMocks.MockUser, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().AddPoints(gomock.Any(), "user-1", 40).Return(0, errors.New("user does not exist"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockCache := newService(t)
			tt.setupMock(mockRepo, mockCache)

			err := svc.AddLoyaltyPoints(context.Background(), "user-1", tt.points)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUserService_RecordCompleted(t *testing.T) {
	svc, mockRepo, mockCache := newService(t)

	mockRepo.EXPECT().BumpStats(gomock.Any(), "user-1", 0, 1, 0).Return(nil)

	// Last visit stamp, then the tier recompute update from the award.
	mockRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)
	mockRepo.EXPECT().AddPoints(gomock.Any(), "user-1", 40).Return(40, nil)

	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	err := svc.RecordCompleted(context.Background(), "user-1", 40)

	assert.NoError(t, err)
}

func TestUserService_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(repo *userMocks.MockUser, cache *cacheMocks.MockRedisCache)
		wantErr   bool
	}{
		{
			name: "cache miss, found in db",
			setupMock: func(repo *userMocks.MockUser, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{ID: "user-1", Tier: model.TierBronze}, nil)
				cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
		},
		{
			name: "not found",
			setupMock: func(repo *userMocks.MockUser, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{}, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockCache := newService(t)
			tt.setupMock(mockRepo, mockCache)

			_, err := svc.Get(context.Background(), "user-1")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
