package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"quicktable/config"
	"quicktable/infras/jwt"
	"quicktable/infras/otel/mocks"
	"quicktable/internal/domains/auth/model/dto"
	"quicktable/internal/domains/auth/service"
	uMocks "quicktable/internal/domains/user/mocks"
	userModel "quicktable/internal/domains/user/model"
	"quicktable/shared/password"
)

func newService(t *testing.T) (service.Auth, *uMocks.MockUser) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockRepo := uMocks.NewMockUser(ctrl)

	cfg := &config.Config{}
	cfg.JWT.AccessSecret = "test-access-secret"
	cfg.JWT.RefreshSecret = "test-refresh-secret"
	cfg.JWT.AccessExpireMin = 15
	cfg.JWT.RefreshExpireMin = 10080

	svc := service.New(mockRepo, cfg, mocks.NewOtel(), jwt.New(cfg))

	return svc, mockRepo
}

func activeUser(t *testing.T, plaintext string) userModel.User {
	t.Helper()

	hashed, err := password.Hash(plaintext)
	assert.NoError(t, err)

	return userModel.User{
		ID:       "user-1",
		Email:    "dina@example.com",
		Password: hashed,
		Role:     "USER",
		Active:   true,
	}
}

func TestAuthService_Register(t *testing.T) {
	req := dto.RegisterRequest{
		Email:    "dina@example.com",
		Password: "secret-password",
		FullName: "Dina Rahma",
	}

	t.Run("successful registration", func(t *testing.T) {
		svc, mockRepo := newService(t)

		mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, user userModel.User) error {
				assert.Equal(t, req.Email, user.Email)
				assert.Equal(t, userModel.TierBronze, user.Tier)
				assert.NoError(t, password.Verify(req.Password, user.Password))

				return nil
			})

		err := svc.Register(context.Background(), req)

		assert.NoError(t, err)
	})

	t.Run("email already registered", func(t *testing.T) {
		svc, mockRepo := newService(t)

		mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		err := svc.Register(context.Background(), req)

		assert.Error(t, err)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Run("valid credentials return a token pair", func(t *testing.T) {
		svc, mockRepo := newService(t)

		user := activeUser(t, "secret-password")
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)

		res, err := svc.Login(context.Background(), dto.LoginRequest{
			Email:    user.Email,
			Password: "secret-password",
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEmpty(t, res.RefreshToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mockRepo := newService(t)

		user := activeUser(t, "secret-password")
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)

		_, err := svc.Login(context.Background(), dto.LoginRequest{
			Email:    user.Email,
			Password: "wrong-password",
		})

		assert.Error(t, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, mockRepo := newService(t)

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)

		_, err := svc.Login(context.Background(), dto.LoginRequest{
			Email:    "nobody@example.com",
			Password: "secret-password",
		})

		assert.Error(t, err)
	})

	t.Run("deactivated account", func(t *testing.T) {
		svc, mockRepo := newService(t)

		user := activeUser(t, "secret-password")
		user.Active = false
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)

		_, err := svc.Login(context.Background(), dto.LoginRequest{
			Email:    user.Email,
			Password: "secret-password",
		})

		assert.Error(t, err)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	t.Run("refresh from a fresh login", func(t *testing.T) {
		svc, mockRepo := newService(t)

		user := activeUser(t, "secret-password")
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)

		login, err := svc.Login(context.Background(), dto.LoginRequest{
			Email:    user.Email,
			Password: "secret-password",
		})
		assert.NoError(t, err)

		res, err := svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{
			RefreshToken: login.RefreshToken,
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.RefreshToken(context.Background(), dto.RefreshTokenRequest{
			RefreshToken: "not-a-token",
		})

		assert.Error(t, err)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	t.Run("successful change", func(t *testing.T) {
		svc, mockRepo := newService(t)

		user := activeUser(t, "old-password")
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
		mockRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		err := svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{
			CurrentPassword: "old-password",
			NewPassword:     "new-password",
		}, user.ID)

		assert.NoError(t, err)
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc, mockRepo := newService(t)

		user := activeUser(t, "old-password")
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)

		err := svc.ChangePassword(context.Background(), dto.ChangePasswordRequest{
			CurrentPassword: "not-the-password",
			NewPassword:     "new-password",
		}, user.ID)

		assert.Error(t, err)
	})
}
