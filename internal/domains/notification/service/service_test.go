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
	nMocks "quicktable/internal/domains/notification/mocks"
	"quicktable/internal/domains/notification/model"
	"quicktable/internal/domains/notification/service"
	rMocks "quicktable/internal/domains/reservation/mocks"
	rModel "quicktable/internal/domains/reservation/model"
	gDto "quicktable/shared/dto"
)

func newService(t *testing.T) (service.Notification, *nMocks.MockNotification, *rMocks.MockReservation, *nMocks.MockDispatcher) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := nMocks.NewMockNotification(ctrl)
	mockReservations := rMocks.NewMockReservation(ctrl)
	mockDispatcher := nMocks.NewMockDispatcher(ctrl)

	cfg := &config.Config{}

	svc := service.New(mockRepo, mockReservations, mockDispatcher, cfg, mocks.NewOtel())

	return svc, mockRepo, mockReservations, mockDispatcher
}

func dueNotification(id, notifType string) model.Notification {
	return model.Notification{
		ID:            id,
		ReservationID: "res-1",
		UserID:        "user-1",
		Type:          notifType,
		Title:         "Reservation reminder",
		ScheduledFor:  time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC),
	}
}

func TestBuildReminders(t *testing.T) {
	reservation := rModel.Reservation{
		ID:     "res-1",
		Code:   "RES-ABCD1234",
		UserID: "user-1",
		Date:   time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Time:   "19:00",
		Status: rModel.StatusConfirmed,
	}

	t.Run("both reminders scheduled when reservation is far out", func(t *testing.T) {
		now := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)

		reminders, err := model.BuildReminders(reservation, now)
		assert.NoError(t, err)
		assert.Len(t, reminders, 2)
		assert.Equal(t, model.TypeReminder24h, reminders[0].Type)
		assert.Equal(t, time.Date(2025, 6, 9, 19, 0, 0, 0, time.UTC), reminders[0].ScheduledFor)
		assert.Equal(t, model.TypeReminder2h, reminders[1].Type)
		assert.Equal(t, time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC), reminders[1].ScheduledFor)
	})

	t.Run("past 24h slot is skipped", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

		reminders, err := model.BuildReminders(reservation, now)
		assert.NoError(t, err)
		assert.Len(t, reminders, 1)
		assert.Equal(t, model.TypeReminder2h, reminders[0].Type)
	})

	t.Run("no reminders for an imminent reservation", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 18, 30, 0, 0, time.UTC)

		reminders, err := model.BuildReminders(reservation, now)
		assert.NoError(t, err)
		assert.Empty(t, reminders)
	})

	t.Run("malformed stored time is an error", func(t *testing.T) {
		broken := reservation
		broken.Time = "25:00"

		_, err := model.BuildReminders(broken, time.Now())
		assert.Error(t, err)
	})
}

func TestNotificationService_ProcessDue(t *testing.T) {
	now := time.Date(2025, 6, 10, 17, 5, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(repo *nMocks.MockNotification, reservations *rMocks.MockReservation, dispatcher *nMocks.MockDispatcher)
		wantSent  int
		wantErr   bool
	}{
		{
			name: "nothing due",
			setupMock: func(repo *nMocks.MockNotification, reservations *rMocks.MockReservation, dispatcher *nMocks.MockDispatcher) {
				repo.EXPECT().ListDue(gomock.Any(), now, gomock.Any()).Return(nil, nil)
			},
			wantSent: 0,
		},
		{
			name: "reminder dispatched, marked sent and flagged on reservation",
			setupMock: func(repo *nMocks.MockNotification, reservations *rMocks.MockReservation, dispatcher *nMocks.MockDispatcher) {
				due := dueNotification("notif-1", model.TypeReminder2h)

				repo.EXPECT().ListDue(gomock.Any(), now, gomock.Any()).Return([]model.Notification{due}, nil)
				dispatcher.EXPECT().Send(gomock.Any(), due).Return(nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, true, fields[model.FieldSent])
						assert.NotNil(t, fields[model.FieldSentAt])

						return nil
					})
				reservations.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
						assert.Equal(t, true, fields[rModel.FieldReminder2hSent])

						return nil
					})
			},
			wantSent: 1,
		},
		{
			name: "confirmation does not touch the reservation row",
			setupMock: func(repo *nMocks.MockNotification, reservations *rMocks.MockReservation, dispatcher *nMocks.MockDispatcher) {
				due := dueNotification("notif-1", model.TypeConfirmation)

				repo.EXPECT().ListDue(gomock.Any(), now, gomock.Any()).Return([]model.Notification{due}, nil)
				dispatcher.EXPECT().Send(gomock.Any(), due).Return(nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
			wantSent: 1,
		},
		{
			name: "failed dispatch leaves the row unsent for the next sweep",
			setupMock: func(repo *nMocks.MockNotification, reservations *rMocks.MockReservation, dispatcher *nMocks.MockDispatcher) {
				failing := dueNotification("notif-1", model.TypeReminder24h)
				passing := dueNotification("notif-2", model.TypeConfirmation)

				repo.EXPECT().ListDue(gomock.Any(), now, gomock.Any()).Return([]model.Notification{failing, passing}, nil)
				dispatcher.EXPECT().Send(gomock.Any(), failing).Return(errors.New("broker unavailable"))
				dispatcher.EXPECT().Send(gomock.Any(), passing).Return(nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
			},
			wantSent: 1,
		},
		{
			name: "listing error aborts the sweep",
			setupMock: func(repo *nMocks.MockNotification, reservations *rMocks.MockReservation, dispatcher *nMocks.MockDispatcher) {
				repo.EXPECT().ListDue(gomock.Any(), now, gomock.Any()).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockReservations, mockDispatcher := newService(t)
			tt.setupMock(mockRepo, mockReservations, mockDispatcher)

			sent, err := svc.ProcessDue(context.Background(), now)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantSent, sent)
		})
	}
}

func TestNotificationService_ListByUser(t *testing.T) {
	svc, mockRepo, _, _ := newService(t)

	models := []model.Notification{
		dueNotification("notif-1", model.TypeConfirmation),
		dueNotification("notif-2", model.TypeReminder24h),
	}

	mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
	mockRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Notification, error) {
			assert.Equal(t, model.FieldScheduledFor, params.SortBy)

			return models, nil
		})

	res, err := svc.ListByUser(context.Background(), "user-1", gDto.QueryParams{Limit: 10})

	assert.NoError(t, err)
	assert.Len(t, res.Notifications, 2)
	assert.Equal(t, 2, res.TotalData)
}
