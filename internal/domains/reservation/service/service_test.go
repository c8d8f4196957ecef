package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"quicktable/config"
	"quicktable/infras/otel/mocks"
	nMocks "quicktable/internal/domains/notification/mocks"
	rMocks "quicktable/internal/domains/reservation/mocks"
	"quicktable/internal/domains/reservation/model"
	"quicktable/internal/domains/reservation/model/dto"
	"quicktable/internal/domains/reservation/repository"
	"quicktable/internal/domains/reservation/service"
	tableMocks "quicktable/internal/domains/table/mocks"
	tableModel "quicktable/internal/domains/table/model"
	uMocks "quicktable/internal/domains/user/mocks"
	cacheMocks "quicktable/shared/cache/mocks"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/shared/timezone"
)

type fixture struct {
	svc           service.Reservation
	repo          *rMocks.MockReservation
	tables        *tableMocks.MockTable
	users         *uMocks.MockUserService
	notifications *nMocks.MockNotification
	cache         *cacheMocks.MockRedisCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		repo:          rMocks.NewMockReservation(ctrl),
		tables:        tableMocks.NewMockTable(ctrl),
		users:         uMocks.NewMockUserService(ctrl),
		notifications: nMocks.NewMockNotification(ctrl),
		cache:         cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	f.svc = service.New(f.repo, f.tables, f.users, f.notifications, cfg, f.cache, mocks.NewOtel())

	// Cache writes run on goroutines after the call returns; tolerate any.
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

// authedContext mimics what the auth middleware stores for a logged-in caller.
func authedContext(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func futureRequest(tableID string) dto.CreateReservationRequest {
	date := timezone.Now().AddDate(0, 0, 7)

	return dto.CreateReservationRequest{
		TableID:       tableID,
		UserID:        "user-1",
		CustomerName:  "Dina Rahma",
		CustomerEmail: "dina@example.com",
		CustomerPhone: "+6281234567890",
		Date:          date.Format(constant.DateOnlyFormat),
		Time:          "19:00",
		Guests:        4,
	}
}

// guardedInsert wires the mock so the guard closure actually runs against the
// given table and active set, the way the real transaction would.
func guardedInsert(f fixture, table tableModel.Table, active []model.Reservation) *gomock.Call {
	return f.repo.EXPECT().InsertGuarded(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ model.Reservation, guard repository.GuardFunc, _ repository.OutboxFunc) error {
			return guard(table, active)
		})
}

func TestReservationService_Create(t *testing.T) {
	table := tableModel.Table{ID: "table-6", Capacity: 4, Status: tableModel.StatusAvailable}

	t.Run("successful booking", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), "user-1").Return(true, nil)
		guardedInsert(f, table, nil)
		f.users.EXPECT().RecordCreated(gomock.Any(), "user-1").Return(nil)

		res, err := f.svc.Create(authedContext("user-1", constant.RoleUser), futureRequest("table-6"))

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, res.Status)
		assert.NotEmpty(t, res.Code)
	})

	t.Run("overlapping hold is rejected", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), "user-1").Return(true, nil)

		active := []model.Reservation{{ID: "res-1", TableID: "table-6", Time: "20:30", Status: model.StatusConfirmed}}
		guardedInsert(f, table, active)

		_, err := f.svc.Create(authedContext("user-1", constant.RoleUser), futureRequest("table-6"))

		assert.ErrorIs(t, err, service.ErrTableConflict)
	})

	t.Run("touching windows do not conflict", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), "user-1").Return(true, nil)

		// 23:00 holds [21:00, 24:00); the 19:00 hold ends at 21:00 exactly.
		active := []model.Reservation{{ID: "res-1", TableID: "table-6", Time: "23:00", Status: model.StatusConfirmed}}
		guardedInsert(f, table, active)
		f.users.EXPECT().RecordCreated(gomock.Any(), "user-1").Return(nil)

		_, err := f.svc.Create(authedContext("user-1", constant.RoleUser), futureRequest("table-6"))

		assert.NoError(t, err)
	})

	t.Run("party larger than the table", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), "user-1").Return(true, nil)
		guardedInsert(f, tableModel.Table{ID: "table-6", Capacity: 2, Status: tableModel.StatusAvailable}, nil)

		_, err := f.svc.Create(authedContext("user-1", constant.RoleUser), futureRequest("table-6"))

		assert.ErrorIs(t, err, service.ErrCapacityExceeded)
	})

	t.Run("table under maintenance", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), "user-1").Return(true, nil)
		guardedInsert(f, tableModel.Table{ID: "table-6", Capacity: 4, Status: tableModel.StatusMaintenance}, nil)

		_, err := f.svc.Create(authedContext("user-1", constant.RoleUser), futureRequest("table-6"))

		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("unknown table", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), "user-1").Return(true, nil)
		f.repo.EXPECT().InsertGuarded(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(repository.ErrTableMissing)

		_, err := f.svc.Create(authedContext("user-1", constant.RoleUser), futureRequest("table-9"))

		assert.ErrorIs(t, err, service.ErrTableNotFound)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)

		// Nothing may reach the booking transaction for a user that does
		// not exist; InsertGuarded has no expectation on purpose.
		f.users.EXPECT().Exist(gomock.Any(), "ghost-user").Return(false, nil)

		_, err := f.svc.Create(authedContext("ghost-user", constant.RoleUser), futureRequest("table-6"))

		assert.ErrorIs(t, err, service.ErrUserNotFound)
	})

	t.Run("reservation in the past", func(t *testing.T) {
		f := newFixture(t)

		req := futureRequest("table-6")
		req.Date = timezone.Now().AddDate(0, 0, -1).Format(constant.DateOnlyFormat)

		_, err := f.svc.Create(authedContext("user-1", constant.RoleUser), req)

		assert.Error(t, err)
	})
}

// TestReservationService_Create_OnBehalf covers the walk-in override: only
// staff and admins may book under a user id other than their own.
func TestReservationService_Create_OnBehalf(t *testing.T) {
	table := tableModel.Table{ID: "table-6", Capacity: 4, Status: tableModel.StatusAvailable}

	bookedUser := func(f fixture, table tableModel.Table) *string {
		var got string

		f.repo.EXPECT().InsertGuarded(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, res model.Reservation, guard repository.GuardFunc, _ repository.OutboxFunc) error {
				got = res.UserID

				return guard(table, nil)
			})

		return &got
	}

	t.Run("customers always book their own account", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), "user-1").Return(true, nil)
		got := bookedUser(f, table)
		f.users.EXPECT().RecordCreated(gomock.Any(), "user-1").Return(nil)

		req := futureRequest("table-6")
		req.UserID = "user-2"

		_, err := f.svc.Create(authedContext("user-1", constant.RoleUser), req)

		assert.NoError(t, err)
		assert.Equal(t, "user-1", *got)
	})

	t.Run("staff walk-in books on behalf", func(t *testing.T) {
		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), "user-2").Return(true, nil)
		got := bookedUser(f, table)
		f.users.EXPECT().RecordCreated(gomock.Any(), "user-2").Return(nil)

		req := futureRequest("table-6")
		req.UserID = "user-2"

		_, err := f.svc.Create(authedContext("staff-9", constant.RoleStaff), req)

		assert.NoError(t, err)
		assert.Equal(t, "user-2", *got)
	})
}

// TestReservationService_Create_Concurrent races two bookings for the same
// table and window. The mock mimics the row lock: the first committed
// reservation joins the active set the second guard sees, so exactly one can
// win.
func TestReservationService_Create_Concurrent(t *testing.T) {
	f := newFixture(t)

	table := tableModel.Table{ID: "table-6", Capacity: 4, Status: tableModel.StatusAvailable}

	var (
		mu        sync.Mutex
		committed []model.Reservation
	)

	f.repo.EXPECT().InsertGuarded(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, res model.Reservation, guard repository.GuardFunc, _ repository.OutboxFunc) error {
			mu.Lock()
			defer mu.Unlock()

			if err := guard(table, committed); err != nil {
				return err
			}

			committed = append(committed, res)

			return nil
		}).Times(2)

	f.users.EXPECT().Exist(gomock.Any(), "user-1").Return(true, nil).Times(2)
	f.users.EXPECT().RecordCreated(gomock.Any(), "user-1").Return(nil).Times(1)

	errs := make(chan error, 2)

	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.svc.Create(authedContext("user-1", constant.RoleUser), futureRequest("table-6"))
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	var wins, conflicts int

	for err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			assert.ErrorIs(t, err, service.ErrTableConflict)
			conflicts++
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, committed, 1)
}

func reservationAt(start time.Time, status string) model.Reservation {
	return model.Reservation{
		ID:     "res-1",
		UserID: "user-1",
		Guests: 4,
		Date:   time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
		Time:   start.Format("15:04"),
		Status: status,
	}
}

func TestReservationService_Cancel(t *testing.T) {
	t.Run("with enough notice", func(t *testing.T) {
		f := newFixture(t)

		reservation := reservationAt(timezone.Now().Add(3*time.Hour), model.StatusConfirmed)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(reservation, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, model.StatusCancelled, fields[model.FieldStatus])
				assert.Equal(t, "change of plans", fields[model.FieldCancellationReason])

				return nil
			})
		f.users.EXPECT().RecordCancelled(gomock.Any(), "user-1").Return(nil)
		f.notifications.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

		err := f.svc.Cancel(context.Background(), "res-1", dto.CancelReservationRequest{Reason: "change of plans"})

		assert.NoError(t, err)
	})

	t.Run("too close to start", func(t *testing.T) {
		f := newFixture(t)

		reservation := reservationAt(timezone.Now().Add(time.Hour), model.StatusConfirmed)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(reservation, nil)

		err := f.svc.Cancel(context.Background(), "res-1", dto.CancelReservationRequest{})

		assert.ErrorIs(t, err, service.ErrCancelTooLate)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newFixture(t)

		reservation := reservationAt(timezone.Now().Add(3*time.Hour), model.StatusCancelled)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(reservation, nil)

		err := f.svc.Cancel(context.Background(), "res-1", dto.CancelReservationRequest{})

		assert.ErrorIs(t, err, service.ErrInvalidState)
	})
}

func TestReservationService_Complete(t *testing.T) {
	t.Run("awards points per guest", func(t *testing.T) {
		f := newFixture(t)

		reservation := reservationAt(timezone.Now().Add(-time.Hour), model.StatusConfirmed)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(reservation, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, model.StatusCompleted, fields[model.FieldStatus])
				assert.Equal(t, 40, fields[model.FieldPointsEarned])

				return nil
			})
		f.users.EXPECT().RecordCompleted(gomock.Any(), "user-1", 40).Return(nil)

		err := f.svc.Complete(context.Background(), "res-1")

		assert.NoError(t, err)
	})

	t.Run("only confirmed reservations complete", func(t *testing.T) {
		f := newFixture(t)

		reservation := reservationAt(timezone.Now(), model.StatusPending)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(reservation, nil)

		err := f.svc.Complete(context.Background(), "res-1")

		assert.ErrorIs(t, err, service.ErrInvalidState)
	})
}

func TestReservationService_Confirm(t *testing.T) {
	t.Run("pending becomes confirmed", func(t *testing.T) {
		f := newFixture(t)

		reservation := reservationAt(timezone.Now().Add(3*time.Hour), model.StatusPending)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(reservation, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.notifications.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

		err := f.svc.Confirm(context.Background(), "res-1")

		assert.NoError(t, err)
	})

	t.Run("confirming twice is rejected", func(t *testing.T) {
		f := newFixture(t)

		reservation := reservationAt(timezone.Now().Add(3*time.Hour), model.StatusConfirmed)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(reservation, nil)

		err := f.svc.Confirm(context.Background(), "res-1")

		assert.ErrorIs(t, err, service.ErrInvalidState)
	})

	t.Run("missing reservation", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Reservation{}, nil)

		err := f.svc.Confirm(context.Background(), "res-1")

		assert.ErrorIs(t, err, service.ErrReservationNotFound)
	})
}
