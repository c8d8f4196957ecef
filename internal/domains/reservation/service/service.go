package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Reservation=MockReservationService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quicktable/config"
	"quicktable/infras/otel"
	nModel "quicktable/internal/domains/notification/model"
	nRepo "quicktable/internal/domains/notification/repository"
	"quicktable/internal/domains/reservation/model"
	"quicktable/internal/domains/reservation/model/dto"
	"quicktable/internal/domains/reservation/repository"
	tableModel "quicktable/internal/domains/table/model"
	tableRepo "quicktable/internal/domains/table/repository"
	uService "quicktable/internal/domains/user/service"
	"quicktable/shared"
	"quicktable/shared/cache"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/shared/failure"
	"quicktable/shared/lock"
	"quicktable/shared/timezone"
	"quicktable/shared/window"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetReservation    = "reservation:get"
	cacheGetAllReservation = "reservation:gets"
	cacheCountReservation  = "reservation:count"

	// cacheAvailableTable mirrors the prefix the table service caches
	// availability under; a new booking changes that answer.
	cacheAvailableTable = "table:available"
)

// cancelLeadTime is the minimum notice for a cancellation, measured from now
// to the reservation start.
const cancelLeadTime = 2 * time.Hour

// Sentinel failures, comparable with errors.Is.
var (
	ErrTableNotFound       = failure.NotFound("table not found")
	ErrUserNotFound        = failure.NotFound("user not found")
	ErrReservationNotFound = failure.NotFound("reservation not found")
	ErrTableConflict       = failure.Conflict("table is already reserved for an overlapping time window")
	ErrCapacityExceeded    = failure.BadRequestFromString("party size exceeds table capacity")
	ErrInvalidState        = failure.UnprocessableEntity("reservation is not in a valid state for this operation")
	ErrCancelTooLate       = failure.BadRequestFromString("reservations can only be cancelled at least 2 hours before start")
)

type Reservation interface {
	Create(ctx context.Context, req dto.CreateReservationRequest) (dto.ReservationResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetReservationsResponse, error)
	Get(ctx context.Context, id string) (dto.ReservationResponse, error)
	GetByCode(ctx context.Context, code string) (dto.ReservationResponse, error)
	ListByUser(ctx context.Context, userID, status string, params gDto.QueryParams) (dto.GetReservationsResponse, error)
	Update(ctx context.Context, req dto.UpdateReservationRequest, id string) error
	Confirm(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string, req dto.CancelReservationRequest) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo          repository.Reservation
	tables        tableRepo.Table
	users         uService.User
	notifications nRepo.Notification
	cfg           *config.Config
	cache         cache.RedisCache
	otel          otel.Otel
	locks         *lock.KeyedMutex
}

func New(
	repo repository.Reservation,
	tables tableRepo.Table,
	users uService.User,
	notifications nRepo.Notification,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Reservation {
	return &serviceImpl{
		repo:          repo,
		tables:        tables,
		users:         users,
		notifications: notifications,
		cfg:           cfg,
		cache:         cache,
		otel:          otel,
		locks:         lock.NewKeyedMutex(),
	}
}

// Create books a table. The overlap and capacity checks run inside the
// booking transaction while the table row is locked, so two concurrent
// requests for the same window can never both commit. The confirmation and
// reminder notifications are recorded in that same transaction and delivered
// later by the sweep.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateReservationRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	clock, err := window.ParseClock(req.Time)
	if err != nil {
		return res, failure.BadRequestFromString("invalid reservation time") // nolint:wrapcheck
	}

	date, err := timezone.Parse(constant.DateOnlyFormat, req.Date)
	if err != nil {
		return res, failure.BadRequestFromString("invalid reservation date") // nolint:wrapcheck
	}

	now := timezone.Now()

	startsAt := clock.At(date)
	if startsAt.Before(now) {
		return res, failure.BadRequestFromString("reservation time is in the past") // nolint:wrapcheck
	}

	// Booking on behalf of another user is a staff walk-in flow; regular
	// callers always book under their own account.
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	userID := actor
	if req.UserID != constant.Empty && (role == constant.RoleAdmin || role == constant.RoleStaff) {
		userID = req.UserID
	}

	exist, err := s.users.Exist(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("failed to check user existence")

		return res, fmt.Errorf("failed to check user existence: %w", err)
	}

	if !exist {
		return res, ErrUserNotFound // nolint:wrapcheck
	}

	reservation := req.ToModel(date, userID, actor)

	confirmation := nModel.NewConfirmation(reservation, now)

	reminders, err := nModel.BuildReminders(reservation, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to build reminders")

		return res, fmt.Errorf("failed to build reminders: %w", err)
	}

	requested := window.Booking(clock)

	guard := func(table tableModel.Table, active []model.Reservation) error {
		if !table.Bookable() {
			return ErrInvalidState // nolint:wrapcheck
		}

		if req.Guests > table.Capacity {
			return ErrCapacityExceeded // nolint:wrapcheck
		}

		for _, other := range active {
			otherClock, err := other.Clock()
			if err != nil {
				log.Error().Err(err).Str("reservation", other.ID).Msg("skipping reservation with malformed time")

				continue
			}

			if window.Booking(otherClock).Overlaps(requested) {
				return ErrTableConflict // nolint:wrapcheck
			}
		}

		return nil
	}

	outbox := func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.notifications.InsertTx(ctx, tx, confirmation); err != nil {
			return fmt.Errorf("failed to record confirmation: %w", err)
		}

		for _, reminder := range reminders {
			if err := s.notifications.InsertTx(ctx, tx, reminder); err != nil {
				return fmt.Errorf("failed to record reminder: %w", err)
			}
		}

		return nil
	}

	s.locks.Lock(reservation.TableID)
	defer s.locks.Unlock(reservation.TableID)

	if err = s.repo.InsertGuarded(ctx, reservation, guard, outbox); err != nil {
		if errors.Is(err, repository.ErrTableMissing) {
			return res, ErrTableNotFound // nolint:wrapcheck
		}

		return res, err
	}

	s.applyPostBooking(ctx, reservation, now, startsAt)

	res.FromModel(reservation)

	s.invalidate(ctx, reservation.ID)

	return res, nil
}

// applyPostBooking runs the best-effort side effects of a committed booking.
// Failures are logged and never undo the reservation; the reconciler and
// sweep repair drift later.
func (s *serviceImpl) applyPostBooking(ctx context.Context, reservation model.Reservation, now, startsAt time.Time) {
	if err := s.users.RecordCreated(ctx, reservation.UserID); err != nil {
		log.Error().Err(err).Str("user", reservation.UserID).Msg("failed to record reservation on user")
	}

	sameDay := startsAt.Format(constant.DateOnlyFormat) == now.Format(constant.DateOnlyFormat)

	gap := startsAt.Sub(now)
	if gap < 0 {
		gap = -gap
	}

	if !sameDay || gap > cancelLeadTime {
		return
	}

	updatedFields := map[string]any{
		tableModel.FieldStatus:   tableModel.StatusReserved,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: reservation.CreatedBy,
	}

	filter := shared.FilterByID(reservation.TableID, tableModel.FieldID, tableModel.TableName)

	if err := s.tables.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Str("table", reservation.TableID).Msg("failed to mark table reserved")
	}
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllReservation, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return res, fmt.Errorf("failed to get reservations: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservations to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetReservation, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation")

		return res, nil
	}

	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return res, ErrReservationNotFound // nolint:wrapcheck
	}

	res.FromModel(reservation)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetByCode(ctx context.Context, code string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetByCode")
	defer scope.End()
	defer scope.TraceIfError(err)

	reservation, err := s.repo.Get(ctx, codeFilter(code))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation by code")

		return res, fmt.Errorf("failed to get reservation by code: %w", err)
	}

	if reservation.ID == constant.Empty {
		return res, ErrReservationNotFound // nolint:wrapcheck
	}

	res.FromModel(reservation)

	return res, nil
}

func (s *serviceImpl) ListByUser(ctx context.Context, userID, status string, params gDto.QueryParams) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListByUser")
	defer scope.End()
	defer scope.TraceIfError(err)

	filters := []any{
		gDto.Filter{
			Field:    model.FieldUserID,
			Value:    userID,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		},
	}

	if status != constant.Empty {
		filters = append(filters, gDto.Filter{
			Field:    model.FieldStatus,
			Value:    status,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		})
	}

	if params.SortBy == constant.Empty {
		params.SortBy = model.FieldDate
		params.SortDir = gDto.SortDirDesc
	}

	return s.GetAll(ctx, params, gDto.FilterGroup{Filters: filters})
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateReservationRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	current, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return fmt.Errorf("failed to get reservation: %w", err)
	}

	if current.ID == constant.Empty {
		return ErrReservationNotFound // nolint:wrapcheck
	}

	if !current.Active() {
		return ErrInvalidState // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, actor)

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update reservation")

		return fmt.Errorf("failed to update reservation: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) Confirm(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Confirm")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	reservation, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return ErrReservationNotFound // nolint:wrapcheck
	}

	if reservation.Status != model.StatusPending {
		return ErrInvalidState // nolint:wrapcheck
	}

	updatedFields := map[string]any{
		model.FieldStatus:        model.StatusConfirmed,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: actor,
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to confirm reservation")

		return fmt.Errorf("failed to confirm reservation: %w", err)
	}

	if err := s.notifications.Insert(ctx, nModel.NewConfirmation(reservation, timezone.Now())); err != nil {
		log.Error().Err(err).Str("reservation", id).Msg("failed to record confirmation notification")
	}

	s.invalidate(ctx, id)

	return nil
}

// Complete closes out a visit and awards loyalty points at the fixed
// per-guest rate. The award is recorded on the reservation and pushed to the
// user's balance.
func (s *serviceImpl) Complete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Complete")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	reservation, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return ErrReservationNotFound // nolint:wrapcheck
	}

	if reservation.Status != model.StatusConfirmed {
		return ErrInvalidState // nolint:wrapcheck
	}

	points := reservation.Guests * model.PointsPerGuest

	updatedFields := map[string]any{
		model.FieldStatus:        model.StatusCompleted,
		model.FieldPointsEarned:  points,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: actor,
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to complete reservation")

		return fmt.Errorf("failed to complete reservation: %w", err)
	}

	if err := s.users.RecordCompleted(ctx, reservation.UserID, points); err != nil {
		log.Error().Err(err).Str("user", reservation.UserID).Msg("failed to record completion on user")
	}

	s.invalidate(ctx, id)

	return nil
}

// Cancel releases a booking with at least 2 hours notice. The table status
// is left alone; the reconciler frees it if nothing else covers the slot.
func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelReservationRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	reservation, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return ErrReservationNotFound // nolint:wrapcheck
	}

	if !reservation.Active() {
		return ErrInvalidState // nolint:wrapcheck
	}

	startsAt, err := reservation.StartsAt()
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve reservation start")

		return fmt.Errorf("failed to resolve reservation start: %w", err)
	}

	now := timezone.Now()

	if now.Add(cancelLeadTime).After(startsAt) {
		return ErrCancelTooLate // nolint:wrapcheck
	}

	updatedFields := map[string]any{
		model.FieldStatus:             model.StatusCancelled,
		model.FieldCancellationReason: req.Reason,
		model.FieldCancelledAt:        now,
		model.FieldCancelledBy:        actor,
		constant.FieldModifiedAt:      now,
		constant.FieldModifiedBy:      actor,
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to cancel reservation")

		return fmt.Errorf("failed to cancel reservation: %w", err)
	}

	if err := s.users.RecordCancelled(ctx, reservation.UserID); err != nil {
		log.Error().Err(err).Str("user", reservation.UserID).Msg("failed to record cancellation on user")
	}

	if err := s.notifications.Insert(ctx, nModel.NewCancellation(reservation, now)); err != nil {
		log.Error().Err(err).Str("reservation", id).Msg("failed to record cancellation notification")
	}

	s.invalidate(ctx, id)

	return nil
}

// Delete removes the row outright. Admin escape hatch: counters, points, and
// notifications already produced are deliberately left untouched.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check reservation existence")

		return fmt.Errorf("failed to check reservation existence: %w", err)
	}

	if !exist {
		return ErrReservationNotFound // nolint:wrapcheck
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete reservation")

		return fmt.Errorf("failed to delete reservation: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete reservation cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
		shared.InvalidateCaches(c, s.cache, cacheAvailableTable)
	}()
}

func codeFilter(code string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldCode,
				Value:    code,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}
}
