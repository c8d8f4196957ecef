package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Table=MockTableService

import (
	"context"
	"fmt"
	"time"

	"quicktable/config"
	"quicktable/infras/otel"
	rRepo "quicktable/internal/domains/reservation/repository"
	"quicktable/internal/domains/table/model"
	"quicktable/internal/domains/table/model/dto"
	"quicktable/internal/domains/table/repository"
	"quicktable/shared"
	"quicktable/shared/cache"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/shared/failure"
	"quicktable/shared/timezone"
	"quicktable/shared/window"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetTable       = "table:get"
	cacheGetAllTable    = "table:gets"
	cacheCountTable     = "table:count"
	cacheAvailableTable = "table:available"
)

// reconcileActor is recorded as the modifier on rows reset by the sweep.
const reconcileActor = "reconciler"

type Table interface {
	Create(ctx context.Context, req dto.CreateTableRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetTablesResponse, error)
	Get(ctx context.Context, id string) (dto.TableResponse, error)
	Update(ctx context.Context, req dto.UpdateTableRequest, id string) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	FindAvailable(ctx context.Context, req dto.AvailableTablesRequest) (dto.AvailableTablesResponse, error)
	Stats(ctx context.Context) (model.Stats, error)
	ReconcileStatuses(ctx context.Context, now time.Time) (int, error)
}

type serviceImpl struct {
	repo         repository.Table
	reservations rRepo.Reservation
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
}

func New(repo repository.Table, reservations rRepo.Reservation, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Table {
	return &serviceImpl{
		repo:         repo,
		reservations: reservations,
		cfg:          cfg,
		cache:        cache,
		otel:         otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateTableRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	taken, err := s.repo.Exist(ctx, numberFilter(req.TableNumber))
	if err != nil {
		log.Error().Err(err).Msg("failed to check table number uniqueness")

		return fmt.Errorf("failed to check table number uniqueness: %w", err)
	}

	if taken {
		return failure.Conflict("table number already in use") // nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, req.ToModel(user)); err != nil {
		return err
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllTable)
		shared.InvalidateCaches(c, s.cache, cacheCountTable)
		shared.InvalidateCaches(c, s.cache, cacheAvailableTable)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetTablesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllTable, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for tables")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count tables")

		return res, fmt.Errorf("failed to count tables: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get tables")

		return res, fmt.Errorf("failed to get tables: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save tables to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.TableResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetTable, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for table")

		return res, nil
	}

	table, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get table")

		return res, fmt.Errorf("failed to get table: %w", err)
	}

	if table.ID == constant.Empty {
		return res, failure.NotFound("table not found") // nolint:wrapcheck
	}

	res.FromModel(table)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save table to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateTableRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	current, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check table existence")

		return err
	}

	if current.ID == constant.Empty {
		return failure.NotFound("table not found") // nolint:wrapcheck
	}

	if req.TableNumber != nil && *req.TableNumber != current.TableNumber {
		taken, err := s.repo.Exist(ctx, numberFilter(*req.TableNumber))
		if err != nil {
			log.Error().Err(err).Msg("failed to check table number uniqueness")

			return fmt.Errorf("failed to check table number uniqueness: %w", err)
		}

		if taken {
			return failure.Conflict("table number already in use") // nolint:wrapcheck
		}
	}

	updatedFields := shared.TransformFields(req, user)

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update table")

		return fmt.Errorf("failed to update table: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) UpdateStatus(ctx context.Context, id, status string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check table existence")

		return fmt.Errorf("failed to check table existence: %w", err)
	}

	if !exist {
		return failure.NotFound("table not found") // nolint:wrapcheck
	}

	updatedFields := map[string]any{
		model.FieldStatus:        status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update table status")

		return fmt.Errorf("failed to update table status: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check table existence")

		return fmt.Errorf("failed to check table existence: %w", err)
	}

	if !exist {
		return failure.NotFound("table not found") // nolint:wrapcheck
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete table")

		return fmt.Errorf("failed to delete table: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

// FindAvailable lists bookable tables for a party at a date and time. A table
// qualifies when it seats the party, is not under maintenance, and none of
// its active reservations holds a window overlapping the requested one. The
// answer derives from the reservation set; the status column is not
// consulted beyond excluding maintenance.
func (s *serviceImpl) FindAvailable(ctx context.Context, req dto.AvailableTablesRequest) (res dto.AvailableTablesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".FindAvailable")
	defer scope.End()
	defer scope.TraceIfError(err)

	clock, err := window.ParseClock(req.Time)
	if err != nil {
		return res, failure.BadRequestFromString("invalid reservation time") // nolint:wrapcheck
	}

	if _, err = time.Parse(constant.DateOnlyFormat, req.Date); err != nil {
		return res, failure.BadRequestFromString("invalid reservation date") // nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKey(cacheAvailableTable, req.Date, req.Time, fmt.Sprint(req.Guests))

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for available tables")

		return res, nil
	}

	candidates, err := s.repo.GetAll(ctx,
		gDto.QueryParams{SortBy: model.FieldTableNumber, SortDir: gDto.SortDirAsc},
		candidateFilter(req.Guests),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to load candidate tables")

		return res, fmt.Errorf("failed to load candidate tables: %w", err)
	}

	active, err := s.reservations.ListActiveByDate(ctx, req.Date)
	if err != nil {
		log.Error().Err(err).Msg("failed to load reservations for date")

		return res, fmt.Errorf("failed to load reservations for date: %w", err)
	}

	requested := window.Booking(clock)

	busy := map[string]bool{}

	for _, reservation := range active {
		resClock, err := reservation.Clock()
		if err != nil {
			log.Error().Err(err).Str("reservation", reservation.ID).Msg("skipping reservation with malformed time")

			continue
		}

		if window.Booking(resClock).Overlaps(requested) {
			busy[reservation.TableID] = true
		}
	}

	available := make([]model.Table, 0, len(candidates))

	for _, table := range candidates {
		if !busy[table.ID] {
			available = append(available, table)
		}
	}

	res.FromModels(available, req.Date, clock.String(), req.Guests)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save available tables to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Stats(ctx context.Context) (res model.Stats, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Stats")
	defer scope.End()
	defer scope.TraceIfError(err)

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count tables by status")

		return res, fmt.Errorf("failed to count tables by status: %w", err)
	}

	for _, count := range counts {
		res.Total += count.Count

		switch count.Status {
		case model.StatusAvailable:
			res.Available = count.Count
		case model.StatusReserved:
			res.Reserved = count.Count
		case model.StatusOccupied:
			res.Occupied = count.Count
		case model.StatusMaintenance:
			res.Maintenance = count.Count
		}
	}

	if res.Total > 0 {
		res.OccupancyRate = float64(res.Reserved+res.Occupied) / float64(res.Total)
	}

	return res, nil
}

// ReconcileStatuses resets tables stuck in RESERVED or OCCUPIED when no
// active reservation holds a window covering the current time. Running it
// twice in a row is a no-op; rows already AVAILABLE are never touched.
func (s *serviceImpl) ReconcileStatuses(ctx context.Context, now time.Time) (reset int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ReconcileStatuses")
	defer scope.End()
	defer scope.TraceIfError(err)

	stale, err := s.repo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldStatus,
				Value:    []string{model.StatusReserved, model.StatusOccupied},
				Operator: gDto.FilterOperatorIn,
				Table:    model.TableName,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to load tables for reconciliation")

		return 0, fmt.Errorf("failed to load tables for reconciliation: %w", err)
	}

	if len(stale) == 0 {
		return 0, nil
	}

	active, err := s.reservations.ListActiveByDate(ctx, now.Format(constant.DateOnlyFormat))
	if err != nil {
		log.Error().Err(err).Msg("failed to load reservations for reconciliation")

		return 0, fmt.Errorf("failed to load reservations for reconciliation: %w", err)
	}

	nowClock := window.Clock(now.Hour()*60 + now.Minute())

	covered := map[string]bool{}

	for _, reservation := range active {
		clock, err := reservation.Clock()
		if err != nil {
			log.Error().Err(err).Str("reservation", reservation.ID).Msg("skipping reservation with malformed time")

			continue
		}

		if window.Booking(clock).Covers(nowClock) {
			covered[reservation.TableID] = true
		}
	}

	for _, table := range stale {
		if covered[table.ID] {
			continue
		}

		updatedFields := map[string]any{
			model.FieldStatus:        model.StatusAvailable,
			constant.FieldModifiedAt: timezone.Now(),
			constant.FieldModifiedBy: reconcileActor,
		}

		if err := s.repo.Update(ctx, updatedFields, shared.FilterByID(table.ID, model.FieldID, model.TableName)); err != nil {
			log.Error().Err(err).Str("table", table.ID).Msg("failed to reset table status")

			continue
		}

		reset++
	}

	if reset > 0 {
		log.Info().Int("reset", reset).Msg("reconciled stale table statuses")

		s.invalidate(ctx, constant.Empty)
	}

	return reset, nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetTable, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete table cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllTable)
		shared.InvalidateCaches(c, s.cache, cacheCountTable)
		shared.InvalidateCaches(c, s.cache, cacheAvailableTable)
	}()
}

func numberFilter(number int) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldTableNumber,
				Value:    number,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}
}

func candidateFilter(guests int) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldCapacity,
				Value:    guests,
				Operator: gDto.FilterOperatorGreaterEq,
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Value:    model.StatusMaintenance,
				Operator: gDto.FilterOperatorNotEq,
				Table:    model.TableName,
			},
		},
	}
}
