package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=User=MockUserService

import (
	"context"
	"fmt"
	"quicktable/config"
	"quicktable/infras/otel"
	"quicktable/internal/domains/user/model"
	"quicktable/internal/domains/user/model/dto"
	"quicktable/internal/domains/user/repository"
	"quicktable/shared"
	"quicktable/shared/cache"
	"quicktable/shared/constant"
	gDto "quicktable/shared/dto"
	"quicktable/shared/failure"
	"quicktable/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetUser    = "user:get"
	cacheGetAllUser = "user:gets"
	cacheCountUser  = "user:count"
)

type User interface {
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetUsersResponse, error)
	Get(ctx context.Context, id string) (dto.UserResponse, error)
	Exist(ctx context.Context, id string) (bool, error)
	UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest, id string) error
	Loyalty(ctx context.Context, id string) (dto.LoyaltyResponse, error)
	AddLoyaltyPoints(ctx context.Context, id string, points int) error
	RecordCreated(ctx context.Context, id string) error
	RecordCompleted(ctx context.Context, id string, points int) error
	RecordCancelled(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo  repository.User
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.User, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) User {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetUsersResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllUser, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for users")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count users")

		return res, fmt.Errorf("failed to count users: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get users")

		return res, fmt.Errorf("failed to get users: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save users to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetUser, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for user")

		return res, nil
	}

	user, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		return res, failure.NotFound("user not found") // nolint:wrapcheck
	}

	res.FromModel(user)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save user to cache")
		}
	}()

	return res, nil
}

// Exist reports whether a user row is present, without loading it.
func (s *serviceImpl) Exist(ctx context.Context, id string) (exist bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Exist")
	defer scope.End()
	defer scope.TraceIfError(err)

	exist, err = s.repo.Exist(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return false, fmt.Errorf("failed to check if user exists: %w", err)
	}

	return exist, nil
}

func (s *serviceImpl) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateProfile")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateProfileRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return fmt.Errorf("failed to check if user exists: %w", err)
	}

	if !exist {
		return failure.NotFound("user not found") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, id)

	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update user")

		return fmt.Errorf("failed to update user: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) Loyalty(ctx context.Context, id string) (res dto.LoyaltyResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Loyalty")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		return res, failure.NotFound("user not found") // nolint:wrapcheck
	}

	res.FromModel(user)

	return res, nil
}

// AddLoyaltyPoints adds to the balance and recomputes the tier from the new
// total. The tier is always derived from the balance, so awards arriving in
// any order land on the same tier.
func (s *serviceImpl) AddLoyaltyPoints(ctx context.Context, id string, points int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".AddLoyaltyPoints")
	defer scope.End()
	defer scope.TraceIfError(err)

	if points <= 0 {
		return nil
	}

	balance, err := s.repo.AddPoints(ctx, id, points)
	if err != nil {
		log.Error().Err(err).Str("user", id).Msg("failed to add loyalty points")

		return fmt.Errorf("failed to add loyalty points: %w", err)
	}

	tier := model.TierFor(balance)

	updatedFields := map[string]any{
		model.FieldTier:          tier,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: id,
	}

	if err = s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("user", id).Msg("failed to update loyalty tier")

		return fmt.Errorf("failed to update loyalty tier: %w", err)
	}

	log.Info().Str("user", id).Int("points", points).Int("balance", balance).Str("tier", tier).Msg("loyalty points awarded")

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) RecordCreated(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RecordCreated")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.repo.BumpStats(ctx, id, 1, 0, 0); err != nil {
		log.Error().Err(err).Str("user", id).Msg("failed to record created reservation")

		return fmt.Errorf("failed to record created reservation: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

// RecordCompleted bumps the completed counter, stamps the visit, and awards
// the points earned by the reservation.
func (s *serviceImpl) RecordCompleted(ctx context.Context, id string, points int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RecordCompleted")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.repo.BumpStats(ctx, id, 0, 1, 0); err != nil {
		log.Error().Err(err).Str("user", id).Msg("failed to record completed reservation")

		return fmt.Errorf("failed to record completed reservation: %w", err)
	}

	updatedFields := map[string]any{
		model.FieldLastVisit:     timezone.Now(),
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: id,
	}

	if err = s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("user", id).Msg("failed to stamp last visit")

		return fmt.Errorf("failed to stamp last visit: %w", err)
	}

	return s.AddLoyaltyPoints(ctx, id, points)
}

func (s *serviceImpl) RecordCancelled(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RecordCancelled")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.repo.BumpStats(ctx, id, 0, 0, 1); err != nil {
		log.Error().Err(err).Str("user", id).Msg("failed to record cancelled reservation")

		return fmt.Errorf("failed to record cancelled reservation: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetUser, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete user from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllUser)
		shared.InvalidateCaches(c, s.cache, cacheCountUser)
	}()
}
