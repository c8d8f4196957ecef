//go:build wireinject
// +build wireinject

package di

import (
	"quicktable/config"
	"quicktable/infras/jwt"
	"quicktable/infras/kafka"
	"quicktable/infras/otel"
	"quicktable/infras/postgres"
	"quicktable/infras/redis"
	"quicktable/internal/jobs"
	"quicktable/shared/cache"
	"quicktable/transport/http"
	"quicktable/transport/http/middleware"
	"quicktable/transport/http/router"

	"github.com/google/wire"

	notificationDispatcher "quicktable/internal/domains/notification/dispatcher"
	notificationRepository "quicktable/internal/domains/notification/repository"
	notificationService "quicktable/internal/domains/notification/service"
	reservationRepository "quicktable/internal/domains/reservation/repository"
	reservationService "quicktable/internal/domains/reservation/service"
	tableRepository "quicktable/internal/domains/table/repository"
	tableService "quicktable/internal/domains/table/service"
	userRepository "quicktable/internal/domains/user/repository"
	userService "quicktable/internal/domains/user/service"

	authService "quicktable/internal/domains/auth/service"
	authHandler "quicktable/internal/handlers/auth"
	notificationHandler "quicktable/internal/handlers/notification"
	reservationHandler "quicktable/internal/handlers/reservation"
	tableHandler "quicktable/internal/handlers/table"
	userHandler "quicktable/internal/handlers/user"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuth,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var tableDomain = wire.NewSet(
	tableRepository.New,
	tableService.New,
)

var reservationDomain = wire.NewSet(
	reservationRepository.New,
	reservationService.New,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var notificationDomain = wire.NewSet(
	notificationRepository.New,
	notificationDispatcher.NewKafka,
	notificationService.New,
)

var authDomain = wire.NewSet(
	authService.New,
)

var domains = wire.NewSet(
	tableDomain,
	reservationDomain,
	userDomain,
	notificationDomain,
	authDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	tableHandler.New,
	reservationHandler.New,
	userHandler.New,
	notificationHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeJobs() *jobs.Runner {
	wire.Build(
		configurations,
		postgres.New,
		otel.New,
		redis.New,
		kafka.New,
		sharedHelpers,
		tableDomain,
		reservationRepository.New,
		notificationDomain,
		jobs.New,
	)

	return &jobs.Runner{}
}
