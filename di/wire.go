//go:build wireinject
// +build wireinject

package di

import (
	"innkeeper/config"
	"innkeeper/infras/jwt"
	"innkeeper/infras/otel"
	"innkeeper/infras/pdf"
	"innkeeper/infras/postgres"
	"innkeeper/infras/redis"
	"innkeeper/infras/s3"
	"innkeeper/permissions"
	"innkeeper/shared/cache"
	"innkeeper/shared/lock"
	"innkeeper/transport/http"
	"innkeeper/transport/http/middleware"
	"innkeeper/transport/http/router"

	"github.com/google/wire"

	authService "innkeeper/internal/domains/auth/service"
	billingRepository "innkeeper/internal/domains/billing/repository"
	billingService "innkeeper/internal/domains/billing/service"
	bookingRepository "innkeeper/internal/domains/booking/repository"
	bookingService "innkeeper/internal/domains/booking/service"
	roomRepository "innkeeper/internal/domains/room/repository"
	roomService "innkeeper/internal/domains/room/service"
	settingsRepository "innkeeper/internal/domains/settings/repository"
	settingsService "innkeeper/internal/domains/settings/service"
	userRepository "innkeeper/internal/domains/user/repository"
	userService "innkeeper/internal/domains/user/service"

	authHandler "innkeeper/internal/handlers/auth"
	billingHandler "innkeeper/internal/handlers/billing"
	bookingHandler "innkeeper/internal/handlers/booking"
	roomHandler "innkeeper/internal/handlers/room"
	settingsHandler "innkeeper/internal/handlers/settings"
	userHandler "innkeeper/internal/handlers/user"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	pdf.NewRenderer,
	wire.Bind(new(billingService.Renderer), new(*pdf.Renderer)),
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	lock.NewRedisLocker,
)

var authDomain = wire.NewSet(
	userRepository.New,
	userService.New,
	authService.New,
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var billingDomain = wire.NewSet(
	billingRepository.New,
	billingService.New,
)

var settingsDomain = wire.NewSet(
	settingsRepository.New,
	settingsService.New,
)

var domains = wire.NewSet(
	authDomain,
	roomDomain,
	bookingDomain,
	billingDomain,
	settingsDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	roomHandler.New,
	bookingHandler.New,
	billingHandler.New,
	settingsHandler.New,
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
