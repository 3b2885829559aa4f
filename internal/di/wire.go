//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"echochat/internal/chat/repository"
	"echochat/internal/chat/service"
	"echochat/internal/common"
	"echochat/internal/config"
	"echochat/internal/realtime"
	"echochat/internal/user"
)

// Declaration only, wire generates the real body.
func InitializeRealtimeService() (*Application, func(), error) {
	wire.Build(
		config.LoadConfig,
		common.NewLogger,
		ProvideTokenResolver,
		wire.Bind(new(common.TokenResolver), new(*common.JWTResolver)),
		ProvideDatabase,
		repository.NewMessageRepository,
		service.NewMessageService,
		user.NewFriendRepository,
		ProvideRoster,
		realtime.NewRegistry,
		ProvidePresenceTracker,
		ProvideTypingCoordinator,
		realtime.NewMessageRelay,
		realtime.NewGateway,
		realtime.NewAPI,
		common.AuthMiddleware,
		realtime.NewRouter,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}
