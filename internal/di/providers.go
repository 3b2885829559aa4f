package di

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"echochat/internal/common"
	"echochat/internal/config"
	"echochat/internal/dbmysql"
	"echochat/internal/realtime"
	"echochat/internal/user"
)

func ProvideTokenResolver(cfg *config.Config) *common.JWTResolver {
	return common.NewJWTResolver(cfg.Auth.JWTSecret)
}

func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := dbmysql.NewMySQL(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func ProvideRoster(friends user.FriendRepository) realtime.Roster {
	return friends
}

func ProvidePresenceTracker(registry *realtime.Registry, roster realtime.Roster, cfg *config.Config, log *logrus.Logger) (*realtime.PresenceTracker, func()) {
	tracker := realtime.NewPresenceTracker(registry, roster, cfg, log)
	return tracker, tracker.Stop
}

func ProvideTypingCoordinator(registry *realtime.Registry, cfg *config.Config, log *logrus.Logger) (*realtime.TypingCoordinator, func()) {
	coordinator := realtime.NewTypingCoordinator(registry, cfg, log)
	return coordinator, coordinator.Stop
}
