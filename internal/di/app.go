package di

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"echochat/internal/config"
	"echochat/internal/realtime"
)

// Application bundles everything main needs to run the realtime service.
type Application struct {
	Config   *config.Config
	Log      *logrus.Logger
	DB       *gorm.DB
	Registry *realtime.Registry
	Presence *realtime.PresenceTracker
	Typing   *realtime.TypingCoordinator
	Router   *mux.Router
}
