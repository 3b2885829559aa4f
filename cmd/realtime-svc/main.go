package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"echochat/internal/dbmysql"
	"echochat/internal/di"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info(".env file not found, using system env variables")
	}

	app, cleanup, err := di.InitializeRealtimeService()
	if err != nil {
		logrus.Fatalf("Failed to initialize realtime service: %v", err)
	}
	defer cleanup()

	log := app.Log

	// Migrations run in main, once, not inside repositories.
	if err := app.DB.AutoMigrate(
		&dbmysql.User{},
		&dbmysql.Friend{},
		&dbmysql.Message{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Info("Database migration completed")

	server := &http.Server{
		Addr:         app.Config.Addr(),
		Handler:      app.Router,
		ReadTimeout:  time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(app.Config.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("Realtime service running")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down realtime service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("forced shutdown")
	}

	log.Info("Realtime service stopped")
}
