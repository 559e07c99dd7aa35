package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"moodtracker/docs" // swagger docs
	"moodtracker/internal/auth"
	"moodtracker/internal/cache"
	"moodtracker/internal/config"
	"moodtracker/internal/db"
	"moodtracker/internal/handler"
	"moodtracker/internal/logging"
	"moodtracker/internal/repository"
	"moodtracker/internal/router"
	"moodtracker/internal/service"
)

// @title Mood Tracker API
// @version 1.0
// @description Personal mood journal: register, record daily mood entries and review statistics.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	gormDB, err := db.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database init")
	}

	if cfg.ResetDB {
		logging.Warn().Msg("reset_db set, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logging.Fatal().Err(err).Msg("reset database")
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		logging.Fatal().Err(err).Msg("migrate database")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		// Requests that need a credential fail until redis is reachable.
		logging.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}
	cancel()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	moodEntryRepo := repository.NewMoodEntryRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	opts := service.Options{
		BcryptCost:      cfg.BcryptCost,
		DefaultLocation: cfg.Location(),
		DefaultPerPage:  cfg.DefaultPerPage,
		MaxPerPage:      cfg.MaxPerPage,
	}
	authService := service.NewAuthService(userRepo, moodEntryRepo, jwtService, tokenStore, opts)
	userService := service.NewUserService(userRepo, moodEntryRepo, tokenStore, cacheClient, opts)
	moodEntryService := service.NewMoodEntryService(userRepo, moodEntryRepo, opts)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	moodEntryHandler := handler.NewMoodEntryHandler(moodEntryService)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, authService, authHandler, userHandler, moodEntryHandler)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.ServerPort
	}
	logging.Info().Str("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html").Msg("swagger documentation available")

	addr := ":" + cfg.ServerPort
	go func() {
		logging.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("server shutdown")
	}
	logging.Info().Msg("server stopped")
}
