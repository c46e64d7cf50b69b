package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caseprep/practice-service/internal/cache"
	"github.com/caseprep/practice-service/internal/clients"
	"github.com/caseprep/practice-service/internal/config"
	"github.com/caseprep/practice-service/internal/handlers"
	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/repositories/postgres"
	"github.com/caseprep/practice-service/internal/services"
	"github.com/caseprep/practice-service/internal/utils"
	"github.com/caseprep/practice-service/internal/validator"
	"github.com/caseprep/practice-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger utils.Logger) error {
	handlers.InitAuth(cfg)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&models.LearningModule{},
		&models.ModulePart{},
		&models.ModuleProgressRecord{},
		&models.CaseSession{},
		&models.Turn{},
		&models.User{},
	); err != nil {
		return err
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	cacheService := cache.NewRedisCache(redisClient, logger)
	repo := postgres.NewRepository(db)
	defer repo.Close()

	publisher, err := config.LoadEventConfig().CreateEventPublisher(utils.ToSlogLogger(logger))
	if err != nil {
		return err
	}
	defer publisher.Close()

	coach := clients.NewCoachClient(
		cfg.CoachAIBaseURL,
		cfg.CoachAIAPIKey,
		time.Duration(cfg.CoachAITimeout)*time.Second,
		logger,
	)

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:            repo,
		Cache:           cacheService,
		Publisher:       publisher,
		Logger:          logger,
		Validator:       validator.New(),
		Asker:           coach,
		Scorer:          coach,
		ContentCacheTTL: time.Duration(cfg.ContentCacheTTL) * time.Second,
	})

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))

	handlerManager := handlers.NewHandlerManager(serviceManager, logger)
	handlerManager.SetupRoutes(router, cfg, logger, repo.Users())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Practice service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
