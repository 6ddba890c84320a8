package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/student-manager/adapters/amqp"
	"github.com/satriahrh/student-manager/adapters/memory"
	"github.com/satriahrh/student-manager/adapters/mongo"
	rediscache "github.com/satriahrh/student-manager/adapters/redis"
	"github.com/satriahrh/student-manager/domain/entities"
	"github.com/satriahrh/student-manager/domain/repositories"
	"github.com/satriahrh/student-manager/internal/api"
	"github.com/satriahrh/student-manager/internal/config"
	"github.com/satriahrh/student-manager/usecase"
)

type repositorySet struct {
	parents  repositories.ParentRepository
	students repositories.StudentRepository
	teachers repositories.TeacherRepository
	store    repositories.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet
		zap.NewExample().Fatal("Invalid configuration", zap.Error(err))
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	var closers []func(context.Context)

	// Initialize storage
	repos := repositorySet{}
	switch cfg.StoreBackend {
	case config.BackendMemory:
		parents := memory.NewRecordRepository[*entities.Parent](mongo.ParentCollection)
		repos = repositorySet{
			parents:  parents,
			students: memory.NewRecordRepository[*entities.Student](mongo.StudentCollection),
			teachers: memory.NewRecordRepository[*entities.Teacher](mongo.TeacherCollection),
			store:    parents,
		}
		logger.Info("Using in-memory store")
	default:
		client, err := mongo.NewClient(ctx, mongo.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		closers = append(closers, func(ctx context.Context) {
			if err := client.Close(ctx); err != nil {
				logger.Error("Failed to disconnect MongoDB", zap.Error(err))
			}
		})
		repos = repositorySet{
			parents:  mongo.NewParentRepository(client.Database, logger),
			students: mongo.NewStudentRepository(client.Database, logger),
			teachers: mongo.NewTeacherRepository(client.Database, logger),
			store:    client,
		}
	}

	// Optional read cache
	if cfg.RedisAddr != "" {
		rdb, err := rediscache.NewClient(ctx, rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", zap.Error(err))
		} else {
			closers = append(closers, func(context.Context) { _ = rdb.Close() })
			repos.parents = rediscache.NewCachedRepository(repos.parents, rdb, "parent", cfg.CacheTTL, logger)
			repos.students = rediscache.NewCachedRepository(repos.students, rdb, "student", cfg.CacheTTL, logger)
			repos.teachers = rediscache.NewCachedRepository(repos.teachers, rdb, "teacher", cfg.CacheTTL, logger)
			logger.Info("Redis cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
		}
	}

	// Optional change events
	var events repositories.EventPublisher
	if cfg.RabbitMQURL != "" {
		publisher, err := amqp.NewPublisher(cfg.RabbitMQURL, cfg.EventsQueue, logger)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, change events disabled", zap.Error(err))
		} else {
			closers = append(closers, func(context.Context) { _ = publisher.Close() })
			events = publisher
		}
	}

	// Initialize usecase services
	services := api.Services{
		Parents:  usecase.NewRecordService("parent", repos.parents, events, logger),
		Students: usecase.NewRecordService("student", repos.students, events, logger),
		Teachers: usecase.NewRecordService("teacher", repos.teachers, events, logger),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(api.RequestLogger(logger))

	// Initialize API routes
	api.InitRoutes(e, services, repos.store, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("backend", cfg.StoreBackend))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i](shutdownCtx)
	}

	logger.Info("Server exited")
}
