package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/student-manager/domain/entities"
	"github.com/satriahrh/student-manager/domain/repositories"
	"github.com/satriahrh/student-manager/usecase"
)

const serviceName = "student-manager"

// Services bundles the record services exposed over HTTP
type Services struct {
	Parents  *usecase.RecordService[*entities.Parent]
	Students *usecase.RecordService[*entities.Student]
	Teachers *usecase.RecordService[*entities.Teacher]
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, services Services, store repositories.Pinger, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return health(c, store, logger)
	})

	NewRecordHandler(services.Parents, func() *entities.Parent { return &entities.Parent{} }, logger).Register(e)
	NewRecordHandler(services.Students, func() *entities.Student { return &entities.Student{} }, logger).Register(e)
	NewRecordHandler(services.Teachers, func() *entities.Teacher { return &entities.Teacher{} }, logger).Register(e)
}

func health(c echo.Context, store repositories.Pinger, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		logger.Warn("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:  "unavailable",
			Service: serviceName,
			Error:   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: serviceName,
	})
}
