package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/student-manager/domain/entities"
	"github.com/satriahrh/student-manager/domain/repositories"
	"github.com/satriahrh/student-manager/usecase"
)

// RecordHandler serves the five record endpoints for one record kind
type RecordHandler[T entities.Record] struct {
	service   *usecase.RecordService[T]
	newRecord func() T
	logger    *zap.Logger
}

// NewRecordHandler creates a handler; newRecord returns an empty record to bind request bodies into
func NewRecordHandler[T entities.Record](service *usecase.RecordService[T], newRecord func() T, logger *zap.Logger) *RecordHandler[T] {
	return &RecordHandler[T]{
		service:   service,
		newRecord: newRecord,
		logger:    logger.With(zap.String("kind", service.Kind())),
	}
}

// Register mounts POST /{kind}, GET|PUT|DELETE /{kind}/:id and GET /{kind}s
func (h *RecordHandler[T]) Register(e *echo.Echo) {
	kind := h.service.Kind()
	e.POST("/"+kind, h.Create)
	e.GET("/"+kind+"/:id", h.Get)
	e.PUT("/"+kind+"/:id", h.Update)
	e.DELETE("/"+kind+"/:id", h.Delete)
	e.GET("/"+kind+"s", h.List)
}

// Create handles POST /{kind}
func (h *RecordHandler[T]) Create(c echo.Context) error {
	record, err := h.bind(c)
	if err != nil {
		return h.badRequest(c, err)
	}

	created, err := h.service.Create(c.Request().Context(), record)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, created)
}

// Get handles GET /{kind}/:id
func (h *RecordHandler[T]) Get(c echo.Context) error {
	record, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// Update handles PUT /{kind}/:id
func (h *RecordHandler[T]) Update(c echo.Context) error {
	record, err := h.bind(c)
	if err != nil {
		return h.badRequest(c, err)
	}

	updated, err := h.service.Update(c.Request().Context(), c.Param("id"), record)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /{kind}/:id
func (h *RecordHandler[T]) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Message: title(h.service.Kind()) + " successfully deleted",
	})
}

// List handles GET /{kind}s
func (h *RecordHandler[T]) List(c echo.Context) error {
	records, err := h.service.List(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// bind decodes the JSON body into a fresh record; any body ID is dropped
func (h *RecordHandler[T]) bind(c echo.Context) (T, error) {
	record := h.newRecord()
	if err := (&echo.DefaultBinder{}).BindBody(c, record); err != nil {
		return record, err
	}
	record.SetRecordID("")
	return record, nil
}

func (h *RecordHandler[T]) badRequest(c echo.Context, err error) error {
	h.logger.Warn("Failed to bind request body", zap.Error(err))
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request format",
	})
}

// fail maps domain errors onto HTTP statuses
func (h *RecordHandler[T]) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repositories.ErrInvalidID):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: err.Error(),
		})
	case errors.Is(err, repositories.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: title(h.service.Kind()) + " not found",
		})
	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}

func title(kind string) string {
	if kind == "" {
		return kind
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}
