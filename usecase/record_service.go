package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/student-manager/domain/entities"
	"github.com/satriahrh/student-manager/domain/repositories"
)

// RecordService implements the create/read/update/delete/list flow for one
// record kind on top of its repository and announces successful writes.
type RecordService[T entities.Record] struct {
	kind   string
	repo   repositories.RecordRepository[T]
	events repositories.EventPublisher
	logger *zap.Logger
}

// NewRecordService creates a service for records of the given kind, e.g. "parent".
// events may be nil, in which case no change events are published.
func NewRecordService[T entities.Record](
	kind string,
	repo repositories.RecordRepository[T],
	events repositories.EventPublisher,
	logger *zap.Logger,
) *RecordService[T] {
	return &RecordService[T]{
		kind:   kind,
		repo:   repo,
		events: events,
		logger: logger.With(zap.String("kind", kind)),
	}
}

// Kind returns the record kind this service manages
func (s *RecordService[T]) Kind() string {
	return s.kind
}

// Create stores a new record and returns it as stored, with its assigned ID.
// Any ID already set on the record is ignored.
func (s *RecordService[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	record.SetRecordID("")

	id, err := s.repo.Create(ctx, record)
	if err != nil {
		s.logger.Error("Failed to create record", zap.Error(err))
		return zero, err
	}

	s.logger.Info("Record created", zap.String("id", id))
	s.publish(ctx, entities.RecordCreated, id)

	// The store normalizes values (times are kept in UTC at millisecond precision)
	created, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to read created record", zap.String("id", id), zap.Error(err))
		return zero, err
	}
	return created, nil
}

// Get returns the record stored under id
func (s *RecordService[T]) Get(ctx context.Context, id string) (T, error) {
	if isBlank(id) {
		var zero T
		return zero, repositories.ErrInvalidID
	}
	return s.repo.GetByID(ctx, id)
}

// Update replaces every field of the record stored under id with the values
// in record and returns the stored result.
func (s *RecordService[T]) Update(ctx context.Context, id string, record T) (T, error) {
	var zero T
	if isBlank(id) {
		return zero, repositories.ErrInvalidID
	}

	record.SetRecordID("")
	result, err := s.repo.Update(ctx, id, record)
	if err != nil {
		s.logger.Error("Failed to update record", zap.String("id", id), zap.Error(err))
		return zero, err
	}
	if result.MatchedCount == 0 {
		return zero, repositories.ErrNotFound
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}

	s.logger.Info("Record updated",
		zap.String("id", id),
		zap.Int64("modified", result.ModifiedCount))
	s.publish(ctx, entities.RecordUpdated, id)
	return updated, nil
}

// Delete removes the record stored under id
func (s *RecordService[T]) Delete(ctx context.Context, id string) error {
	if isBlank(id) {
		return repositories.ErrInvalidID
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Failed to delete record", zap.String("id", id), zap.Error(err))
		return err
	}
	if deleted == 0 {
		return repositories.ErrNotFound
	}

	s.logger.Info("Record deleted", zap.String("id", id))
	s.publish(ctx, entities.RecordDeleted, id)
	return nil
}

// List returns every record of this kind
func (s *RecordService[T]) List(ctx context.Context) ([]T, error) {
	return s.repo.List(ctx)
}

// publish never fails the caller; a lost event is only logged
func (s *RecordService[T]) publish(ctx context.Context, action entities.RecordAction, id string) {
	if s.events == nil {
		return
	}

	event := entities.NewRecordEvent(s.kind, action, id)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish record event",
			zap.String("event_id", event.ID),
			zap.String("type", event.RoutingKey()),
			zap.Error(err))
	}
}

func isBlank(id string) bool {
	return strings.TrimSpace(id) == ""
}
