package repositories

import (
	"context"

	"github.com/satriahrh/student-manager/domain/entities"
)

// EventPublisher delivers record change events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event entities.RecordEvent) error
}
