package repositories

import (
	"context"

	"github.com/satriahrh/student-manager/domain/entities"
)

// UpdateResult reports how many documents an update matched and modified
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// RecordRepository defines data access methods for one entity kind.
// T is a pointer type such as *entities.Parent.
type RecordRepository[T entities.Record] interface {
	// Create inserts the record, ignoring any ID it carries, and returns the store-assigned ID
	Create(ctx context.Context, record T) (string, error)
	GetByID(ctx context.Context, id string) (T, error)
	// Update replaces every field of the record matching id. Zero matches is not an error.
	Update(ctx context.Context, id string, record T) (UpdateResult, error)
	// Delete removes the record matching id and returns the number of removed documents
	Delete(ctx context.Context, id string) (int64, error)
	List(ctx context.Context) ([]T, error)
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Parent, student and teacher repositories served by the API
type (
	ParentRepository  = RecordRepository[*entities.Parent]
	StudentRepository = RecordRepository[*entities.Student]
	TeacherRepository = RecordRepository[*entities.Teacher]
)
