package memory

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/satriahrh/student-manager/domain/entities"
	"github.com/satriahrh/student-manager/domain/repositories"
)

// RecordRepository is an in-memory implementation of repositories.RecordRepository.
// Records are kept BSON-encoded so callers always receive fresh copies and
// values go through the same encoding rules as the MongoDB adapter.
type RecordRepository[T entities.Record] struct {
	mu      sync.RWMutex
	name    string
	records map[string][]byte // id -> encoded record
	order   []string          // insertion order, the store-native order for List
}

// NewRecordRepository creates a new in-memory repository
func NewRecordRepository[T entities.Record](name string) *RecordRepository[T] {
	return &RecordRepository[T]{
		name:    name,
		records: make(map[string][]byte),
	}
}

// NewParentRepository creates an in-memory parent repository
func NewParentRepository() repositories.ParentRepository {
	return NewRecordRepository[*entities.Parent]("Parent")
}

// NewStudentRepository creates an in-memory student repository
func NewStudentRepository() repositories.StudentRepository {
	return NewRecordRepository[*entities.Student]("Student")
}

// NewTeacherRepository creates an in-memory teacher repository
func NewTeacherRepository() repositories.TeacherRepository {
	return NewRecordRepository[*entities.Teacher]("Teacher")
}

// Create implements repositories.RecordRepository
func (m *RecordRepository[T]) Create(ctx context.Context, record T) (string, error) {
	id := primitive.NewObjectID().Hex()
	record.SetRecordID(id)

	data, err := bson.Marshal(record)
	if err != nil {
		return "", m.storeError("insert", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[id] = data
	m.order = append(m.order, id)

	return id, nil
}

// GetByID implements repositories.RecordRepository
func (m *RecordRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var record T
	if err := validateID(id); err != nil {
		return record, err
	}

	m.mu.RLock()
	data, exists := m.records[id]
	m.mu.RUnlock()

	if !exists {
		return record, repositories.ErrNotFound
	}

	if err := bson.Unmarshal(data, &record); err != nil {
		return record, m.storeError("decode", err)
	}
	return record, nil
}

// Update implements repositories.RecordRepository
func (m *RecordRepository[T]) Update(ctx context.Context, id string, record T) (repositories.UpdateResult, error) {
	if err := validateID(id); err != nil {
		return repositories.UpdateResult{}, err
	}

	// The identifier always comes from the filter, never from the body
	record.SetRecordID(id)
	data, err := bson.Marshal(record)
	if err != nil {
		return repositories.UpdateResult{}, m.storeError("update", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.records[id]
	if !exists {
		return repositories.UpdateResult{}, nil
	}

	result := repositories.UpdateResult{MatchedCount: 1}
	if !bytes.Equal(existing, data) {
		m.records[id] = data
		result.ModifiedCount = 1
	}
	return result, nil
}

// Delete implements repositories.RecordRepository
func (m *RecordRepository[T]) Delete(ctx context.Context, id string) (int64, error) {
	if err := validateID(id); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[id]; !exists {
		return 0, nil
	}

	delete(m.records, id)
	for i, existingID := range m.order {
		if existingID == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

// List implements repositories.RecordRepository
func (m *RecordRepository[T]) List(ctx context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]T, 0, len(m.order))
	for _, id := range m.order {
		var record T
		if err := bson.Unmarshal(m.records[id], &record); err != nil {
			return nil, m.storeError("decode", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// Ping implements repositories.Pinger; memory is always reachable
func (m *RecordRepository[T]) Ping(ctx context.Context) error {
	return nil
}

func (m *RecordRepository[T]) storeError(op string, err error) error {
	return &repositories.StoreError{Op: op, Collection: m.name, Err: err}
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return repositories.ErrInvalidID
	}
	if !primitive.IsValidObjectID(id) {
		return fmt.Errorf("%w: %q", repositories.ErrInvalidID, id)
	}
	return nil
}
