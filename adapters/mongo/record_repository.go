package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/satriahrh/student-manager/domain/entities"
	"github.com/satriahrh/student-manager/domain/repositories"
)

// RecordRepository implements repositories.RecordRepository on one MongoDB collection
type RecordRepository[T entities.Record] struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewRecordRepository creates a repository for the named collection
func NewRecordRepository[T entities.Record](db *mongo.Database, collection string, logger *zap.Logger) *RecordRepository[T] {
	return &RecordRepository[T]{
		collection: db.Collection(collection),
		logger:     logger.With(zap.String("collection", collection)),
	}
}

// NewParentRepository creates the parent repository
func NewParentRepository(db *mongo.Database, logger *zap.Logger) repositories.ParentRepository {
	return NewRecordRepository[*entities.Parent](db, ParentCollection, logger)
}

// NewStudentRepository creates the student repository
func NewStudentRepository(db *mongo.Database, logger *zap.Logger) repositories.StudentRepository {
	return NewRecordRepository[*entities.Student](db, StudentCollection, logger)
}

// NewTeacherRepository creates the teacher repository
func NewTeacherRepository(db *mongo.Database, logger *zap.Logger) repositories.TeacherRepository {
	return NewRecordRepository[*entities.Teacher](db, TeacherCollection, logger)
}

// Create implements repositories.RecordRepository
func (r *RecordRepository[T]) Create(ctx context.Context, record T) (string, error) {
	// The store assigns the identifier
	record.SetRecordID("")

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		r.logger.Error("Failed to insert record", zap.Error(err))
		return "", r.storeError("insert", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", r.storeError("insert", fmt.Errorf("unexpected inserted ID type %T", result.InsertedID))
	}

	r.logger.Debug("Record created", zap.String("id", oid.Hex()))
	return oid.Hex(), nil
}

// GetByID implements repositories.RecordRepository
func (r *RecordRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var record T

	objectID, err := objectIDFromHex(id)
	if err != nil {
		return record, err
	}

	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return record, repositories.ErrNotFound
		}
		r.logger.Error("Failed to get record by ID", zap.Error(err), zap.String("id", id))
		return record, r.storeError("find", err)
	}

	return record, nil
}

// Update implements repositories.RecordRepository
func (r *RecordRepository[T]) Update(ctx context.Context, id string, record T) (repositories.UpdateResult, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return repositories.UpdateResult{}, err
	}

	fields, err := setFields(record)
	if err != nil {
		return repositories.UpdateResult{}, r.storeError("update", err)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		r.logger.Error("Failed to update record", zap.Error(err), zap.String("id", id))
		return repositories.UpdateResult{}, r.storeError("update", err)
	}

	return repositories.UpdateResult{
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
	}, nil
}

// Delete implements repositories.RecordRepository
func (r *RecordRepository[T]) Delete(ctx context.Context, id string) (int64, error) {
	objectID, err := objectIDFromHex(id)
	if err != nil {
		return 0, err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		r.logger.Error("Failed to delete record", zap.Error(err), zap.String("id", id))
		return 0, r.storeError("delete", err)
	}

	return result.DeletedCount, nil
}

// List implements repositories.RecordRepository
func (r *RecordRepository[T]) List(ctx context.Context) ([]T, error) {
	cursor, err := r.collection.Find(ctx, bson.D{})
	if err != nil {
		r.logger.Error("Failed to list records", zap.Error(err))
		return nil, r.storeError("find", err)
	}
	defer cursor.Close(ctx)

	records := make([]T, 0)
	for cursor.Next(ctx) {
		var record T
		if err := cursor.Decode(&record); err != nil {
			r.logger.Error("Failed to decode record", zap.Error(err))
			return nil, r.storeError("decode", err)
		}
		records = append(records, record)
	}

	if err := cursor.Err(); err != nil {
		r.logger.Error("Cursor error", zap.Error(err))
		return nil, r.storeError("cursor", err)
	}

	return records, nil
}

func (r *RecordRepository[T]) storeError(op string, err error) error {
	return &repositories.StoreError{Op: op, Collection: r.collection.Name(), Err: err}
}

// objectIDFromHex converts a path identifier into an ObjectID
func objectIDFromHex(id string) (primitive.ObjectID, error) {
	if strings.TrimSpace(id) == "" {
		return primitive.NilObjectID, repositories.ErrInvalidID
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", repositories.ErrInvalidID, id)
	}
	return objectID, nil
}

// setFields builds the $set document for a full replace. Every field of the
// record is included except _id, which is matched by the filter instead.
func setFields(record entities.Record) (bson.D, error) {
	record.SetRecordID("")

	data, err := bson.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	var fields bson.D
	if err := bson.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to build update document: %w", err)
	}

	return fields, nil
}
