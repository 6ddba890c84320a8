package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/satriahrh/student-manager/domain/entities"
	"github.com/satriahrh/student-manager/domain/repositories"
)

// CachedRepository is a read-through cache in front of a RecordRepository.
// Reads are served from Redis when present; every write invalidates the
// affected keys. Redis failures are logged and the call falls through to
// the wrapped repository.
//
// Each cached key has a generation counter that writers increment before
// deleting the entry. Entries are stamped with the generation seen before
// the store read, and an entry whose stamp no longer matches is a miss, so a
// fill racing with a write can never be served after that write returns.
type CachedRepository[T entities.Record] struct {
	next   repositories.RecordRepository[T]
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRepository wraps next with a cache namespaced by prefix
func NewCachedRepository[T entities.Record](next repositories.RecordRepository[T], rdb redis.Cmdable, prefix string, ttl time.Duration, logger *zap.Logger) *CachedRepository[T] {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedRepository[T]{
		next:   next,
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With(zap.String("cache_prefix", prefix)),
	}
}

// recordEntry and listEntry wrap cached values so they encode as BSON documents
type recordEntry[T entities.Record] struct {
	Gen    int64 `bson:"gen"`
	Record T     `bson:"record"`
}

type listEntry[T entities.Record] struct {
	Gen   int64 `bson:"gen"`
	Items []T   `bson:"items"`
}

// Create implements repositories.RecordRepository
func (c *CachedRepository[T]) Create(ctx context.Context, record T) (string, error) {
	id, err := c.next.Create(ctx, record)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, c.listKey())
	return id, nil
}

// GetByID implements repositories.RecordRepository
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var record T
	if id == "" {
		return record, repositories.ErrInvalidID
	}

	key := c.recordKey(id)
	gen, cacheable := c.generation(ctx, key)
	if cacheable {
		var entry recordEntry[T]
		if c.load(ctx, key, &entry) && entry.Gen == gen {
			return entry.Record, nil
		}
	}

	record, err := c.next.GetByID(ctx, id)
	if err != nil {
		return record, err
	}
	if cacheable {
		c.store(ctx, key, recordEntry[T]{Gen: gen, Record: record})
	}
	return record, nil
}

// Update implements repositories.RecordRepository
func (c *CachedRepository[T]) Update(ctx context.Context, id string, record T) (repositories.UpdateResult, error) {
	result, err := c.next.Update(ctx, id, record)
	if err != nil {
		return result, err
	}
	c.invalidate(ctx, c.recordKey(id), c.listKey())
	return result, nil
}

// Delete implements repositories.RecordRepository
func (c *CachedRepository[T]) Delete(ctx context.Context, id string) (int64, error) {
	deleted, err := c.next.Delete(ctx, id)
	if err != nil {
		return deleted, err
	}
	c.invalidate(ctx, c.recordKey(id), c.listKey())
	return deleted, nil
}

// List implements repositories.RecordRepository
func (c *CachedRepository[T]) List(ctx context.Context) ([]T, error) {
	key := c.listKey()
	gen, cacheable := c.generation(ctx, key)
	if cacheable {
		var entry listEntry[T]
		if c.load(ctx, key, &entry) && entry.Gen == gen {
			if entry.Items == nil {
				entry.Items = make([]T, 0)
			}
			return entry.Items, nil
		}
	}

	records, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}
	if cacheable {
		c.store(ctx, key, listEntry[T]{Gen: gen, Items: records})
	}
	return records, nil
}

func (c *CachedRepository[T]) recordKey(id string) string {
	return c.prefix + ":id:" + id
}

func (c *CachedRepository[T]) listKey() string {
	return c.prefix + ":all"
}

func genKey(key string) string {
	return key + ":gen"
}

// generation returns the write generation of key. When it cannot be read the
// key is treated as uncacheable for this call.
func (c *CachedRepository[T]) generation(ctx context.Context, key string) (int64, bool) {
	gen, err := c.rdb.Get(ctx, genKey(key)).Int64()
	if err == nil {
		return gen, true
	}
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	c.logger.Warn("Cache read failed", zap.String("key", genKey(key)), zap.Error(err))
	return 0, false
}

// load decodes the entry stored under key into dst and reports whether it did
func (c *CachedRepository[T]) load(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := bson.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
		return false
	}
	return true
}

func (c *CachedRepository[T]) store(ctx context.Context, key string, value interface{}) {
	data, err := bson.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.SetEx(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate bumps the generation of every key before deleting the entries.
// Generation counters outlive entries by a wide margin so a late fill always
// sees a newer generation.
func (c *CachedRepository[T]) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := c.rdb.Incr(ctx, genKey(key)).Err(); err != nil {
			c.logger.Warn("Cache generation bump failed", zap.String("key", key), zap.Error(err))
			continue
		}
		if err := c.rdb.Expire(ctx, genKey(key), 10*c.ttl).Err(); err != nil {
			c.logger.Warn("Cache generation expiry failed", zap.String("key", key), zap.Error(err))
		}
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
