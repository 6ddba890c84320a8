package redis

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/satriahrh/student-manager/adapters/memory"
	"github.com/satriahrh/student-manager/domain/entities"
	"github.com/satriahrh/student-manager/domain/repositories"
)

// fakeRedis implements the subset of redis.Cmdable the cache uses
type fakeRedis struct {
	redis.Cmdable

	mu   sync.Mutex
	data map[string]string
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) SetEx(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Expire(_ context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func (f *fakeRedis) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
}

func (f *fakeRedis) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// hookedRepository runs a hook inside the first GetByID or List call, after
// the store has been read but before the result is returned
type hookedRepository struct {
	repositories.ParentRepository
	onGet  func()
	onList func()
	reads  int
}

func (r *hookedRepository) GetByID(ctx context.Context, id string) (*entities.Parent, error) {
	r.reads++
	record, err := r.ParentRepository.GetByID(ctx, id)
	if hook := r.onGet; hook != nil {
		r.onGet = nil
		hook()
	}
	return record, err
}

func (r *hookedRepository) List(ctx context.Context) ([]*entities.Parent, error) {
	r.reads++
	records, err := r.ParentRepository.List(ctx)
	if hook := r.onList; hook != nil {
		r.onList = nil
		hook()
	}
	return records, err
}

func newCachedParents(t *testing.T) (*CachedRepository[*entities.Parent], *hookedRepository, *fakeRedis) {
	t.Helper()
	backing := &hookedRepository{ParentRepository: memory.NewParentRepository()}
	rdb := newFakeRedis()
	return NewCachedRepository[*entities.Parent](backing, rdb, "parent", time.Minute, zap.NewNop()), backing, rdb
}

func TestCachedRepository_ServesRepeatReadsFromCache(t *testing.T) {
	ctx := context.Background()
	repo, backing, rdb := newCachedParents(t)

	id, err := repo.Create(ctx, &entities.Parent{Profile: entities.Profile{Email: "a@x.com"}})
	if err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("Failed to get parent: %v", err)
		}
		if got.Email != "a@x.com" || got.ID != id {
			t.Errorf("Unexpected parent: %+v", got)
		}
	}

	if backing.reads != 1 {
		t.Errorf("Expected 1 store read, got %d", backing.reads)
	}
	if !rdb.has("parent:id:" + id) {
		t.Error("Expected record to be cached")
	}
}

func TestCachedRepository_FillRacingUpdateIsNotServed(t *testing.T) {
	ctx := context.Background()
	repo, backing, _ := newCachedParents(t)

	id, err := repo.Create(ctx, &entities.Parent{Profile: entities.Profile{Email: "old@x.com"}})
	if err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}

	// The update lands after the store read but before the cache fill
	backing.onGet = func() {
		if _, err := repo.Update(ctx, id, &entities.Parent{Profile: entities.Profile{Email: "new@x.com"}}); err != nil {
			t.Errorf("Failed to update parent: %v", err)
		}
	}
	if _, err := repo.GetByID(ctx, id); err != nil {
		t.Fatalf("Failed to get parent: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get parent: %v", err)
	}
	if got.Email != "new@x.com" {
		t.Errorf("Expected new@x.com after update, got %s", got.Email)
	}
}

func TestCachedRepository_ListFillRacingCreateIsNotServed(t *testing.T) {
	ctx := context.Background()
	repo, backing, _ := newCachedParents(t)

	if _, err := repo.Create(ctx, &entities.Parent{Profile: entities.Profile{Email: "a@x.com"}}); err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}

	backing.onList = func() {
		if _, err := repo.Create(ctx, &entities.Parent{Profile: entities.Profile{Email: "b@x.com"}}); err != nil {
			t.Errorf("Failed to create parent: %v", err)
		}
	}
	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("Failed to list parents: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list parents: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 parents after create, got %d", len(list))
	}
}

func TestCachedRepository_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	repo, _, rdb := newCachedParents(t)

	id, err := repo.Create(ctx, &entities.Parent{Profile: entities.Profile{Email: "a@x.com"}})
	if err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); err != nil {
		t.Fatalf("Failed to get parent: %v", err)
	}
	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("Failed to list parents: %v", err)
	}

	if _, err := repo.Update(ctx, id, &entities.Parent{Profile: entities.Profile{Email: "b@x.com"}}); err != nil {
		t.Fatalf("Failed to update parent: %v", err)
	}
	if rdb.has("parent:id:"+id) || rdb.has("parent:all") {
		t.Error("Expected update to drop the record and list entries")
	}

	got, _ := repo.GetByID(ctx, id)
	if got.Email != "b@x.com" {
		t.Errorf("Expected b@x.com after update, got %s", got.Email)
	}
	if _, err := repo.List(ctx); err != nil {
		t.Fatalf("Failed to list parents: %v", err)
	}

	if _, err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Failed to delete parent: %v", err)
	}
	if rdb.has("parent:id:"+id) || rdb.has("parent:all") {
		t.Error("Expected delete to drop the record and list entries")
	}

	if _, err := repo.GetByID(ctx, id); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list parents: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected empty list after delete, got %d", len(list))
	}
}

func TestCachedRepository_DiscardsUndecodableEntry(t *testing.T) {
	ctx := context.Background()
	repo, backing, rdb := newCachedParents(t)

	id, err := repo.Create(ctx, &entities.Parent{Profile: entities.Profile{Email: "a@x.com"}})
	if err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}
	rdb.set("parent:id:"+id, "not bson")

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get parent: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Errorf("Expected a@x.com from the store, got %s", got.Email)
	}
	if backing.reads != 1 {
		t.Errorf("Expected the store to be read once, got %d", backing.reads)
	}

	// The entry was replaced with a decodable one
	if _, err := repo.GetByID(ctx, id); err != nil {
		t.Fatalf("Failed to get parent: %v", err)
	}
	if backing.reads != 1 {
		t.Errorf("Expected the repaired entry to be served, got %d store reads", backing.reads)
	}
}

func TestCachedRepository_FallsThroughOnRedisErrors(t *testing.T) {
	ctx := context.Background()
	repo, backing, rdb := newCachedParents(t)
	rdb.fail(errors.New("connection refused"))

	id, err := repo.Create(ctx, &entities.Parent{Profile: entities.Profile{Email: "a@x.com"}})
	if err != nil {
		t.Fatalf("Expected create to succeed without Redis, got %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("Expected get to succeed without Redis, got %v", err)
	}
	if got.Email != "a@x.com" {
		t.Errorf("Expected a@x.com, got %s", got.Email)
	}

	if _, err := repo.Update(ctx, id, &entities.Parent{Profile: entities.Profile{Email: "b@x.com"}}); err != nil {
		t.Fatalf("Expected update to succeed without Redis, got %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Expected list to succeed without Redis, got %v", err)
	}
	if len(list) != 1 || list[0].Email != "b@x.com" {
		t.Errorf("Expected the updated parent, got %+v", list)
	}
	if backing.reads != 2 {
		t.Errorf("Expected every read to reach the store, got %d", backing.reads)
	}
}

func TestCachedRepository_EmptyIDSkipsEverything(t *testing.T) {
	repo, backing, _ := newCachedParents(t)

	if _, err := repo.GetByID(context.Background(), ""); !errors.Is(err, repositories.ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
	if backing.reads != 0 {
		t.Errorf("Expected no store access, got %d", backing.reads)
	}
}
