package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/student-manager/adapters/memory"
	"github.com/satriahrh/student-manager/domain/entities"
)

// TestCachedRepository_Integration requires a running Redis instance
// (skipped if REDIS_ADDR is not set)
func TestCachedRepository_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis integration test - REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, Config{Addr: addr})
	if err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer client.Close()

	prefix := "test:" + uuid.NewString()
	backing := memory.NewParentRepository()
	repo := NewCachedRepository[*entities.Parent](backing, client, prefix, time.Minute, zaptest.NewLogger(t))
	defer client.Del(ctx, prefix+":all", prefix+":all:gen")

	id, err := repo.Create(ctx, &entities.Parent{Profile: entities.Profile{Email: "a@x.com"}})
	if err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}
	defer client.Del(ctx, prefix+":id:"+id, prefix+":id:"+id+":gen")

	t.Run("ReadThrough", func(t *testing.T) {
		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("Failed to get parent: %v", err)
		}
		if got.Email != "a@x.com" {
			t.Errorf("Expected a@x.com, got %s", got.Email)
		}

		exists, err := client.Exists(ctx, prefix+":id:"+id).Result()
		if err != nil || exists != 1 {
			t.Errorf("Expected record to be cached, exists=%d err=%v", exists, err)
		}
	})

	t.Run("UpdateInvalidates", func(t *testing.T) {
		if _, err := repo.Update(ctx, id, &entities.Parent{Profile: entities.Profile{Email: "b@x.com"}}); err != nil {
			t.Fatalf("Failed to update parent: %v", err)
		}

		got, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("Failed to get parent: %v", err)
		}
		if got.Email != "b@x.com" {
			t.Errorf("Expected updated email from cache miss, got %s", got.Email)
		}
	})

	t.Run("ListInvalidatedByCreate", func(t *testing.T) {
		list, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("Failed to list parents: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("Expected 1 parent, got %d", len(list))
		}

		secondID, err := repo.Create(ctx, &entities.Parent{Profile: entities.Profile{Email: "c@x.com"}})
		if err != nil {
			t.Fatalf("Failed to create parent: %v", err)
		}
		defer client.Del(ctx, prefix+":id:"+secondID)

		list, err = repo.List(ctx)
		if err != nil {
			t.Fatalf("Failed to list parents: %v", err)
		}
		if len(list) != 2 {
			t.Errorf("Expected 2 parents after create, got %d", len(list))
		}
	})
}
