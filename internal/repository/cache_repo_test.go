package repository

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/testutil"
)

func TestCacheRepositoryUpsertOverwrites(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewCacheRepository(db)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	put := func(data string, ttl time.Duration) {
		t.Helper()
		err := repo.Upsert(ctx, &schema.CacheEntry{
			CacheKey:  "issues:go:",
			Data:      data,
			CreatedAt: now.UnixMilli(),
			ExpiresAt: now.Add(ttl).UnixMilli(),
			DataType:  schema.CacheTypeIssues,
		})
		if err != nil {
			t.Fatalf("Upsert error: %v", err)
		}
	}
	put(`[1]`, time.Minute)
	put(`[2]`, time.Hour)

	total, _ := repo.CountAll(ctx)
	if total != 1 {
		t.Fatalf("total=%d, want 1", total)
	}
	got, err := repo.GetActive(ctx, "issues:go:", now.Add(30*time.Minute))
	if err != nil || got == nil {
		t.Fatalf("got=%v err=%v", got, err)
	}
	if string(got.Data) != `[2]` {
		t.Fatalf("data=%s, want [2]", got.Data)
	}
}

func TestCacheRepositoryExpiredRows(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewCacheRepository(db)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	_ = repo.Upsert(ctx, &schema.CacheEntry{CacheKey: "a", Data: `{}`, CreatedAt: 0, ExpiresAt: now.UnixMilli(), DataType: schema.CacheTypeIssues})
	_ = repo.Upsert(ctx, &schema.CacheEntry{CacheKey: "b", Data: `{}`, CreatedAt: 0, ExpiresAt: now.Add(time.Hour).UnixMilli(), DataType: schema.CacheTypeTopics})

	if got, _ := repo.GetActive(ctx, "a", now); got != nil {
		t.Fatalf("expired entry returned")
	}
	expired, _ := repo.CountExpired(ctx, now)
	if expired != 1 {
		t.Fatalf("expired=%d, want 1", expired)
	}
	keys, _ := repo.ListActiveKeys(ctx, "", now)
	if len(keys) != 1 || keys[0] != "b" {
		t.Fatalf("keys=%v", keys)
	}
	n, err := repo.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpired n=%d err=%v", n, err)
	}
	if err := repo.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete missing key error: %v", err)
	}
}
