package repository

import (
	"context"
	"testing"
	"time"

	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/testutil"
)

func TestViabilityRepositoryUpsertAndExpiry(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewViabilityRepository(db)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000)

	row := &schema.ProjectViability{
		RepoID:     "acme/widget",
		RepoOwner:  "acme",
		RepoName:   "widget",
		Score:      6,
		ComputedAt: now.UnixMilli(),
		ExpiresAt:  now.Add(time.Hour).UnixMilli(),
	}
	if err := repo.Upsert(ctx, row); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	updated := *row
	updated.Score = 9
	if err := repo.Upsert(ctx, &updated); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	n, _ := repo.Count(ctx)
	if n != 1 {
		t.Fatalf("count=%d, want 1", n)
	}

	got, err := repo.GetActive(ctx, "acme/widget", now)
	if err != nil || got == nil || got.Score != 9 {
		t.Fatalf("got=%+v err=%v", got, err)
	}

	expired, err := repo.GetActive(ctx, "acme/widget", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetActive error: %v", err)
	}
	if expired != nil {
		t.Fatalf("row at expires_at must be treated as expired")
	}
}

func TestViabilityRepositoryRejectsNonPositiveTTL(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewViabilityRepository(db)

	err := repo.Upsert(context.Background(), &schema.ProjectViability{
		RepoID: "a/b", RepoOwner: "a", RepoName: "b", Score: 5, ComputedAt: 10, ExpiresAt: 10,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}
