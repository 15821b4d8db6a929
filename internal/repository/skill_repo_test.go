package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/testutil"
)

func seedContribution(t *testing.T, repo *ContributionRepository, userID, prID string, mergedAt int64, adds, dels int) *schema.Contribution {
	t.Helper()
	c, _, err := repo.CreateIfAbsent(context.Background(), &schema.Contribution{
		UserID:          userID,
		PRID:            prID,
		PRNumber:        1,
		Title:           "pr " + prID,
		URL:             "https://example.com/" + prID,
		RepositoryName:  "repo",
		RepositoryOwner: "owner",
		MergedAt:        mergedAt,
		Additions:       adds,
		Deletions:       dels,
	})
	if err != nil {
		t.Fatalf("CreateIfAbsent error: %v", err)
	}
	return c
}

func TestSkillRepositoryEnsureIsIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewSkillRepository(db)
	ctx := context.Background()

	first, err := repo.Ensure(ctx, "u1", "Go", schema.SkillCategoryLanguage)
	if err != nil {
		t.Fatalf("Ensure error: %v", err)
	}
	second, err := repo.Ensure(ctx, "u1", "Go", schema.SkillCategoryTool)
	if err != nil {
		t.Fatalf("Ensure error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %s vs %s", first.ID, second.ID)
	}
	if second.Category != schema.SkillCategoryLanguage {
		t.Fatalf("category=%q, want first writer to win", second.Category)
	}

	other, err := repo.Ensure(ctx, "u2", "Go", schema.SkillCategoryLanguage)
	if err != nil {
		t.Fatalf("Ensure error: %v", err)
	}
	if other.ID == first.ID {
		t.Fatalf("skills must be scoped per user")
	}
}

func TestSkillRepositoryLinkKeepsFirstConfidence(t *testing.T) {
	db := testutil.OpenTestDB(t)
	skills := NewSkillRepository(db)
	contribs := NewContributionRepository(db)
	ctx := context.Background()

	c := seedContribution(t, contribs, "u1", "pr1", 1000, 10, 5)
	s, err := skills.Ensure(ctx, "u1", "Go", schema.SkillCategoryLanguage)
	if err != nil {
		t.Fatalf("Ensure error: %v", err)
	}

	created, err := skills.Link(ctx, c.ID, s.ID, 8)
	if err != nil || !created {
		t.Fatalf("Link created=%v err=%v", created, err)
	}
	created, err = skills.Link(ctx, c.ID, s.ID, 3)
	if err != nil {
		t.Fatalf("Link error: %v", err)
	}
	if created {
		t.Fatalf("second link should be a no-op")
	}

	links, err := skills.ListLinks(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListLinks error: %v", err)
	}
	if len(links) != 1 || links[0].Confidence != 8 {
		t.Fatalf("links=%+v, want single link with confidence 8", links)
	}
}

func TestSkillRepositoryRefreshStats(t *testing.T) {
	db := testutil.OpenTestDB(t)
	skills := NewSkillRepository(db)
	contribs := NewContributionRepository(db)
	ctx := context.Background()

	s, _ := skills.Ensure(ctx, "u1", "Go", schema.SkillCategoryLanguage)
	for i, usedAt := range []int64{2000, 1000, 3000} {
		c := seedContribution(t, contribs, "u1", fmt.Sprintf("pr%d", i), usedAt, 1, 1)
		if _, err := skills.Link(ctx, c.ID, s.ID, 8); err != nil {
			t.Fatalf("Link error: %v", err)
		}
		if err := skills.RefreshStats(ctx, s.ID, usedAt); err != nil {
			t.Fatalf("RefreshStats error: %v", err)
		}
	}
	// usedAt<=0 不影响使用时间
	if err := skills.RefreshStats(ctx, s.ID, 0); err != nil {
		t.Fatalf("RefreshStats error: %v", err)
	}

	got, _ := skills.GetByName(ctx, "u1", "Go")
	if got.Proficiency != 3 || got.TotalContributions != 3 || got.FirstUsed != 1000 || got.LastUsed != 3000 {
		t.Fatalf("got=%+v", got)
	}
}

func TestSkillRepositoryRefreshStatsClampsProficiency(t *testing.T) {
	db := testutil.OpenTestDB(t)
	skills := NewSkillRepository(db)
	contribs := NewContributionRepository(db)
	ctx := context.Background()

	s, _ := skills.Ensure(ctx, "u1", "Go", schema.SkillCategoryLanguage)
	if err := skills.RefreshStats(ctx, s.ID, 0); err != nil {
		t.Fatalf("RefreshStats error: %v", err)
	}
	got, _ := skills.GetByName(ctx, "u1", "Go")
	if got.Proficiency != schema.MinProficiency || got.TotalContributions != 0 {
		t.Fatalf("unlinked skill=%+v, want proficiency 1", got)
	}

	for i := 0; i < 12; i++ {
		c := seedContribution(t, contribs, "u1", fmt.Sprintf("pr%d", i), int64(1000+i), 1, 1)
		_, _ = skills.Link(ctx, c.ID, s.ID, 8)
	}
	if err := skills.RefreshStats(ctx, s.ID, 5000); err != nil {
		t.Fatalf("RefreshStats error: %v", err)
	}
	got, _ = skills.GetByName(ctx, "u1", "Go")
	if got.Proficiency != schema.MaxProficiency || got.TotalContributions != 12 {
		t.Fatalf("got=%+v, want proficiency capped at 10 with 12 links", got)
	}
}

func TestSkillRepositoryTopSkillsByLines(t *testing.T) {
	db := testutil.OpenTestDB(t)
	skills := NewSkillRepository(db)
	contribs := NewContributionRepository(db)
	ctx := context.Background()

	c1 := seedContribution(t, contribs, "u1", "pr1", 1000, 100, 0)
	c2 := seedContribution(t, contribs, "u1", "pr2", 2000, 10, 5)
	goSkill, _ := skills.Ensure(ctx, "u1", "Go", schema.SkillCategoryLanguage)
	docker, _ := skills.Ensure(ctx, "u1", "Docker", schema.SkillCategoryTool)
	_, _ = skills.Link(ctx, c1.ID, goSkill.ID, 8)
	_, _ = skills.Link(ctx, c2.ID, goSkill.ID, 8)
	_, _ = skills.Link(ctx, c2.ID, docker.ID, 5)

	top, err := skills.GetTopSkillsByLines(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetTopSkillsByLines error: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len=%d, want 2", len(top))
	}
	if top[0].Name != "Go" || top[0].TotalLines != 115 || top[0].PRCount != 2 {
		t.Fatalf("top[0]=%+v", top[0])
	}
	if top[1].Name != "Docker" || top[1].TotalLines != 15 {
		t.Fatalf("top[1]=%+v", top[1])
	}

	usage, err := skills.GetTopSkillsByUsage(ctx, "u1", 1500, 10)
	if err != nil {
		t.Fatalf("GetTopSkillsByUsage error: %v", err)
	}
	if len(usage) != 2 || usage[0].Count != 1 {
		t.Fatalf("usage=%+v, want only links from pr2", usage)
	}
}
