package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/upstream"
)

var recNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func candidate(id, owner, name, lang string, topics []string, title string, labels []string, age time.Duration) upstream.Issue {
	return upstream.Issue{
		ID:        id,
		Number:    1,
		Title:     title,
		URL:       "https://github.com/" + owner + "/" + name + "/issues/1",
		State:     "open",
		Labels:    labels,
		CreatedAt: recNow.Add(-age),
		Repo:      upstream.Repository{Owner: owner, Name: name, Language: lang, Topics: topics},
	}
}

func newRecommender(contribs *fakeContributionRepo, recs *fakeRecommendationRepo, cands *fakeCandidates, scorer *fakeScorer) *RecommenderService {
	return NewRecommenderService(contribs, recs, cands, scorer, 0, func() time.Time { return recNow })
}

func TestRecommendRequiresUserID(t *testing.T) {
	contribs := &fakeContributionRepo{}
	cands := &fakeCandidates{}
	svc := newRecommender(contribs, newFakeRecommendationRepo(), cands, &fakeScorer{})

	_, err := svc.Recommend(context.Background(), "  ", []string{"go"}, nil)
	if !errors.Is(err, ErrUserIDRequired) {
		t.Fatalf("err=%v, want ErrUserIDRequired", err)
	}
	if contribs.calls != 0 || cands.calls != 0 {
		t.Fatalf("validation must happen before any I/O")
	}
}

func TestRecommendBeginnerProfile(t *testing.T) {
	cands := &fakeCandidates{issues: []upstream.Issue{
		candidate("1", "ds", "pandas-lite", "Python", []string{"data-science"}, "Add example notebook", []string{"good first issue"}, 30*24*time.Hour),
		candidate("2", "ds", "engine", "Python", []string{"data-science"}, "Refactor query architecture", nil, 2*24*time.Hour),
		candidate("3", "web", "site", "Ruby", []string{"web"}, "Crash on login", nil, 40*24*time.Hour),
	}}
	scorer := &fakeScorer{scores: map[string]int{"ds/pandas-lite": 6, "ds/engine": 9}}
	recs := newFakeRecommendationRepo()
	svc := newRecommender(&fakeContributionRepo{}, recs, cands, scorer)

	got, err := svc.Recommend(context.Background(), "u1", []string{"python"}, []string{"data-science"})
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2 (ruby issue scores below threshold): %+v", len(got), got)
	}

	// 健康度优先于相关度
	if got[0].IssueID != "2" || got[0].ProjectViability != 9 {
		t.Fatalf("first=%+v", got[0])
	}
	if got[0].Difficulty != schema.LevelAdvanced || got[0].DifficultyMatch {
		t.Fatalf("advanced issue must not get the compatibility bonus for a beginner: %+v", got[0])
	}
	if got[0].RelevanceScore != 3+2+1 {
		t.Fatalf("relevance=%d, want 6", got[0].RelevanceScore)
	}

	second := got[1]
	if second.Difficulty != schema.LevelBeginner || !second.DifficultyMatch {
		t.Fatalf("second=%+v", second)
	}
	wantReason := "matches your Python skills, aligns with your interest in data-science, is a good first issue, is highly relevant to your profile"
	if second.Reason != wantReason {
		t.Fatalf("reason=%q", second.Reason)
	}
	if recs.replaced != 1 || len(recs.rows["u1"]) != 2 {
		t.Fatalf("batch not persisted: replaced=%d rows=%d", recs.replaced, len(recs.rows["u1"]))
	}
	if recs.rows["u1"][0].ExpiresAt != recNow.Add(24*time.Hour).UnixMilli() {
		t.Fatalf("expires_at=%d", recs.rows["u1"][0].ExpiresAt)
	}
}

func TestRecommendCacheHitSkipsGeneration(t *testing.T) {
	cands := &fakeCandidates{issues: []upstream.Issue{
		candidate("1", "o", "r", "Go", nil, "x", []string{"good first issue"}, time.Hour),
	}}
	recs := newFakeRecommendationRepo()
	svc := newRecommender(&fakeContributionRepo{}, recs, cands, &fakeScorer{})
	ctx := context.Background()

	first, _ := svc.Recommend(ctx, "u1", []string{"go"}, nil)
	second, _ := svc.Recommend(ctx, "u1", []string{"go"}, nil)
	if cands.calls != 1 {
		t.Fatalf("calls=%d, want 1", cands.calls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].IssueID != first[0].IssueID || second[0].Reason != first[0].Reason {
		t.Fatalf("cache hit must return the stored batch: first=%+v second=%+v", first, second)
	}
}

func TestRecommendCapsAndOrders(t *testing.T) {
	var issues []upstream.Issue
	scores := map[string]int{}
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("r%d", i)
		issues = append(issues, candidate(fmt.Sprintf("i%d", i), "o", name, "Go", nil, "docs", []string{"good first issue"}, time.Duration(i)*time.Hour))
		scores["o/"+name] = i % 4
	}
	svc := newRecommender(&fakeContributionRepo{}, newFakeRecommendationRepo(), &fakeCandidates{issues: issues}, &fakeScorer{scores: scores})

	got, err := svc.Recommend(context.Background(), "u1", []string{"Go"}, nil)
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if len(got) != MaxRecommendations {
		t.Fatalf("len=%d, want %d", len(got), MaxRecommendations)
	}
	for i := 1; i < len(got); i++ {
		a, b := got[i-1], got[i]
		if a.ProjectViability < b.ProjectViability {
			t.Fatalf("viability order broken at %d", i)
		}
		if a.ProjectViability == b.ProjectViability && a.IssueCreatedAt.Before(b.IssueCreatedAt) {
			t.Fatalf("recency order broken at %d", i)
		}
	}
	if got[0].Rank != 1 || got[len(got)-1].Rank != MaxRecommendations {
		t.Fatalf("ranks not assigned")
	}
}

func TestRecommendDegradesToEmptyOnFailure(t *testing.T) {
	ctx := context.Background()

	svc := newRecommender(&fakeContributionRepo{}, newFakeRecommendationRepo(), &fakeCandidates{err: errBoom}, &fakeScorer{})
	got, err := svc.Recommend(ctx, "u1", []string{"go"}, nil)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("got=%v err=%v, want empty list", got, err)
	}

	svc = newRecommender(&fakeContributionRepo{listErr: errBoom}, newFakeRecommendationRepo(), &fakeCandidates{}, &fakeScorer{})
	got, err = svc.Recommend(ctx, "u1", []string{"go"}, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("got=%v err=%v, want empty list", got, err)
	}
}

func TestRecommendCacheWriteFailureStillReturns(t *testing.T) {
	recs := newFakeRecommendationRepo()
	recs.replaceErr = errBoom
	cands := &fakeCandidates{issues: []upstream.Issue{
		candidate("1", "o", "r", "Go", nil, "x", []string{"good first issue"}, time.Hour),
	}}
	svc := newRecommender(&fakeContributionRepo{}, recs, cands, &fakeScorer{})

	got, err := svc.Recommend(context.Background(), "u1", []string{"go"}, nil)
	if err != nil || len(got) != 1 {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

func TestRecommendationReasonFallback(t *testing.T) {
	got := RecommendationReason(Recommendation{Difficulty: schema.LevelIntermediate, RelevanceScore: 2}, "")
	if got != "matches your general interests" {
		t.Fatalf("got %q", got)
	}
	got = RecommendationReason(Recommendation{SkillMatch: true, RepoLanguage: "Go", Difficulty: schema.LevelIntermediate, RelevanceScore: 3}, "")
	if !strings.HasPrefix(got, "matches your Go skills") || strings.Contains(got, ",") {
		t.Fatalf("got %q", got)
	}
}
