package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/yuqie6/OpenPath/internal/repository"
	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/upstream"
)

type fakeContributionRepo struct {
	items   []schema.Contribution
	listErr error
	calls   int
}

func (r *fakeContributionRepo) CreateIfAbsent(ctx context.Context, c *schema.Contribution) (*schema.Contribution, bool, error) {
	for i := range r.items {
		if r.items[i].UserID == c.UserID && r.items[i].PRID == c.PRID {
			existing := r.items[i]
			return &existing, false, nil
		}
	}
	r.items = append(r.items, *c)
	return c, true, nil
}

func (r *fakeContributionRepo) ListRecent(ctx context.Context, userID string, limit int) ([]schema.Contribution, error) {
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []schema.Contribution
	for _, c := range r.items {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MergedAt > out[j].MergedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeContributionRepo) ListSince(ctx context.Context, userID string, sinceMs int64) ([]schema.Contribution, error) {
	var out []schema.Contribution
	for _, c := range r.items {
		if c.UserID == userID && c.MergedAt >= sinceMs {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeContributionRepo) GetProjectStats(ctx context.Context, userID string, limit int) ([]repository.ProjectStat, error) {
	return nil, nil
}

type fakeRecommendationRepo struct {
	rows       map[string][]schema.OpportunityRecommendation
	replaceErr error
	replaced   int
}

func newFakeRecommendationRepo() *fakeRecommendationRepo {
	return &fakeRecommendationRepo{rows: make(map[string][]schema.OpportunityRecommendation)}
}

func (r *fakeRecommendationRepo) ListActive(ctx context.Context, userID string, now time.Time, limit int) ([]schema.OpportunityRecommendation, error) {
	var out []schema.OpportunityRecommendation
	for _, row := range r.rows[userID] {
		if row.ExpiresAt > now.UnixMilli() {
			out = append(out, row)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRecommendationRepo) ReplaceForUser(ctx context.Context, userID string, rows []schema.OpportunityRecommendation) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.replaced++
	r.rows[userID] = append([]schema.OpportunityRecommendation(nil), rows...)
	return nil
}

type fakeCandidates struct {
	issues []upstream.Issue
	err    error
	calls  int
}

func (f *fakeCandidates) FetchCandidateIssues(ctx context.Context, skills, interests []string) ([]upstream.Issue, error) {
	f.calls++
	return f.issues, f.err
}

type fakeScorer struct {
	scores map[string]int
}

func (f *fakeScorer) Score(ctx context.Context, owner, name string) int {
	if s, ok := f.scores[RepoKey(owner, name)]; ok {
		return s
	}
	return NeutralViabilityScore
}

func (f *fakeScorer) ScoreMany(ctx context.Context, repos []upstream.Repository) map[string]int {
	out := make(map[string]int, len(repos))
	for _, r := range repos {
		out[RepoKey(r.Owner, r.Name)] = f.Score(ctx, r.Owner, r.Name)
	}
	return out
}

var errBoom = errors.New("boom")
