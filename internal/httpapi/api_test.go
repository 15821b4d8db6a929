package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yuqie6/OpenPath/internal/bootstrap"
	"github.com/yuqie6/OpenPath/internal/dto"
	"github.com/yuqie6/OpenPath/internal/eventbus"
	"github.com/yuqie6/OpenPath/internal/pkg/config"
	"github.com/yuqie6/OpenPath/internal/service"
	"github.com/yuqie6/OpenPath/internal/upstream"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestRuntime(t *testing.T) *bootstrap.AgentRuntime {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "openpath.db")
	core, err := bootstrap.NewCoreFromConfig(cfg, func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("NewCoreFromConfig: %v", err)
	}
	t.Cleanup(func() { _ = core.Close() })
	return &bootstrap.AgentRuntime{Core: core, Hub: eventbus.NewHub()}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	h := NewHandler(newTestRuntime(t))
	rec := do(t, h, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[dto.HealthDTO](t, rec)
	if !body.OK || body.Name != "openpath-agent" {
		t.Fatalf("health = %+v", body)
	}
}

func TestSyncThenPortfolioDashboardImpact(t *testing.T) {
	rt := newTestRuntime(t)
	h := NewHandler(rt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := rt.Hub.Subscribe(ctx, 4)

	rec := do(t, h, http.MethodPost, "/api/users/u1/sync?login=octocat")
	if rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d body=%s", rec.Code, rec.Body.String())
	}
	sync := decode[dto.SyncResultDTO](t, rec)
	if sync.Created != 3 || sync.Login != "octocat" || sync.IssuesResolved != 3 {
		t.Fatalf("sync = %+v", sync)
	}
	select {
	case evt := <-events:
		if evt.Type != eventbus.TypeContributionsSynced {
			t.Fatalf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected contributions_synced event")
	}

	// 重复同步幂等
	again := decode[dto.SyncResultDTO](t, do(t, h, http.MethodPost, "/api/users/u1/sync?login=octocat"))
	if again.Created != 0 || again.Skipped != 3 {
		t.Fatalf("second sync = %+v", again)
	}

	portfolio := decode[dto.PortfolioDTO](t, do(t, h, http.MethodGet, "/api/users/u1/portfolio"))
	if portfolio.Stats.TotalContributions != 3 || len(portfolio.Contributions) != 3 {
		t.Fatalf("portfolio stats = %+v", portfolio.Stats)
	}
	if portfolio.Contributions[0].Repository != "pallets-lab/tinyframe" {
		t.Fatalf("latest contribution = %+v", portfolio.Contributions[0])
	}

	dash := decode[dto.DashboardDTO](t, do(t, h, http.MethodGet, "/api/users/u1/dashboard"))
	if len(dash.TopProjects) != 3 || len(dash.TopSkills) == 0 {
		t.Fatalf("dashboard = %+v", dash)
	}

	impact := decode[dto.ImpactDTO](t, do(t, h, http.MethodGet, "/api/users/u1/impact"))
	if impact.Totals.Contributions != 3 || len(impact.Monthly) != 12 {
		t.Fatalf("impact totals = %+v months=%d", impact.Totals, len(impact.Monthly))
	}
	if impact.Totals.ResolvedIssues != 3 {
		t.Fatalf("resolved issues = %d, want 3", impact.Totals.ResolvedIssues)
	}
	// 合并于 20/45/100 天前，分别关闭 1/2/0 个 issue
	want := []struct {
		period   string
		contribs int
		resolved int
	}{
		{"monthly", 1, 1},
		{"quarterly", 2, 3},
		{"yearly", 3, 3},
	}
	if len(impact.ByPeriod) != len(want) {
		t.Fatalf("by period = %+v", impact.ByPeriod)
	}
	for i, w := range want {
		got := impact.ByPeriod[i]
		if got.Period != w.period || got.TotalContributions != w.contribs || got.ResolvedIssues != w.resolved {
			t.Fatalf("period %d = %+v, want %+v", i, got, w)
		}
		if got.PeriodEnd != testNow.UnixMilli() {
			t.Fatalf("period end = %d", got.PeriodEnd)
		}
	}

	backfill := decode[dto.ResolvedSyncDTO](t, do(t, h, http.MethodPost, "/api/users/u1/resolved-issues/sync"))
	if backfill.Created != 0 || backfill.UserID != "u1" {
		t.Fatalf("backfill = %+v", backfill)
	}
}

type failingSource struct{}

func (failingSource) FetchMergedPullRequests(ctx context.Context, login string) ([]upstream.PullRequest, error) {
	return nil, errors.New("upstream down")
}

func TestSyncFailureMapsTo502(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Services.Ingestion = service.NewIngestionService(rt.Repos.Contribution, rt.Repos.Skill, rt.Repos.ResolvedIssue, failingSource{})
	h := NewHandler(rt)

	rec := do(t, h, http.MethodPost, "/api/users/u1/sync?login=octocat")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["error"] != "sync failed" {
		t.Fatalf("body = %v", body)
	}
}

func TestSyncWithoutLoginUsesViewer(t *testing.T) {
	h := NewHandler(newTestRuntime(t))
	rec := do(t, h, http.MethodPost, "/api/users/u2/sync")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[dto.SyncResultDTO](t, rec); got.Login != "octocat" {
		t.Fatalf("login = %q", got.Login)
	}
}

func TestRecommendations(t *testing.T) {
	h := NewHandler(newTestRuntime(t))
	rec := do(t, h, http.MethodGet, "/api/users/u1/recommendations?skills=Python,%20Go&interests=data-science")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	recs := decode[[]dto.RecommendationDTO](t, rec)
	if len(recs) == 0 {
		t.Fatalf("expected recommendations")
	}
	for i, r := range recs {
		if r.Rank != i+1 {
			t.Fatalf("rank %d at %d", r.Rank, i)
		}
		if r.Reason == "" {
			t.Fatalf("missing reason: %+v", r)
		}
		if i > 0 && r.ProjectViability > recs[i-1].ProjectViability {
			t.Fatalf("not sorted by viability: %+v", recs)
		}
	}
}

func TestViabilityKnownAndUnknownRepo(t *testing.T) {
	h := NewHandler(newTestRuntime(t))

	known := decode[dto.ViabilityDTO](t, do(t, h, http.MethodGet, "/api/repos/pallets-lab/tinyframe/viability"))
	if known.Neutral || known.RepoID != "pallets-lab/tinyframe" || known.Score < 1 || known.Score > 10 {
		t.Fatalf("known = %+v", known)
	}
	if known.ExpiresAt-known.ComputedAt != (7 * 24 * time.Hour).Milliseconds() {
		t.Fatalf("ttl = %d", known.ExpiresAt-known.ComputedAt)
	}

	unknown := decode[dto.ViabilityDTO](t, do(t, h, http.MethodGet, "/api/repos/nobody/nothing/viability"))
	if !unknown.Neutral || unknown.Score != service.NeutralViabilityScore {
		t.Fatalf("unknown = %+v", unknown)
	}
}

func TestIssuesFilterCachesAndRefreshes(t *testing.T) {
	h := NewHandler(newTestRuntime(t))

	first := decode[dto.FilterResultDTO](t, do(t, h, http.MethodGet, "/api/issues?language=Python"))
	if first.IsFromCache || first.TotalCount != 3 {
		t.Fatalf("first = %+v", first)
	}
	second := decode[dto.FilterResultDTO](t, do(t, h, http.MethodGet, "/api/issues?language=python&difficulty=beginner"))
	if !second.IsFromCache {
		t.Fatalf("second request should hit cache")
	}
	for _, is := range second.Issues {
		if is.Difficulty != "beginner" {
			t.Fatalf("difficulty filter not applied: %+v", is)
		}
	}
	refreshed := decode[dto.FilterResultDTO](t, do(t, h, http.MethodGet, "/api/issues?language=python&refresh=1"))
	if refreshed.IsFromCache {
		t.Fatalf("refresh should bypass cache")
	}

	stats := decode[dto.CacheStatsDTO](t, do(t, h, http.MethodGet, "/api/cache/stats"))
	if stats.Backend != "db" || stats.Active != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestIssuesRejectsInvalidFilter(t *testing.T) {
	h := NewHandler(newTestRuntime(t))
	rec := do(t, h, http.MethodGet, "/api/issues?difficulty=expert")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/issues?topic="+strings.Repeat("x", 101))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("long topic status = %d, want 400", rec.Code)
	}
}

func TestIssueOptions(t *testing.T) {
	h := NewHandler(newTestRuntime(t))
	opts := decode[dto.FilterOptionsDTO](t, do(t, h, http.MethodGet, "/api/issues/options"))
	if len(opts.Languages) == 0 || len(opts.Topics) == 0 || len(opts.Difficulties) != 3 {
		t.Fatalf("options = %+v", opts)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewHandler(newTestRuntime(t))
	rec := do(t, h, http.MethodGet, "/api/users/u1/sync")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" go, ,Python ,")
	if len(got) != 2 || got[0] != "go" || got[1] != "Python" {
		t.Fatalf("splitList = %v", got)
	}
	if splitList("") != nil {
		t.Fatalf("empty input should give nil")
	}
}
