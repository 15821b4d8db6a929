package fixture

import (
	"context"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestDefaultCatalogParses(t *testing.T) {
	c, err := Default(fixedNow)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(c.Repositories()) != 4 {
		t.Fatalf("repositories = %d, want 4", len(c.Repositories()))
	}
	login, err := c.ViewerLogin(context.Background())
	if err != nil || login != "octocat" {
		t.Fatalf("viewer = %q, %v", login, err)
	}
}

func TestParseRejectsProjectWithoutName(t *testing.T) {
	_, err := Parse([]byte("projects:\n  - repo:\n      owner: a\n"), fixedNow)
	if err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestFetchMergedPullRequestsUsesRelativeDates(t *testing.T) {
	c, _ := Default(fixedNow)
	prs, err := c.FetchMergedPullRequests(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("FetchMergedPullRequests: %v", err)
	}
	if len(prs) != 3 {
		t.Fatalf("prs = %d, want 3", len(prs))
	}
	first := prs[0]
	if first.RepoOwner != "pallets-lab" || first.RepoName != "tinyframe" {
		t.Fatalf("repo = %s/%s", first.RepoOwner, first.RepoName)
	}
	if want := fixedNow().AddDate(0, 0, -20); !first.MergedAt.Equal(want) {
		t.Fatalf("merged_at = %v, want %v", first.MergedAt, want)
	}
	if first.ChangedFiles != 2 {
		t.Fatalf("changed_files = %d, want 2", first.ChangedFiles)
	}

	none, err := c.FetchMergedPullRequests(context.Background(), "nobody")
	if err != nil || len(none) != 0 {
		t.Fatalf("unknown login = %v, %v", none, err)
	}
}

func TestFetchRepoSignals(t *testing.T) {
	c, _ := Default(fixedNow)
	sig, err := c.FetchRepoSignals(context.Background(), "Pallets-Lab", "TinyFrame")
	if err != nil {
		t.Fatalf("FetchRepoSignals: %v", err)
	}
	if !sig.HasReadme || sig.AvgResponseTimeDays == nil || *sig.AvgResponseTimeDays != 0.5 {
		t.Fatalf("signals = %+v", sig)
	}

	shipit, _ := c.FetchRepoSignals(context.Background(), "cloudnative-sandbox", "shipit")
	if shipit.AvgResponseTimeDays != nil {
		t.Fatalf("missing avg_response_days should stay nil")
	}

	if _, err := c.FetchRepoSignals(context.Background(), "x", "y"); err == nil {
		t.Fatalf("expected error for unknown repo")
	}
}

func TestFetchCandidateIssuesOrdersByFit(t *testing.T) {
	c, _ := Default(fixedNow)
	issues, err := c.FetchCandidateIssues(context.Background(), []string{"Go"}, []string{"devops"})
	if err != nil {
		t.Fatalf("FetchCandidateIssues: %v", err)
	}
	if len(issues) != 8 {
		t.Fatalf("issues = %d, want 8", len(issues))
	}
	if issues[0].Repo.FullName() != "cloudnative-sandbox/shipit" {
		t.Fatalf("first repo = %s", issues[0].Repo.FullName())
	}
}

func TestSearchIssuesFilters(t *testing.T) {
	c, _ := Default(fixedNow)
	ctx := context.Background()

	py, _ := c.SearchIssues(ctx, "python", "")
	if len(py) != 3 {
		t.Fatalf("python issues = %d, want 3", len(py))
	}
	for i := 1; i < len(py); i++ {
		if py[i].CreatedAt.After(py[i-1].CreatedAt) {
			t.Fatalf("issues not sorted by created_at desc")
		}
	}

	web, _ := c.SearchIssues(ctx, "", "web")
	if len(web) != 3 {
		t.Fatalf("web-development issues = %d, want 3", len(web))
	}

	both, _ := c.SearchIssues(ctx, "TypeScript", "data-science")
	if len(both) != 2 || both[0].Number != 7 {
		t.Fatalf("typescript+data-science = %+v", both)
	}
}

func TestFetchClosingIssues(t *testing.T) {
	c, _ := Default(fixedNow)
	ctx := context.Background()

	issues, err := c.FetchClosingIssues(ctx, "Cloudnative-Sandbox", "shipit", 41)
	if err != nil {
		t.Fatalf("FetchClosingIssues: %v", err)
	}
	if len(issues) != 2 || issues[0].Number != 35 || issues[0].RepoName != "shipit" {
		t.Fatalf("issues = %+v", issues)
	}
	if want := fixedNow().AddDate(0, 0, -45); !issues[0].ClosedAt.Equal(want) {
		t.Fatalf("closedAt = %v, want %v", issues[0].ClosedAt, want)
	}

	none, err := c.FetchClosingIssues(ctx, "webcraft", "railsy", 1)
	if err != nil || len(none) != 0 {
		t.Fatalf("unknown PR = %v, %v", none, err)
	}
}
