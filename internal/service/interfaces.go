package service

import (
	"context"
	"time"

	"github.com/yuqie6/OpenPath/internal/repository"
	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/upstream"
)

// 仓储/外部依赖的最小接口集合（ISP）

type ContributionRepository interface {
	CreateIfAbsent(ctx context.Context, c *schema.Contribution) (*schema.Contribution, bool, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]schema.Contribution, error)
	ListSince(ctx context.Context, userID string, sinceMs int64) ([]schema.Contribution, error)
	GetProjectStats(ctx context.Context, userID string, limit int) ([]repository.ProjectStat, error)
}

type SkillRepository interface {
	Ensure(ctx context.Context, userID, name, category string) (*schema.Skill, error)
	Link(ctx context.Context, contributionID, skillID string, confidence int) (bool, error)
	RefreshStats(ctx context.Context, skillID string, usedAt int64) error
	ListByUser(ctx context.Context, userID string) ([]schema.Skill, error)
	GetTopSkillsByLines(ctx context.Context, userID string, limit int) ([]repository.SkillLineStat, error)
	GetTopSkillsByUsage(ctx context.Context, userID string, sinceMs int64, limit int) ([]repository.SkillUsageStat, error)
	ListNamesBetween(ctx context.Context, userID string, startMs, endMs int64) ([]string, error)
}

type ResolvedIssueRepository interface {
	CreateIfAbsent(ctx context.Context, issue *schema.ResolvedIssue) (bool, error)
	CountBetween(ctx context.Context, userID string, startMs, endMs int64) (int64, error)
}

type MetricRepository interface {
	Upsert(ctx context.Context, m *schema.ContributionMetric) error
}

type ViabilityRepository interface {
	GetActive(ctx context.Context, repoID string, now time.Time) (*schema.ProjectViability, error)
	Upsert(ctx context.Context, v *schema.ProjectViability) error
}

type RecommendationRepository interface {
	ListActive(ctx context.Context, userID string, now time.Time, limit int) ([]schema.OpportunityRecommendation, error)
	ReplaceForUser(ctx context.Context, userID string, rows []schema.OpportunityRecommendation) error
}

// ContributionSource 上游已合并 PR 来源
type ContributionSource interface {
	FetchMergedPullRequests(ctx context.Context, login string) ([]upstream.PullRequest, error)
}

// ClosingIssueSource 可选能力：查询已合并 PR 关闭的 issue
type ClosingIssueSource interface {
	FetchClosingIssues(ctx context.Context, owner, name string, number int) ([]upstream.ClosingIssue, error)
}

// RepoSignalSource 仓库健康度信号来源
type RepoSignalSource interface {
	FetchRepoSignals(ctx context.Context, owner, name string) (*upstream.RepoSignals, error)
}

// CandidateIssueSource 推荐候选 issue 来源
type CandidateIssueSource interface {
	FetchCandidateIssues(ctx context.Context, skills, interests []string) ([]upstream.Issue, error)
}

// IssueSource 按语言/话题检索开放 issue
type IssueSource interface {
	SearchIssues(ctx context.Context, language, topic string) ([]upstream.Issue, error)
}

// ViabilityScorer 推荐器依赖的健康度评分
type ViabilityScorer interface {
	Score(ctx context.Context, owner, name string) int
	ScoreMany(ctx context.Context, repos []upstream.Repository) map[string]int
}

// Clock 可注入的时钟
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
