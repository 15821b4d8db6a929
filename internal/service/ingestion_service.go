package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/upstream"
)

// ViewerResolver 可选能力：未指定 login 时解析当前凭证对应的账号
type ViewerResolver interface {
	ViewerLogin(ctx context.Context) (string, error)
}

// SyncResult 一次同步的结果
type SyncResult struct {
	UserID         string `json:"user_id"`
	Login          string `json:"login"`
	Fetched        int    `json:"fetched"`
	Created        int    `json:"created"`
	Skipped        int    `json:"skipped"`
	SkillsLinked   int    `json:"skills_linked"`
	IssuesResolved int    `json:"issues_resolved"`
}

// IngestionService 贡献同步、技能打标与已解决 issue 记录
type IngestionService struct {
	contribs ContributionRepository
	skills   SkillRepository
	resolved ResolvedIssueRepository
	source   ContributionSource
}

// NewIngestionService 创建同步服务；resolved 为 nil 或 source 不支持查询关闭的 issue 时跳过该步骤
func NewIngestionService(contribs ContributionRepository, skills SkillRepository, resolved ResolvedIssueRepository, source ContributionSource) *IngestionService {
	return &IngestionService{contribs: contribs, skills: skills, resolved: resolved, source: source}
}

// SyncContributions 拉取 login 的已合并 PR 并幂等落库；新贡献会被打上技能。
// 上游或落库失败返回包装了 ErrSyncFailed 的错误；技能打标失败只记录日志。
func (s *IngestionService) SyncContributions(ctx context.Context, userID, login string) (*SyncResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	login = strings.TrimSpace(login)
	if login == "" {
		resolver, ok := s.source.(ViewerResolver)
		if !ok {
			return nil, ErrLoginRequired
		}
		resolved, err := resolver.ViewerLogin(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: 解析账号失败: %w", ErrSyncFailed, err)
		}
		login = resolved
	}

	prs, err := s.source.FetchMergedPullRequests(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("%w: 拉取合并 PR 失败: %w", ErrSyncFailed, err)
	}

	result := &SyncResult{UserID: userID, Login: login, Fetched: len(prs)}
	for _, pr := range prs {
		c := contributionFromPR(userID, pr)
		stored, created, err := s.contribs.CreateIfAbsent(ctx, c)
		if err != nil {
			return result, fmt.Errorf("%w: %w", ErrSyncFailed, err)
		}
		if !created {
			result.Skipped++
			continue
		}
		result.Created++
		result.SkillsLinked += s.tagSkills(ctx, stored)
		result.IssuesResolved += s.recordResolvedIssues(ctx, stored)
	}

	slog.Info("贡献同步完成", "user_id", userID, "login", login,
		"fetched", result.Fetched, "created", result.Created, "skipped", result.Skipped,
		"issues_resolved", result.IssuesResolved)
	return result, nil
}

// SyncResolvedIssues 为用户全部已落库贡献补录关闭的 issue，返回新记录数
func (s *IngestionService) SyncResolvedIssues(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrUserIDRequired
	}
	contribs, err := s.contribs.ListRecent(ctx, userID, 0)
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range contribs {
		created += s.recordResolvedIssues(ctx, &contribs[i])
	}
	slog.Info("已解决 issue 补录完成", "user_id", userID, "contributions", len(contribs), "created", created)
	return created, nil
}

// recordResolvedIssues 查询单个贡献关闭的 issue 并幂等落库；失败只记录日志
func (s *IngestionService) recordResolvedIssues(ctx context.Context, c *schema.Contribution) int {
	if s.resolved == nil {
		return 0
	}
	src, ok := s.source.(ClosingIssueSource)
	if !ok {
		return 0
	}
	issues, err := src.FetchClosingIssues(ctx, c.RepositoryOwner, c.RepositoryName, c.PRNumber)
	if err != nil {
		slog.Warn("查询关闭的 issue 失败", "contribution", c.PRID, "error", err)
		return 0
	}

	created := 0
	for _, issue := range issues {
		if issue.ID == "" {
			continue
		}
		row := resolvedIssueFrom(c, issue)
		inserted, err := s.resolved.CreateIfAbsent(ctx, row)
		if err != nil {
			slog.Warn("记录已解决 issue 失败", "contribution", c.PRID, "issue", issue.ID, "error", err)
			continue
		}
		if inserted {
			created++
		}
	}
	return created
}

func resolvedIssueFrom(c *schema.Contribution, issue upstream.ClosingIssue) *schema.ResolvedIssue {
	row := &schema.ResolvedIssue{
		UserID:          c.UserID,
		IssueID:         issue.ID,
		IssueNumber:     issue.Number,
		Title:           issue.Title,
		URL:             issue.URL,
		RepositoryOwner: issue.RepoOwner,
		RepositoryName:  issue.RepoName,
		ResolvedAt:      c.MergedAt,
		ResolvedBy:      c.PRID,
		Labels:          schema.NewJSONArray(issue.Labels),
	}
	if !issue.ClosedAt.IsZero() {
		row.ResolvedAt = issue.ClosedAt.UnixMilli()
	}
	if row.RepositoryOwner == "" || row.RepositoryName == "" {
		row.RepositoryOwner, row.RepositoryName = c.RepositoryOwner, c.RepositoryName
	}
	return row
}

// tagSkills 返回新建的关联数
func (s *IngestionService) tagSkills(ctx context.Context, c *schema.Contribution) int {
	linked := 0
	for _, d := range DetectSkills(c.Language(), c.Files.Strings(), c.Labels.Strings()) {
		skill, err := s.skills.Ensure(ctx, c.UserID, d.Name, d.Category)
		if err != nil {
			slog.Warn("技能打标失败", "user_id", c.UserID, "skill", d.Name, "error", err)
			continue
		}
		created, err := s.skills.Link(ctx, c.ID, skill.ID, d.Confidence)
		if err != nil {
			slog.Warn("关联技能失败", "contribution", c.PRID, "skill", d.Name, "error", err)
			continue
		}
		if created {
			linked++
		}
		if err := s.skills.RefreshStats(ctx, skill.ID, c.MergedAt); err != nil {
			slog.Warn("更新技能统计失败", "skill", d.Name, "error", err)
		}
	}
	return linked
}

func contributionFromPR(userID string, pr upstream.PullRequest) *schema.Contribution {
	c := &schema.Contribution{
		UserID:          userID,
		PRID:            pr.ID,
		PRNumber:        pr.Number,
		Title:           pr.Title,
		URL:             pr.URL,
		RepositoryName:  pr.RepoName,
		RepositoryOwner: pr.RepoOwner,
		MergedAt:        pr.MergedAt.UnixMilli(),
		Additions:       pr.Additions,
		Deletions:       pr.Deletions,
		ChangedFiles:    pr.ChangedFiles,
		Labels:          schema.NewJSONArray(pr.Labels),
		Files:           schema.NewJSONArray(pr.Files),
	}
	if lang := strings.TrimSpace(pr.PrimaryLanguage); lang != "" {
		c.PrimaryLanguage = &lang
	}
	return c
}
