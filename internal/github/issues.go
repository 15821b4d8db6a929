package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yuqie6/OpenPath/internal/upstream"
)

const (
	repoSearchPerPage   = 20
	issuesPerRepo       = 10
	issueSearchPerPage  = 30
	maxSearchQualifiers = 3
)

type restLabel struct {
	Name string `json:"name"`
}

type restIssue struct {
	NodeID        string      `json:"node_id"`
	ID            int64       `json:"id"`
	Number        int         `json:"number"`
	Title         string      `json:"title"`
	Body          string      `json:"body"`
	HTMLURL       string      `json:"html_url"`
	State         string      `json:"state"`
	Labels        []restLabel `json:"labels"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	ClosedAt      *time.Time  `json:"closed_at"`
	RepositoryURL string      `json:"repository_url"`
	PullRequest   *struct{}   `json:"pull_request"`
}

type restRepo struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	Language    string   `json:"language"`
	Topics      []string `json:"topics"`
	Stars       int      `json:"stargazers_count"`
	Size        int      `json:"size"`
	Description string   `json:"description"`
}

func (r restRepo) toRepository() upstream.Repository {
	return upstream.Repository{
		Owner:       r.Owner.Login,
		Name:        r.Name,
		Language:    r.Language,
		Topics:      r.Topics,
		Stars:       r.Stars,
		SizeKB:      r.Size,
		Description: r.Description,
	}
}

func (it restIssue) toIssue(repo upstream.Repository) upstream.Issue {
	id := it.NodeID
	if id == "" {
		id = strconv.FormatInt(it.ID, 10)
	}
	labels := make([]string, 0, len(it.Labels))
	for _, l := range it.Labels {
		labels = append(labels, l.Name)
	}
	return upstream.Issue{
		ID:        id,
		Number:    it.Number,
		Title:     it.Title,
		Body:      it.Body,
		URL:       it.HTMLURL,
		State:     it.State,
		Labels:    labels,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
		Repo:      repo,
	}
}

// FetchCandidateIssues 按技能语言与兴趣话题检索仓库，取最契合的 15 个，再列出各自的开放 issue
func (c *Client) FetchCandidateIssues(ctx context.Context, skills, interests []string) ([]upstream.Issue, error) {
	queries := candidateRepoQueries(skills, interests)
	var repos []upstream.Repository
	for _, q := range queries {
		found, err := c.searchRepositories(ctx, q)
		if err != nil {
			return nil, err
		}
		repos = append(repos, found...)
	}

	ranked := upstream.RankRepositories(repos, skills, interests, upstream.MaxCandidateRepos)
	var out []upstream.Issue
	for _, repo := range ranked {
		issues, err := c.listOpenIssues(ctx, repo)
		if err != nil {
			// 单个仓库失败不影响其余候选
			slog.Warn("列出仓库 issue 失败", "repo", repo.FullName(), "error", err)
			continue
		}
		out = append(out, issues...)
	}
	return out, nil
}

func candidateRepoQueries(skills, interests []string) []string {
	const base = "archived:false good-first-issues:>0"
	var queries []string
	for i, s := range skills {
		if i >= maxSearchQualifiers {
			break
		}
		if s = strings.TrimSpace(s); s != "" {
			queries = append(queries, base+" language:"+s)
		}
	}
	for i, t := range interests {
		if i >= maxSearchQualifiers {
			break
		}
		if t = strings.TrimSpace(t); t != "" {
			queries = append(queries, base+" topic:"+strings.ToLower(t))
		}
	}
	if len(queries) == 0 {
		queries = append(queries, base)
	}
	return queries
}

func (c *Client) searchRepositories(ctx context.Context, query string) ([]upstream.Repository, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", "stars")
	q.Set("per_page", strconv.Itoa(repoSearchPerPage))
	var res struct {
		Items []restRepo `json:"items"`
	}
	if err := c.getJSON(ctx, "/search/repositories?"+q.Encode(), &res); err != nil {
		return nil, fmt.Errorf("检索仓库失败: %w", err)
	}
	out := make([]upstream.Repository, 0, len(res.Items))
	for _, r := range res.Items {
		out = append(out, r.toRepository())
	}
	return out, nil
}

// listOpenIssues 排除 PR
func (c *Client) listOpenIssues(ctx context.Context, repo upstream.Repository) ([]upstream.Issue, error) {
	q := url.Values{}
	q.Set("state", "open")
	q.Set("sort", "created")
	q.Set("per_page", strconv.Itoa(issuesPerRepo))
	path := "/repos/" + url.PathEscape(repo.Owner) + "/" + url.PathEscape(repo.Name) + "/issues?" + q.Encode()
	var items []restIssue
	if err := c.getJSON(ctx, path, &items); err != nil {
		return nil, err
	}
	out := make([]upstream.Issue, 0, len(items))
	for _, it := range items {
		if it.PullRequest != nil {
			continue
		}
		out = append(out, it.toIssue(repo))
	}
	return out, nil
}

// SearchIssues 按语言/话题检索开放 issue，并补齐仓库元数据
func (c *Client) SearchIssues(ctx context.Context, language, topic string) ([]upstream.Issue, error) {
	parts := []string{"is:issue", "is:open", "archived:false"}
	if language != "" {
		parts = append(parts, "language:"+language)
	}
	if topic != "" {
		parts = append(parts, "topic:"+topic)
	}
	q := url.Values{}
	q.Set("q", strings.Join(parts, " "))
	q.Set("sort", "created")
	q.Set("per_page", strconv.Itoa(issueSearchPerPage))
	var res struct {
		Items []restIssue `json:"items"`
	}
	if err := c.getJSON(ctx, "/search/issues?"+q.Encode(), &res); err != nil {
		return nil, fmt.Errorf("检索 issue 失败: %w", err)
	}

	repos := make(map[string]*upstream.Repository)
	out := make([]upstream.Issue, 0, len(res.Items))
	for _, it := range res.Items {
		if it.PullRequest != nil {
			continue
		}
		repo, ok := repos[it.RepositoryURL]
		if !ok {
			repo = c.lookupRepo(ctx, it.RepositoryURL)
			repos[it.RepositoryURL] = repo
		}
		if repo == nil {
			continue
		}
		out = append(out, it.toIssue(*repo))
	}
	return out, nil
}

// lookupRepo repository_url 形如 {base}/repos/{owner}/{name}；失败返回 nil
func (c *Client) lookupRepo(ctx context.Context, repoURL string) *upstream.Repository {
	idx := strings.Index(repoURL, "/repos/")
	if idx < 0 {
		return nil
	}
	var r restRepo
	if err := c.getJSON(ctx, repoURL[idx:], &r); err != nil {
		slog.Warn("获取仓库元数据失败", "repo_url", repoURL, "error", err)
		return nil
	}
	repo := r.toRepository()
	return &repo
}
