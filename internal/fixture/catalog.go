// Package fixture 用内置 YAML 目录模拟上游，实现与 GitHub 客户端相同的接口。
package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/yuqie6/OpenPath/internal/upstream"
	"go.yaml.in/yaml/v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type signalsDoc struct {
	HasReadme          bool     `yaml:"has_readme"`
	HasContributing    bool     `yaml:"has_contributing"`
	HasCodeOfConduct   bool     `yaml:"has_code_of_conduct"`
	AvgResponseDays    *float64 `yaml:"avg_response_days"`
	ContributorsRecent int      `yaml:"contributors_recent"`
	CommitsRecent      int      `yaml:"commits_recent"`
	OpenIssues         int      `yaml:"open_issues"`
	TotalIssues        int      `yaml:"total_issues"`
}

type issueDoc struct {
	Number  int      `yaml:"number"`
	Title   string   `yaml:"title"`
	Body    string   `yaml:"body"`
	Labels  []string `yaml:"labels"`
	AgeDays int      `yaml:"age_days"`
}

type projectDoc struct {
	Repo    upstream.Repository `yaml:"repo"`
	Signals signalsDoc          `yaml:"signals"`
	Issues  []issueDoc          `yaml:"issues"`
}

type closedIssueDoc struct {
	Number int      `yaml:"number"`
	Title  string   `yaml:"title"`
	Labels []string `yaml:"labels"`
}

type contributionDoc struct {
	ID            string           `yaml:"id"`
	Number        int              `yaml:"number"`
	Title         string           `yaml:"title"`
	Repo          string           `yaml:"repo"`
	Language      string           `yaml:"language"`
	MergedDaysAgo int              `yaml:"merged_days_ago"`
	Additions     int              `yaml:"additions"`
	Deletions     int              `yaml:"deletions"`
	Files         []string         `yaml:"files"`
	Labels        []string         `yaml:"labels"`
	Closes        []closedIssueDoc `yaml:"closes"`
}

type catalogDoc struct {
	Viewer        string                       `yaml:"viewer"`
	Projects      []projectDoc                 `yaml:"projects"`
	Contributions map[string][]contributionDoc `yaml:"contributions"`
}

// Catalog 只读的上游数据目录
type Catalog struct {
	doc catalogDoc
	now func() time.Time
}

// Default 内置目录
func Default(now func() time.Time) (*Catalog, error) {
	return Parse(defaultCatalog, now)
}

// LoadFile 从文件加载目录
func LoadFile(path string, now func() time.Time) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取目录文件失败: %w", err)
	}
	return Parse(data, now)
}

// Parse 解析 YAML 目录
func Parse(data []byte, now func() time.Time) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("解析目录失败: %w", err)
	}
	for i, p := range doc.Projects {
		if p.Repo.Owner == "" || p.Repo.Name == "" {
			return nil, fmt.Errorf("解析目录失败: 第 %d 个项目缺少 owner/name", i+1)
		}
	}
	if now == nil {
		now = time.Now
	}
	return &Catalog{doc: doc, now: now}, nil
}

// ViewerLogin 目录中的默认账号
func (c *Catalog) ViewerLogin(ctx context.Context) (string, error) {
	if c.doc.Viewer == "" {
		return "", fmt.Errorf("目录未配置 viewer")
	}
	return c.doc.Viewer, nil
}

// FetchMergedPullRequests 未登记的账号返回空列表
func (c *Catalog) FetchMergedPullRequests(ctx context.Context, login string) ([]upstream.PullRequest, error) {
	docs := c.doc.Contributions[login]
	now := c.now()
	out := make([]upstream.PullRequest, 0, len(docs))
	for _, d := range docs {
		owner, name, ok := strings.Cut(d.Repo, "/")
		if !ok {
			return nil, fmt.Errorf("贡献 %s 的仓库格式应为 owner/name: %q", d.ID, d.Repo)
		}
		out = append(out, upstream.PullRequest{
			ID:              d.ID,
			Number:          d.Number,
			Title:           d.Title,
			URL:             fmt.Sprintf("https://github.com/%s/pull/%d", d.Repo, d.Number),
			MergedAt:        now.AddDate(0, 0, -d.MergedDaysAgo),
			Additions:       d.Additions,
			Deletions:       d.Deletions,
			ChangedFiles:    len(d.Files),
			RepoOwner:       owner,
			RepoName:        name,
			PrimaryLanguage: d.Language,
			Files:           d.Files,
			Labels:          d.Labels,
		})
	}
	return out, nil
}

// FetchClosingIssues 目录中 PR 关闭的 issue，关闭时间即合并时间；未登记的 PR 返回空列表
func (c *Catalog) FetchClosingIssues(ctx context.Context, owner, name string, number int) ([]upstream.ClosingIssue, error) {
	repo := owner + "/" + name
	now := c.now()
	for _, docs := range c.doc.Contributions {
		for _, d := range docs {
			if d.Number != number || !strings.EqualFold(d.Repo, repo) {
				continue
			}
			repoOwner, repoName, _ := strings.Cut(d.Repo, "/")
			out := make([]upstream.ClosingIssue, 0, len(d.Closes))
			for _, ci := range d.Closes {
				out = append(out, upstream.ClosingIssue{
					ID:        fmt.Sprintf("%s#%d", d.Repo, ci.Number),
					Number:    ci.Number,
					Title:     ci.Title,
					URL:       fmt.Sprintf("https://github.com/%s/issues/%d", d.Repo, ci.Number),
					ClosedAt:  now.AddDate(0, 0, -d.MergedDaysAgo),
					Labels:    ci.Labels,
					RepoOwner: repoOwner,
					RepoName:  repoName,
				})
			}
			return out, nil
		}
	}
	return nil, nil
}

func (c *Catalog) project(owner, name string) (*projectDoc, bool) {
	for i := range c.doc.Projects {
		p := &c.doc.Projects[i]
		if strings.EqualFold(p.Repo.Owner, owner) && strings.EqualFold(p.Repo.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// FetchRepoSignals 未登记的仓库返回错误
func (c *Catalog) FetchRepoSignals(ctx context.Context, owner, name string) (*upstream.RepoSignals, error) {
	p, ok := c.project(owner, name)
	if !ok {
		return nil, fmt.Errorf("目录中没有仓库 %s/%s", owner, name)
	}
	s := p.Signals
	return &upstream.RepoSignals{
		HasReadme:           s.HasReadme,
		HasContributing:     s.HasContributing,
		HasCodeOfConduct:    s.HasCodeOfConduct,
		AvgResponseTimeDays: s.AvgResponseDays,
		ContributorsRecent:  s.ContributorsRecent,
		CommitsRecent:       s.CommitsRecent,
		OpenIssues:          s.OpenIssues,
		TotalIssues:         s.TotalIssues,
	}, nil
}

func (c *Catalog) issuesOf(p *projectDoc) []upstream.Issue {
	now := c.now()
	out := make([]upstream.Issue, 0, len(p.Issues))
	for _, d := range p.Issues {
		created := now.AddDate(0, 0, -d.AgeDays)
		out = append(out, upstream.Issue{
			ID:        fmt.Sprintf("%s#%d", p.Repo.FullName(), d.Number),
			Number:    d.Number,
			Title:     d.Title,
			Body:      d.Body,
			URL:       fmt.Sprintf("https://github.com/%s/issues/%d", p.Repo.FullName(), d.Number),
			State:     "open",
			Labels:    d.Labels,
			CreatedAt: created,
			UpdatedAt: created,
			Repo:      p.Repo,
		})
	}
	return out
}

// FetchCandidateIssues 按契合度取前 15 个项目的全部 issue
func (c *Catalog) FetchCandidateIssues(ctx context.Context, skills, interests []string) ([]upstream.Issue, error) {
	repos := make([]upstream.Repository, 0, len(c.doc.Projects))
	for _, p := range c.doc.Projects {
		repos = append(repos, p.Repo)
	}
	var out []upstream.Issue
	for _, r := range upstream.RankRepositories(repos, skills, interests, upstream.MaxCandidateRepos) {
		p, _ := c.project(r.Owner, r.Name)
		out = append(out, c.issuesOf(p)...)
	}
	return out, nil
}

// SearchIssues 语言大小写不敏感相等，话题为子串匹配；结果按创建时间倒序
func (c *Catalog) SearchIssues(ctx context.Context, language, topic string) ([]upstream.Issue, error) {
	var out []upstream.Issue
	for i := range c.doc.Projects {
		p := &c.doc.Projects[i]
		if language != "" && !strings.EqualFold(p.Repo.Language, language) {
			continue
		}
		if topic != "" && !hasTopicLike(p.Repo.Topics, topic) {
			continue
		}
		out = append(out, c.issuesOf(p)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func hasTopicLike(topics []string, topic string) bool {
	topic = strings.ToLower(topic)
	for _, t := range topics {
		if strings.Contains(strings.ToLower(t), topic) {
			return true
		}
	}
	return false
}

// Repositories 目录中的全部仓库
func (c *Catalog) Repositories() []upstream.Repository {
	out := make([]upstream.Repository, 0, len(c.doc.Projects))
	for _, p := range c.doc.Projects {
		out = append(out, p.Repo)
	}
	return out
}
