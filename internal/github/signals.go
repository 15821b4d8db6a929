package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yuqie6/OpenPath/internal/upstream"
)

const (
	contributorWindow   = 90 * 24 * time.Hour
	commitWindow        = 30 * 24 * time.Hour
	responseSampleSize  = 20
	commitsPerPageLimit = 100
)

type communityProfile struct {
	Files struct {
		Readme            *struct{} `json:"readme"`
		Contributing      *struct{} `json:"contributing"`
		CodeOfConduct     *struct{} `json:"code_of_conduct"`
		CodeOfConductFile *struct{} `json:"code_of_conduct_file"`
	} `json:"files"`
}

type commitItem struct {
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
	Commit struct {
		Author struct {
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

type searchCount struct {
	TotalCount int `json:"total_count"`
}

// FetchRepoSignals 汇总文档、活跃度、issue 比例与响应时间
func (c *Client) FetchRepoSignals(ctx context.Context, owner, name string) (*upstream.RepoSignals, error) {
	repoPath := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
	sig := &upstream.RepoSignals{}

	var profile communityProfile
	if err := c.getJSON(ctx, repoPath+"/community/profile", &profile); err != nil {
		return nil, fmt.Errorf("获取社区文件失败: %w", err)
	}
	sig.HasReadme = profile.Files.Readme != nil
	sig.HasContributing = profile.Files.Contributing != nil
	sig.HasCodeOfConduct = profile.Files.CodeOfConduct != nil || profile.Files.CodeOfConductFile != nil

	now := c.now().UTC()
	q := url.Values{}
	q.Set("since", now.Add(-contributorWindow).Format(time.RFC3339))
	q.Set("per_page", fmt.Sprint(commitsPerPageLimit))
	var commits []commitItem
	if err := c.getJSON(ctx, repoPath+"/commits?"+q.Encode(), &commits); err != nil {
		return nil, fmt.Errorf("获取提交记录失败: %w", err)
	}
	authors := make(map[string]struct{})
	monthAgo := now.Add(-commitWindow)
	for _, cm := range commits {
		author := strings.ToLower(cm.Commit.Author.Email)
		if cm.Author != nil && cm.Author.Login != "" {
			author = strings.ToLower(cm.Author.Login)
		}
		if author != "" {
			authors[author] = struct{}{}
		}
		if !cm.Commit.Author.Date.Before(monthAgo) {
			sig.CommitsRecent++
		}
	}
	sig.ContributorsRecent = len(authors)

	repoQualifier := "repo:" + owner + "/" + name + " type:issue"
	open, err := c.searchIssueCount(ctx, repoQualifier+" state:open")
	if err != nil {
		return nil, err
	}
	total, err := c.searchIssueCount(ctx, repoQualifier)
	if err != nil {
		return nil, err
	}
	sig.OpenIssues, sig.TotalIssues = open, total

	avg, err := c.avgResponseDays(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	sig.AvgResponseTimeDays = avg
	return sig, nil
}

func (c *Client) searchIssueCount(ctx context.Context, query string) (int, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("per_page", "1")
	var res searchCount
	if err := c.getJSON(ctx, "/search/issues?"+q.Encode(), &res); err != nil {
		return 0, fmt.Errorf("统计 issue 失败: %w", err)
	}
	return res.TotalCount, nil
}

// avgResponseDays 最近关闭 issue 从创建到关闭的平均天数；无样本返回 nil
func (c *Client) avgResponseDays(ctx context.Context, repoPath string) (*float64, error) {
	q := url.Values{}
	q.Set("state", "closed")
	q.Set("sort", "updated")
	q.Set("per_page", fmt.Sprint(responseSampleSize))
	var items []restIssue
	if err := c.getJSON(ctx, repoPath+"/issues?"+q.Encode(), &items); err != nil {
		return nil, fmt.Errorf("获取已关闭 issue 失败: %w", err)
	}
	var sum float64
	n := 0
	for _, it := range items {
		if it.PullRequest != nil || it.ClosedAt == nil {
			continue
		}
		sum += it.ClosedAt.Sub(it.CreatedAt).Hours() / 24
		n++
	}
	if n == 0 {
		return nil, nil
	}
	avg := sum / float64(n)
	return &avg, nil
}
