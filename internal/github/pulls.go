package github

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/OpenPath/internal/upstream"
)

const (
	prPageSize  = 50
	prSafetyCap = 200
)

const mergedPRsQuery = `
query MergedPRs($login: String!, $after: String) {
  user(login: $login) {
    pullRequests(first: 50, states: MERGED, after: $after, orderBy: {field: UPDATED_AT, direction: DESC}) {
      nodes {
        id
        number
        title
        url
        mergedAt
        additions
        deletions
        changedFiles
        repository {
          name
          owner { login }
          primaryLanguage { name }
        }
        files(first: 10) { nodes { path } }
        labels(first: 5) { nodes { name } }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

type prNode struct {
	ID           string    `json:"id"`
	Number       int       `json:"number"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	MergedAt     time.Time `json:"mergedAt"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	ChangedFiles int       `json:"changedFiles"`
	Repository   struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
		PrimaryLanguage *struct {
			Name string `json:"name"`
		} `json:"primaryLanguage"`
	} `json:"repository"`
	Files *struct {
		Nodes []struct {
			Path string `json:"path"`
		} `json:"nodes"`
	} `json:"files"`
	Labels struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
}

type mergedPRsData struct {
	User *struct {
		PullRequests struct {
			Nodes    []prNode `json:"nodes"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"pullRequests"`
	} `json:"user"`
}

// ViewerLogin 当前 token 对应的账号
func (c *Client) ViewerLogin(ctx context.Context) (string, error) {
	var data struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
	}
	if err := c.graphql(ctx, `query { viewer { login } }`, nil, &data); err != nil {
		return "", fmt.Errorf("查询当前账号失败: %w", err)
	}
	if data.Viewer.Login == "" {
		return "", fmt.Errorf("查询当前账号失败: 空 login")
	}
	return data.Viewer.Login, nil
}

// FetchMergedPullRequests 分页拉取已合并 PR，最多 200 条
func (c *Client) FetchMergedPullRequests(ctx context.Context, login string) ([]upstream.PullRequest, error) {
	var out []upstream.PullRequest
	var after *string
	for len(out) < prSafetyCap {
		vars := map[string]any{"login": login, "after": after}
		var data mergedPRsData
		if err := c.graphql(ctx, mergedPRsQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("拉取合并 PR 失败: %w", err)
		}
		if data.User == nil {
			return nil, fmt.Errorf("拉取合并 PR 失败: 用户 %s 不存在", login)
		}
		page := data.User.PullRequests
		for _, n := range page.Nodes {
			out = append(out, n.toPullRequest())
			if len(out) >= prSafetyCap {
				break
			}
		}
		if !page.PageInfo.HasNextPage || page.PageInfo.EndCursor == "" || len(page.Nodes) == 0 {
			break
		}
		cursor := page.PageInfo.EndCursor
		after = &cursor
	}
	return out, nil
}

func (n prNode) toPullRequest() upstream.PullRequest {
	pr := upstream.PullRequest{
		ID:           n.ID,
		Number:       n.Number,
		Title:        n.Title,
		URL:          n.URL,
		MergedAt:     n.MergedAt,
		Additions:    n.Additions,
		Deletions:    n.Deletions,
		ChangedFiles: n.ChangedFiles,
		RepoOwner:    n.Repository.Owner.Login,
		RepoName:     n.Repository.Name,
	}
	if n.Repository.PrimaryLanguage != nil {
		pr.PrimaryLanguage = n.Repository.PrimaryLanguage.Name
	}
	if n.Files != nil {
		for _, f := range n.Files.Nodes {
			pr.Files = append(pr.Files, f.Path)
		}
	}
	for _, l := range n.Labels.Nodes {
		pr.Labels = append(pr.Labels, l.Name)
	}
	return pr
}
