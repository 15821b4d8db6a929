package github

import (
	"context"
	"fmt"
	"time"

	"github.com/yuqie6/OpenPath/internal/upstream"
)

const closingIssuesQuery = `
query PRClosingIssues($owner: String!, $repo: String!, $number: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $number) {
      closingIssuesReferences(first: 10) {
        nodes {
          id
          number
          title
          url
          closedAt
          repository {
            name
            owner { login }
          }
          labels(first: 5) { nodes { name } }
        }
      }
    }
  }
}`

type closingIssueNode struct {
	ID         string     `json:"id"`
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	ClosedAt   *time.Time `json:"closedAt"`
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
	Labels struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
}

type closingIssuesData struct {
	Repository *struct {
		PullRequest *struct {
			ClosingIssuesReferences struct {
				Nodes []closingIssueNode `json:"nodes"`
			} `json:"closingIssuesReferences"`
		} `json:"pullRequest"`
	} `json:"repository"`
}

// FetchClosingIssues PR 关闭的 issue，最多 10 个；仓库或 PR 不存在时返回空列表
func (c *Client) FetchClosingIssues(ctx context.Context, owner, name string, number int) ([]upstream.ClosingIssue, error) {
	vars := map[string]any{"owner": owner, "repo": name, "number": number}
	var data closingIssuesData
	if err := c.graphql(ctx, closingIssuesQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("查询 %s/%s#%d 关闭的 issue 失败: %w", owner, name, number, err)
	}
	if data.Repository == nil || data.Repository.PullRequest == nil {
		return nil, nil
	}

	nodes := data.Repository.PullRequest.ClosingIssuesReferences.Nodes
	out := make([]upstream.ClosingIssue, 0, len(nodes))
	for _, n := range nodes {
		issue := upstream.ClosingIssue{
			ID:        n.ID,
			Number:    n.Number,
			Title:     n.Title,
			URL:       n.URL,
			RepoOwner: n.Repository.Owner.Login,
			RepoName:  n.Repository.Name,
		}
		if n.ClosedAt != nil {
			issue.ClosedAt = *n.ClosedAt
		}
		for _, l := range n.Labels.Nodes {
			issue.Labels = append(issue.Labels, l.Name)
		}
		out = append(out, issue)
	}
	return out, nil
}
