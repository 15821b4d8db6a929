// Package upstream 定义代码托管平台的只读数据模型，供同步、推荐和筛选共用。
package upstream

import (
	"fmt"
	"strings"
	"time"
)

// PullRequest 已合并的 PR
type PullRequest struct {
	ID              string
	Number          int
	Title           string
	URL             string
	MergedAt        time.Time
	Additions       int
	Deletions       int
	ChangedFiles    int
	RepoOwner       string
	RepoName        string
	PrimaryLanguage string // 未知为空
	Files           []string
	Labels          []string
}

// Repository 仓库摘要
type Repository struct {
	Owner       string   `json:"owner" yaml:"owner"`
	Name        string   `json:"name" yaml:"name"`
	Language    string   `json:"language" yaml:"language"`
	Topics      []string `json:"topics" yaml:"topics"`
	Stars       int      `json:"stars" yaml:"stars"`
	SizeKB      int      `json:"size_kb" yaml:"size_kb"`
	Description string   `json:"description" yaml:"description"`
}

// FullName owner/name
func (r Repository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// HasTopic 大小写不敏感匹配话题
func (r Repository) HasTopic(topic string) bool {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return false
	}
	for _, t := range r.Topics {
		if strings.ToLower(t) == topic {
			return true
		}
	}
	return false
}

// Issue 开放 issue
type Issue struct {
	ID        string     `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	URL       string     `json:"url"`
	State     string     `json:"state"`
	Labels    []string   `json:"labels"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Repo      Repository `json:"repository"`
}

// HasLabel 大小写不敏感匹配标签
func (i Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

// RepoSignals 仓库健康度原始信号
type RepoSignals struct {
	HasReadme           bool
	HasContributing     bool
	HasCodeOfConduct    bool
	AvgResponseTimeDays *float64 // 无法计算时为 nil
	ContributorsRecent  int      // 近 3 个月
	CommitsRecent       int      // 近 1 个月
	OpenIssues          int
	TotalIssues         int
}

// ClosingIssue 被已合并 PR 关闭的 issue
type ClosingIssue struct {
	ID        string
	Number    int
	Title     string
	URL       string
	ClosedAt  time.Time // 上游未给出时为零值
	Labels    []string
	RepoOwner string
	RepoName  string
}
