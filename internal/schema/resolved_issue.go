package schema

import "time"

// ResolvedIssue 用户的已合并 PR 关闭的 issue
// 约束：(user_id, issue_id) 至多一行；首次记录后不再修改。
type ResolvedIssue struct {
	ID              string    `gorm:"primaryKey;size:36"`
	UserID          string    `gorm:"size:64;not null;index;uniqueIndex:uniq_resolved_user_issue,priority:1"`
	IssueID         string    `gorm:"size:128;not null;uniqueIndex:uniq_resolved_user_issue,priority:2"` // 上游稳定 ID
	IssueNumber     int       `gorm:"not null"`
	Title           string    `gorm:"size:500;not null"`
	URL             string    `gorm:"size:1000;not null"`
	RepositoryName  string    `gorm:"size:200;not null"`
	RepositoryOwner string    `gorm:"size:200;not null"`
	ResolvedAt      int64     `gorm:"not null;index"`          // Unix ms
	ResolvedBy      string    `gorm:"size:128;not null;index"` // 关闭它的 PR 的上游 ID
	Labels          JSONArray `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ResolvedIssue) TableName() string {
	return "resolved_issues"
}
