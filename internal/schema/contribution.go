package schema

import (
	"fmt"
	"time"
)

// Contribution 一次已合并的代码贡献（PR）
// 首次同步时创建，之后不再修改；仅随用户删除级联删除。
type Contribution struct {
	ID              string    `gorm:"primaryKey;size:36"`
	UserID          string    `gorm:"size:64;not null;index;uniqueIndex:uniq_contribution_user_pr,priority:1"`
	PRID            string    `gorm:"column:pr_id;size:128;not null;uniqueIndex:uniq_contribution_user_pr,priority:2"` // 上游稳定 ID
	PRNumber        int       `gorm:"column:pr_number;not null"`
	Title           string    `gorm:"size:500;not null"`
	URL             string    `gorm:"size:1000;not null"`
	RepositoryName  string    `gorm:"size:200;not null;index"`
	RepositoryOwner string    `gorm:"size:200;not null;index"`
	MergedAt        int64     `gorm:"not null;index"` // Unix ms
	Additions       int       `gorm:"not null;default:0"`
	Deletions       int       `gorm:"not null;default:0"`
	ChangedFiles    int       `gorm:"not null;default:0"`
	PrimaryLanguage *string   `gorm:"size:100"`
	Labels          JSONArray `gorm:"type:text"`
	Files           JSONArray `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Contribution) TableName() string {
	return "contributions"
}

// RepoFullName owner/name
func (c *Contribution) RepoFullName() string {
	return fmt.Sprintf("%s/%s", c.RepositoryOwner, c.RepositoryName)
}

// Language 主语言，未知时为空串
func (c *Contribution) Language() string {
	if c.PrimaryLanguage == nil {
		return ""
	}
	return *c.PrimaryLanguage
}

// MergedTime 合并时间
func (c *Contribution) MergedTime() time.Time {
	return time.UnixMilli(c.MergedAt)
}

// TotalLines 增删行数之和
func (c *Contribution) TotalLines() int {
	return c.Additions + c.Deletions
}
