package schema

import (
	"time"

	"gorm.io/datatypes"
)

// 统计周期
const (
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
	PeriodYearly    = "yearly"
)

// ContributionMetric 某个滚动周期内的贡献影响汇总
// 约束：(user_id, period) 至多一行，每次重算覆盖。
type ContributionMetric struct {
	ID                      string                      `gorm:"primaryKey;size:36"`
	UserID                  string                      `gorm:"size:64;not null;uniqueIndex:uniq_metric_user_period,priority:1"`
	Period                  string                      `gorm:"size:16;not null;uniqueIndex:uniq_metric_user_period,priority:2"`
	PeriodStart             int64                       `gorm:"not null"` // Unix ms
	PeriodEnd               int64                       `gorm:"not null"`
	TotalContributions      int                         `gorm:"not null;default:0"`
	TotalAdditions          int                         `gorm:"not null;default:0"`
	TotalDeletions          int                         `gorm:"not null;default:0"`
	TotalFilesChanged       int                         `gorm:"not null;default:0"`
	ResolvedIssues          int                         `gorm:"not null;default:0"`
	RepositoriesContributed int                         `gorm:"not null;default:0"`
	LanguagesUsed           datatypes.JSONSlice[string] `gorm:"not null"`
	SkillsDemonstrated      datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt               time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt               time.Time                   `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (ContributionMetric) TableName() string {
	return "contribution_metrics"
}
