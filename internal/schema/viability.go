package schema

import "time"

// ProjectViability 仓库健康度缓存，一个仓库一行（repo_id = owner/name）
// 约束：ExpiresAt > ComputedAt；过期后按需重算。
type ProjectViability struct {
	RepoID                  string    `gorm:"primaryKey;size:300"`
	RepoName                string    `gorm:"size:200;not null"`
	RepoOwner               string    `gorm:"size:200;not null"`
	Score                   int       `gorm:"not null"` // 1-10
	HasReadme               bool      `gorm:"not null;default:false"`
	HasContributing         bool      `gorm:"not null;default:false"`
	HasCodeOfConduct        bool      `gorm:"not null;default:false"`
	AvgResponseTimeDays     *float64  // 维护者平均响应天数，未知为 NULL
	ContributorsPast3Months int       `gorm:"column:contributors_past_3_months;not null;default:0"`
	RecentCommitsPastMonth  int       `gorm:"not null;default:0"`
	OpenIssuesCount         int       `gorm:"not null;default:0"`
	TotalIssuesCount        int       `gorm:"not null;default:0"`
	ComputedAt              int64     `gorm:"not null"`       // Unix ms
	ExpiresAt               int64     `gorm:"not null;index"` // Unix ms
	UpdatedAt               time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (ProjectViability) TableName() string {
	return "project_viability"
}

// ActiveAt 是否在 now 时刻仍有效（严格早于过期时间）
func (v *ProjectViability) ActiveAt(now time.Time) bool {
	return v != nil && v.ExpiresAt > now.UnixMilli()
}
