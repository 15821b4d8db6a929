package schema

import "time"

// 难度等级（同时用于用户经验等级）
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// OpportunityRecommendation 用户 × 候选 issue 的推荐缓存行
// 只保存打分输入，不保存聚合分；整批按用户整体替换，不做行级更新。
type OpportunityRecommendation struct {
	ID               string    `gorm:"primaryKey;size:36"`
	UserID           string    `gorm:"size:64;not null;index"`
	Rank             int       `gorm:"not null;default:0"` // 生成时的排序位置
	RepoOwner        string    `gorm:"size:200;not null"`
	RepoName         string    `gorm:"size:200;not null"`
	RepoLanguage     string    `gorm:"size:100"`
	RepoTopics       JSONArray `gorm:"type:text"`
	IssueID          string    `gorm:"size:128;not null"`
	IssueNumber      int       `gorm:"not null"`
	IssueTitle       string    `gorm:"size:500;not null"`
	IssueURL         string    `gorm:"size:1000;not null"`
	IssueLabels      JSONArray `gorm:"type:text"`
	IssueCreatedAt   int64     `gorm:"not null"` // Unix ms
	SkillMatch       bool      `gorm:"not null;default:false"`
	InterestMatch    bool      `gorm:"not null;default:false"`
	DifficultyMatch  bool      `gorm:"not null;default:false"`
	RecentBonus      bool      `gorm:"not null;default:false"`
	RelevanceScore   int       `gorm:"not null;default:0"`
	Difficulty       string    `gorm:"size:20;not null"`
	Reason           string    `gorm:"type:text;not null"`
	ProjectViability int       `gorm:"not null"` // 缓存时的仓库健康度
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	ExpiresAt        int64     `gorm:"not null;index"` // Unix ms
}

// TableName 指定表名
func (OpportunityRecommendation) TableName() string {
	return "opportunity_recommendation"
}
