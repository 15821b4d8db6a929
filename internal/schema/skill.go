package schema

import (
	"time"
)

// 技能分类
const (
	SkillCategoryLanguage  = "language"
	SkillCategoryFramework = "framework"
	SkillCategoryTool      = "tool"
	SkillCategorySkill     = "skill"
)

// 熟练度 = min(MaxProficiency, max(MinProficiency, 关联贡献数))
const (
	MinProficiency = 1
	MaxProficiency = 10
)

// Skill 用户维度的技能账本条目
// 约束：(user_id, name) 至多一行。
type Skill struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	UserID             string    `gorm:"size:64;not null;index;uniqueIndex:uniq_skill_user_name,priority:1"`
	Name               string    `gorm:"size:100;not null;uniqueIndex:uniq_skill_user_name,priority:2"` // 显示名: Go, React
	Category           string    `gorm:"size:32;not null;index"`                                        // language/framework/tool/skill
	Proficiency        int       `gorm:"not null;default:1"`                                            // 1-10
	FirstUsed          int64     `gorm:"default:0"`                                                     // Unix ms，0 表示未使用
	LastUsed           int64     `gorm:"default:0;index"`
	TotalContributions int       `gorm:"not null;default:0"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Skill) TableName() string {
	return "skills"
}

// ContributionSkill 贡献与技能的多对多关联
// 约束：(contribution_id, skill_id) 至多一行；confidence 创建后不再修改。
type ContributionSkill struct {
	ID             string    `gorm:"primaryKey;size:36"`
	ContributionID string    `gorm:"size:36;not null;index;uniqueIndex:uniq_contribution_skill,priority:1"`
	SkillID        string    `gorm:"size:36;not null;index;uniqueIndex:uniq_contribution_skill,priority:2"`
	Confidence     int       `gorm:"not null;default:1"` // 1-10
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ContributionSkill) TableName() string {
	return "contribution_skills"
}
