package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yuqie6/OpenPath/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SkillRepository 技能账本仓储
type SkillRepository struct {
	db *gorm.DB
}

// NewSkillRepository 创建仓储
func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// GetByName 根据 (user, name) 获取技能
func (r *SkillRepository) GetByName(ctx context.Context, userID, name string) (*schema.Skill, error) {
	var skill schema.Skill
	err := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&skill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	return &skill, nil
}

// Ensure 查找或创建技能（冲突时不覆盖，保证并发同步下同名只有一行）
func (r *SkillRepository) Ensure(ctx context.Context, userID, name, category string) (*schema.Skill, error) {
	skill := &schema.Skill{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Category:    category,
		Proficiency: schema.MinProficiency,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(skill).Error
	if err != nil {
		return nil, fmt.Errorf("创建技能失败: %w", err)
	}

	got, err := r.GetByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, fmt.Errorf("创建技能失败: %s 未落库", name)
	}
	return got, nil
}

// Link 关联贡献与技能；已存在时不修改 confidence，返回 false
func (r *SkillRepository) Link(ctx context.Context, contributionID, skillID string, confidence int) (bool, error) {
	link := &schema.ContributionSkill{
		ID:             uuid.NewString(),
		ContributionID: contributionID,
		SkillID:        skillID,
		Confidence:     confidence,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contribution_id"}, {Name: "skill_id"}},
		DoNothing: true,
	}).Create(link)
	if res.Error != nil {
		return false, fmt.Errorf("关联技能失败: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// linkCountSQL 技能当前关联的贡献数
const linkCountSQL = "(SELECT COUNT(*) FROM contribution_skills WHERE skill_id = ?)"

// RefreshStats 由关联表重算累计贡献与熟练度，并把 usedAt 并入首次/最近使用时间。
// 单条 UPDATE 完成，并发同步时后写入者不会覆盖更新的计数，时间戳只会单调推进。
// usedAt<=0 时不改动使用时间。
func (r *SkillRepository) RefreshStats(ctx context.Context, skillID string, usedAt int64) error {
	updates := map[string]any{
		"total_contributions": gorm.Expr(linkCountSQL, skillID),
		"proficiency": gorm.Expr(
			fmt.Sprintf("CASE WHEN %[1]s > %[2]d THEN %[2]d WHEN %[1]s < %[3]d THEN %[3]d ELSE %[1]s END",
				linkCountSQL, schema.MaxProficiency, schema.MinProficiency),
			skillID, skillID, skillID,
		),
	}
	if usedAt > 0 {
		updates["first_used"] = gorm.Expr("CASE WHEN first_used = 0 OR first_used > ? THEN ? ELSE first_used END", usedAt, usedAt)
		updates["last_used"] = gorm.Expr("CASE WHEN last_used < ? THEN ? ELSE last_used END", usedAt, usedAt)
	}

	err := r.db.WithContext(ctx).
		Model(&schema.Skill{}).
		Where("id = ?", skillID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("更新技能统计失败: %w", err)
	}
	return nil
}

// ListByUser 按累计贡献倒序
func (r *SkillRepository) ListByUser(ctx context.Context, userID string) ([]schema.Skill, error) {
	var skills []schema.Skill
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("total_contributions DESC, name ASC").
		Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	return skills, nil
}

// ListLinks 查询贡献的技能关联
func (r *SkillRepository) ListLinks(ctx context.Context, contributionID string) ([]schema.ContributionSkill, error) {
	var links []schema.ContributionSkill
	err := r.db.WithContext(ctx).
		Where("contribution_id = ?", contributionID).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("查询技能关联失败: %w", err)
	}
	return links, nil
}

// ListNamesBetween [startMs, endMs] 内合并的贡献关联到的技能名（去重，升序）
func (r *SkillRepository) ListNamesBetween(ctx context.Context, userID string, startMs, endMs int64) ([]string, error) {
	const sql = `
SELECT DISTINCT s.name
FROM contribution_skills cs
JOIN contributions c ON c.id = cs.contribution_id
JOIN skills s ON s.id = cs.skill_id
WHERE c.user_id = ? AND c.merged_at >= ? AND c.merged_at <= ?
ORDER BY s.name ASC
`
	var names []string
	if err := r.db.WithContext(ctx).Raw(sql, userID, startMs, endMs).Scan(&names).Error; err != nil {
		return nil, fmt.Errorf("查询周期技能失败: %w", err)
	}
	return names, nil
}

// SkillLineStat 技能维度的代码量统计
type SkillLineStat struct {
	Name        string
	Category    string
	Proficiency int
	TotalLines  int64
	PRCount     int64
}

// GetTopSkillsByLines 按关联贡献总行数倒序
func (r *SkillRepository) GetTopSkillsByLines(ctx context.Context, userID string, limit int) ([]SkillLineStat, error) {
	const sql = `
SELECT
  s.name AS name,
  s.category AS category,
  s.proficiency AS proficiency,
  COALESCE(SUM(c.additions + c.deletions), 0) AS total_lines,
  COUNT(DISTINCT c.id) AS pr_count
FROM skills s
JOIN contribution_skills cs ON cs.skill_id = s.id
JOIN contributions c ON c.id = cs.contribution_id
WHERE s.user_id = ?
GROUP BY s.id, s.name, s.category, s.proficiency
ORDER BY total_lines DESC, s.name ASC
LIMIT ?
`
	var out []SkillLineStat
	if err := r.db.WithContext(ctx).Raw(sql, userID, limit).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("统计技能代码量失败: %w", err)
	}
	return out, nil
}

// SkillUsageStat 技能被关联次数
type SkillUsageStat struct {
	Name     string
	Category string
	Count    int64
}

// GetTopSkillsByUsage 按关联次数倒序；sinceMs>0 时只统计该时间之后合并的贡献
func (r *SkillRepository) GetTopSkillsByUsage(ctx context.Context, userID string, sinceMs int64, limit int) ([]SkillUsageStat, error) {
	const sql = `
SELECT
  s.name AS name,
  s.category AS category,
  COUNT(cs.id) AS count
FROM contribution_skills cs
JOIN contributions c ON c.id = cs.contribution_id
JOIN skills s ON s.id = cs.skill_id
WHERE c.user_id = ? AND c.merged_at >= ?
GROUP BY s.id, s.name, s.category
ORDER BY count DESC, s.name ASC
LIMIT ?
`
	var out []SkillUsageStat
	if err := r.db.WithContext(ctx).Raw(sql, userID, sinceMs, limit).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("统计技能使用失败: %w", err)
	}
	return out, nil
}
