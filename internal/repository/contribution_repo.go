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

// ContributionRepository 贡献仓储
type ContributionRepository struct {
	db *gorm.DB
}

// NewContributionRepository 创建仓储
func NewContributionRepository(db *gorm.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

// GetByPRID 按 (user, 上游 PR ID) 查询，不存在返回 nil
func (r *ContributionRepository) GetByPRID(ctx context.Context, userID, prID string) (*schema.Contribution, error) {
	var c schema.Contribution
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND pr_id = ?", userID, prID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询贡献失败: %w", err)
	}
	return &c, nil
}

// CreateIfAbsent 幂等写入：已存在则返回库中原行（created=false）
func (r *ContributionRepository) CreateIfAbsent(ctx context.Context, c *schema.Contribution) (*schema.Contribution, bool, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "pr_id"}},
			DoNothing: true,
		}).
		Create(c)
	if res.Error != nil {
		return nil, false, fmt.Errorf("写入贡献失败: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return c, true, nil
	}

	existing, err := r.GetByPRID(ctx, c.UserID, c.PRID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("写入贡献失败: 冲突后未找到原记录 %s", c.PRID)
	}
	return existing, false, nil
}

// ListRecent 按合并时间倒序取最近 limit 条（limit<=0 表示全部）
func (r *ContributionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]schema.Contribution, error) {
	var out []schema.Contribution
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("merged_at DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("查询贡献失败: %w", err)
	}
	return out, nil
}

// ListSince 合并时间 >= sinceMs 的贡献
func (r *ContributionRepository) ListSince(ctx context.Context, userID string, sinceMs int64) ([]schema.Contribution, error) {
	var out []schema.Contribution
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND merged_at >= ?", userID, sinceMs).
		Order("merged_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询贡献失败: %w", err)
	}
	return out, nil
}

// Count 统计用户贡献数
func (r *ContributionRepository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&schema.Contribution{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("统计贡献失败: %w", err)
	}
	return n, nil
}

// ProjectStat 按仓库聚合的贡献统计
type ProjectStat struct {
	RepoOwner        string
	RepoName         string
	PRCount          int64
	TotalLines       int64
	LastContribution int64
}

// GetProjectStats 按 PR 数倒序的仓库统计
func (r *ContributionRepository) GetProjectStats(ctx context.Context, userID string, limit int) ([]ProjectStat, error) {
	var out []ProjectStat
	err := r.db.WithContext(ctx).
		Model(&schema.Contribution{}).
		Select("repository_owner AS repo_owner, repository_name AS repo_name, COUNT(id) AS pr_count, COALESCE(SUM(additions + deletions), 0) AS total_lines, COALESCE(MAX(merged_at), 0) AS last_contribution").
		Where("user_id = ?", userID).
		Group("repository_owner, repository_name").
		Order("pr_count DESC, last_contribution DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("统计仓库贡献失败: %w", err)
	}
	return out, nil
}
