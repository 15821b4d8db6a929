package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yuqie6/OpenPath/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViabilityRepository 仓库健康度缓存仓储
type ViabilityRepository struct {
	db *gorm.DB
}

// NewViabilityRepository 创建仓储
func NewViabilityRepository(db *gorm.DB) *ViabilityRepository {
	return &ViabilityRepository{db: db}
}

// GetActive 获取 now 时刻仍有效的健康度行，过期或不存在返回 nil
func (r *ViabilityRepository) GetActive(ctx context.Context, repoID string, now time.Time) (*schema.ProjectViability, error) {
	var v schema.ProjectViability
	err := r.db.WithContext(ctx).
		Where("repo_id = ? AND expires_at > ?", repoID, now.UnixMilli()).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询仓库健康度失败: %w", err)
	}
	return &v, nil
}

// Upsert 按 repo_id 插入或更新
func (r *ViabilityRepository) Upsert(ctx context.Context, v *schema.ProjectViability) error {
	if v.ExpiresAt <= v.ComputedAt {
		return fmt.Errorf("健康度过期时间必须晚于计算时间: %s", v.RepoID)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "repo_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"repo_name", "repo_owner", "score",
			"has_readme", "has_contributing", "has_code_of_conduct",
			"avg_response_time_days", "contributors_past_3_months", "recent_commits_past_month",
			"open_issues_count", "total_issues_count",
			"computed_at", "expires_at", "updated_at",
		}),
	}).Create(v).Error
	if err != nil {
		return fmt.Errorf("写入仓库健康度失败: %w", err)
	}
	return nil
}

// Count 统计行数
func (r *ViabilityRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&schema.ProjectViability{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计仓库健康度失败: %w", err)
	}
	return n, nil
}
