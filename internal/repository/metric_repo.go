package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yuqie6/OpenPath/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricRepository 周期影响指标仓储
type MetricRepository struct {
	db *gorm.DB
}

// NewMetricRepository 创建仓储
func NewMetricRepository(db *gorm.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// Upsert 按 (user_id, period) 覆盖写入
func (r *MetricRepository) Upsert(ctx context.Context, m *schema.ContributionMetric) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"period_start", "period_end",
			"total_contributions", "total_additions", "total_deletions", "total_files_changed",
			"resolved_issues", "repositories_contributed",
			"languages_used", "skills_demonstrated", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return fmt.Errorf("写入周期指标失败: %w", err)
	}
	return nil
}

// ListByUser 按周期起点倒序
func (r *MetricRepository) ListByUser(ctx context.Context, userID string) ([]schema.ContributionMetric, error) {
	var out []schema.ContributionMetric
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period_start DESC, period ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询周期指标失败: %w", err)
	}
	return out, nil
}
