package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/OpenPath/internal/schema"
	"gorm.io/gorm"
)

const recommendationBatchSize = 10

// RecommendationRepository 推荐缓存仓储
type RecommendationRepository struct {
	db *gorm.DB
}

// NewRecommendationRepository 创建仓储
func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// ListActive 用户在 now 时刻仍有效的推荐，按健康度、issue 创建时间倒序
func (r *RecommendationRepository) ListActive(ctx context.Context, userID string, now time.Time, limit int) ([]schema.OpportunityRecommendation, error) {
	var out []schema.OpportunityRecommendation
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now.UnixMilli()).
		Order("project_viability DESC, issue_created_at DESC, rank ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("查询推荐缓存失败: %w", err)
	}
	return out, nil
}

// ReplaceForUser 事务内删除用户旧推荐并分批写入新推荐
func (r *RecommendationRepository) ReplaceForUser(ctx context.Context, userID string, rows []schema.OpportunityRecommendation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&schema.OpportunityRecommendation{}).Error; err != nil {
			return fmt.Errorf("清理推荐缓存失败: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].UserID = userID
			if rows[i].ID == "" {
				rows[i].ID = uuid.NewString()
			}
		}
		if err := tx.CreateInBatches(rows, recommendationBatchSize).Error; err != nil {
			return fmt.Errorf("写入推荐缓存失败: %w", err)
		}
		return nil
	})
}

// DeleteExpired 删除 now 时刻已过期的推荐
func (r *RecommendationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now.UnixMilli()).
		Delete(&schema.OpportunityRecommendation{})
	if res.Error != nil {
		return 0, fmt.Errorf("清理过期推荐失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}
