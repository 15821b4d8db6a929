package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yuqie6/OpenPath/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResolvedIssueRepository 已解决 issue 仓储
type ResolvedIssueRepository struct {
	db *gorm.DB
}

// NewResolvedIssueRepository 创建仓储
func NewResolvedIssueRepository(db *gorm.DB) *ResolvedIssueRepository {
	return &ResolvedIssueRepository{db: db}
}

// CreateIfAbsent 按 (user_id, issue_id) 幂等写入，已存在时返回 false
func (r *ResolvedIssueRepository) CreateIfAbsent(ctx context.Context, issue *schema.ResolvedIssue) (bool, error) {
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "issue_id"}},
		DoNothing: true,
	}).Create(issue)
	if res.Error != nil {
		return false, fmt.Errorf("写入已解决 issue 失败: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CountBetween 统计 [startMs, endMs] 内解决的 issue；startMs<=0 且 endMs<=0 时统计全部
func (r *ResolvedIssueRepository) CountBetween(ctx context.Context, userID string, startMs, endMs int64) (int64, error) {
	q := r.db.WithContext(ctx).Model(&schema.ResolvedIssue{}).Where("user_id = ?", userID)
	if startMs > 0 || endMs > 0 {
		q = q.Where("resolved_at >= ? AND resolved_at <= ?", startMs, endMs)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计已解决 issue 失败: %w", err)
	}
	return n, nil
}

// ListByUser 按解决时间倒序
func (r *ResolvedIssueRepository) ListByUser(ctx context.Context, userID string, limit int) ([]schema.ResolvedIssue, error) {
	var out []schema.ResolvedIssue
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("resolved_at DESC, issue_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("查询已解决 issue 失败: %w", err)
	}
	return out, nil
}
