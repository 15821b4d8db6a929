package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/OpenPath/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheRepository 通用 TTL 缓存表仓储
type CacheRepository struct {
	db *gorm.DB
}

// NewCacheRepository 创建仓储
func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// GetActive 取 now 时刻未过期的缓存行，不存在或已过期返回 nil
func (r *CacheRepository) GetActive(ctx context.Context, key string, now time.Time) (*schema.CacheEntry, error) {
	var e schema.CacheEntry
	err := r.db.WithContext(ctx).
		Where("cache_key = ? AND expires_at > ?", key, now.UnixMilli()).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取缓存失败: %w", err)
	}
	return &e, nil
}

// Upsert 按 cache_key 覆盖写入
func (r *CacheRepository) Upsert(ctx context.Context, e *schema.CacheEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "created_at", "expires_at", "data_type"}),
	}).Create(e).Error
	if err != nil {
		return fmt.Errorf("写入缓存失败: %w", err)
	}
	return nil
}

// Delete 删除指定 key，不存在不报错
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&schema.CacheEntry{}).Error; err != nil {
		return fmt.Errorf("删除缓存失败: %w", err)
	}
	return nil
}

// DeleteExpired 删除 now 时刻已过期的行
func (r *CacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UnixMilli()).Delete(&schema.CacheEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("清理过期缓存失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountAll 总行数
func (r *CacheRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&schema.CacheEntry{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计缓存失败: %w", err)
	}
	return n, nil
}

// CountExpired now 时刻已过期的行数
func (r *CacheRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&schema.CacheEntry{}).Where("expires_at <= ?", now.UnixMilli()).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("统计过期缓存失败: %w", err)
	}
	return n, nil
}

// ListActiveKeys now 时刻未过期的 key，按 key 升序
func (r *CacheRepository) ListActiveKeys(ctx context.Context, dataType string, now time.Time) ([]string, error) {
	var keys []string
	q := r.db.WithContext(ctx).Model(&schema.CacheEntry{}).Where("expires_at > ?", now.UnixMilli())
	if dataType != "" {
		q = q.Where("data_type = ?", dataType)
	}
	if err := q.Order("cache_key ASC").Pluck("cache_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("查询缓存 key 失败: %w", err)
	}
	return keys, nil
}
