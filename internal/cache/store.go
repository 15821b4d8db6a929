// Package cache 提供带 TTL 的键值缓存：过期条目在读取时视为缺失，写入同 key 覆盖旧值。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Entry 一条命中的缓存
type Entry struct {
	Key       string
	DataType  string
	Payload   []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Stats 缓存统计
type Stats struct {
	Total   int64 `json:"total"`
	Expired int64 `json:"expired"`
	Active  int64 `json:"active"`
}

// Store TTL 缓存
type Store interface {
	// Get 未命中（不存在或 expires_at <= now）返回 nil, nil
	Get(ctx context.Context, key string) (*Entry, error)
	// Put 覆盖写入，ttl 必须为正
	Put(ctx context.Context, key, dataType string, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Stats(ctx context.Context) (Stats, error)
	ClearExpired(ctx context.Context) (int64, error)
	ActiveKeys(ctx context.Context) ([]string, error)
}

// IssueFilterKey issue 筛选缓存 key：issues:<language>:<topic>，未设置的字段为空串
func IssueFilterKey(language, topic string) string {
	return "issues:" + normalizePart(language) + ":" + normalizePart(topic)
}

func normalizePart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// GetJSON 读取并反序列化，未命中返回 nil entry
func GetJSON(ctx context.Context, s Store, key string, out any) (*Entry, error) {
	e, err := s.Get(ctx, key)
	if err != nil || e == nil {
		return nil, err
	}
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return nil, fmt.Errorf("解析缓存 %s 失败: %w", key, err)
	}
	return e, nil
}

// PutJSON 序列化后写入
func PutJSON(ctx context.Context, s Store, key, dataType string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化缓存 %s 失败: %w", key, err)
	}
	return s.Put(ctx, key, dataType, payload, ttl)
}

func checkTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("缓存 ttl 必须为正: %s", ttl)
	}
	return nil
}

func defaultClock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
