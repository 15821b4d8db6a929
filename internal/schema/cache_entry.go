package schema

import "time"

// 缓存载荷类型标签
const (
	CacheTypeIssues    = "issues"
	CacheTypeLanguages = "languages"
	CacheTypeTopics    = "topics"
)

// CacheEntry 通用 TTL 缓存行
// 约束：每个 cache_key 仅一行，重复写入覆盖。
// Data 固定为 text：SQLite 的 JSON 列是数值亲和，标量载荷（如 42）会被改写成数字。
type CacheEntry struct {
	ID        string `gorm:"primaryKey;size:36"`
	CacheKey  string `gorm:"size:300;not null;uniqueIndex"`
	Data      string `gorm:"type:text;not null"` // JSON 文本
	CreatedAt int64  `gorm:"not null"`           // Unix ms
	ExpiresAt int64  `gorm:"not null;index"`     // Unix ms
	DataType  string `gorm:"size:32;not null;index"`
}

// TableName 指定表名
func (CacheEntry) TableName() string {
	return "cache"
}

// ActiveAt 严格早于过期时间才算命中
func (e *CacheEntry) ActiveAt(now time.Time) bool {
	return e != nil && e.ExpiresAt > now.UnixMilli()
}
