package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix RedisStore 默认 key 前缀
const DefaultRedisPrefix = "openpath:cache:"

const scanBatch = 200

type redisEnvelope struct {
	DataType  string          `json:"data_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt int64           `json:"created_at"`
	ExpiresAt int64           `json:"expires_at"`
}

// RedisStore 基于 Redis 的 Store；Redis 自身 TTL 回收空间，读取时仍按时钟判定过期
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore prefix 为空时使用 DefaultRedisPrefix
func NewRedisStore(rdb redis.UniversalClient, prefix string, now func() time.Time) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, now: defaultClock(now)}
}

func (s *RedisStore) fullKey(key string) string {
	return s.prefix + key
}

func (s *RedisStore) load(ctx context.Context, fullKey string) (*redisEnvelope, error) {
	raw, err := s.rdb.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取 redis 缓存失败: %w", err)
	}
	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("解析 redis 缓存失败: %w", err)
	}
	return &env, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	env, err := s.load(ctx, s.fullKey(key))
	if err != nil || env == nil {
		return nil, err
	}
	if env.ExpiresAt <= s.now().UnixMilli() {
		return nil, nil
	}
	return &Entry{
		Key:       key,
		DataType:  env.DataType,
		Payload:   []byte(env.Payload),
		CreatedAt: time.UnixMilli(env.CreatedAt),
		ExpiresAt: time.UnixMilli(env.ExpiresAt),
	}, nil
}

func (s *RedisStore) Put(ctx context.Context, key, dataType string, payload []byte, ttl time.Duration) error {
	if err := checkTTL(ttl); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return fmt.Errorf("缓存 %s 载荷不是合法 JSON", key)
	}
	now := s.now()
	raw, err := json.Marshal(redisEnvelope{
		DataType:  dataType,
		Payload:   json.RawMessage(payload),
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("序列化 redis 缓存失败: %w", err)
	}
	if err := s.rdb.Set(ctx, s.fullKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("写入 redis 缓存失败: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("删除 redis 缓存失败: %w", err)
	}
	return nil
}

// scan 遍历前缀下的所有 key
func (s *RedisStore) scan(ctx context.Context, fn func(fullKey string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("扫描 redis 缓存失败: %w", err)
		}
		for _, k := range keys {
			if err := fn(k); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	nowMs := s.now().UnixMilli()
	err := s.scan(ctx, func(fullKey string) error {
		env, err := s.load(ctx, fullKey)
		if err != nil || env == nil {
			return err
		}
		st.Total++
		if env.ExpiresAt <= nowMs {
			st.Expired++
		} else {
			st.Active++
		}
		return nil
	})
	return st, err
}

func (s *RedisStore) ClearExpired(ctx context.Context) (int64, error) {
	var stale []string
	nowMs := s.now().UnixMilli()
	err := s.scan(ctx, func(fullKey string) error {
		env, err := s.load(ctx, fullKey)
		if err != nil || env == nil {
			return err
		}
		if env.ExpiresAt <= nowMs {
			stale = append(stale, fullKey)
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return 0, err
	}
	n, err := s.rdb.Del(ctx, stale...).Result()
	if err != nil {
		return 0, fmt.Errorf("清理 redis 过期缓存失败: %w", err)
	}
	return n, nil
}

func (s *RedisStore) ActiveKeys(ctx context.Context) ([]string, error) {
	var keys []string
	nowMs := s.now().UnixMilli()
	err := s.scan(ctx, func(fullKey string) error {
		env, err := s.load(ctx, fullKey)
		if err != nil || env == nil {
			return err
		}
		if env.ExpiresAt > nowMs {
			keys = append(keys, strings.TrimPrefix(fullKey, s.prefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
