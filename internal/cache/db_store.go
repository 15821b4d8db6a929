package cache

import (
	"context"
	"time"

	"github.com/yuqie6/OpenPath/internal/schema"
)

// EntryRepository 缓存表访问
type EntryRepository interface {
	GetActive(ctx context.Context, key string, now time.Time) (*schema.CacheEntry, error)
	Upsert(ctx context.Context, e *schema.CacheEntry) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountExpired(ctx context.Context, now time.Time) (int64, error)
	ListActiveKeys(ctx context.Context, dataType string, now time.Time) ([]string, error)
}

// DBStore 基于 cache 表的 Store
type DBStore struct {
	repo EntryRepository
	now  func() time.Time
}

// NewDBStore now 为 nil 时使用 time.Now
func NewDBStore(repo EntryRepository, now func() time.Time) *DBStore {
	return &DBStore{repo: repo, now: defaultClock(now)}
}

func (s *DBStore) Get(ctx context.Context, key string) (*Entry, error) {
	row, err := s.repo.GetActive(ctx, key, s.now())
	if err != nil || row == nil {
		return nil, err
	}
	return &Entry{
		Key:       row.CacheKey,
		DataType:  row.DataType,
		Payload:   []byte(row.Data),
		CreatedAt: time.UnixMilli(row.CreatedAt),
		ExpiresAt: time.UnixMilli(row.ExpiresAt),
	}, nil
}

func (s *DBStore) Put(ctx context.Context, key, dataType string, payload []byte, ttl time.Duration) error {
	if err := checkTTL(ttl); err != nil {
		return err
	}
	now := s.now()
	return s.repo.Upsert(ctx, &schema.CacheEntry{
		CacheKey:  key,
		Data:      string(payload),
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
		DataType:  dataType,
	})
}

func (s *DBStore) Invalidate(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func (s *DBStore) Stats(ctx context.Context) (Stats, error) {
	now := s.now()
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	expired, err := s.repo.CountExpired(ctx, now)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: total, Expired: expired, Active: total - expired}, nil
}

func (s *DBStore) ClearExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func (s *DBStore) ActiveKeys(ctx context.Context) ([]string, error) {
	return s.repo.ListActiveKeys(ctx, "", s.now())
}
