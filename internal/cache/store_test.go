package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/yuqie6/OpenPath/internal/repository"
	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/testutil"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

func newDBStore(t *testing.T, clock *fakeClock) Store {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return NewDBStore(repository.NewCacheRepository(db), clock.Now)
}

func newRedisStore(t *testing.T, clock *fakeClock) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "", clock.Now), mr
}

// 两种实现共享同一组行为用例
func storeCases(t *testing.T, build func(t *testing.T, clock *fakeClock) Store) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		clock := newClock()
		s := build(t, clock)
		if err := s.Put(ctx, "k", schema.CacheTypeIssues, []byte(`{"v":1}`), time.Hour); err != nil {
			t.Fatalf("Put error: %v", err)
		}
		e, err := s.Get(ctx, "k")
		if err != nil || e == nil {
			t.Fatalf("Get e=%v err=%v", e, err)
		}
		if string(e.Payload) != `{"v":1}` || e.DataType != schema.CacheTypeIssues {
			t.Fatalf("entry=%+v", e)
		}
	})

	t.Run("expired is a miss", func(t *testing.T) {
		clock := newClock()
		s := build(t, clock)
		_ = s.Put(ctx, "k", schema.CacheTypeIssues, []byte(`1`), time.Hour)
		clock.Advance(time.Hour)
		e, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if e != nil {
			t.Fatalf("entry at expires_at must miss")
		}
	})

	t.Run("overwrite keeps one live entry", func(t *testing.T) {
		clock := newClock()
		s := build(t, clock)
		_ = s.Put(ctx, "k", schema.CacheTypeIssues, []byte(`1`), time.Hour)
		_ = s.Put(ctx, "k", schema.CacheTypeIssues, []byte(`2`), time.Hour)
		st, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats error: %v", err)
		}
		if st.Active != 1 || st.Total != 1 {
			t.Fatalf("stats=%+v, want one active", st)
		}
		var v int
		if _, err := GetJSON(ctx, s, "k", &v); err != nil || v != 2 {
			t.Fatalf("v=%d err=%v", v, err)
		}
	})

	t.Run("scalar payloads round trip", func(t *testing.T) {
		s := build(t, newClock())
		for _, raw := range []string{`42`, `1.50`, `-7`, `"x"`, `[1]`, `true`} {
			if err := s.Put(ctx, "k"+raw, schema.CacheTypeIssues, []byte(raw), time.Hour); err != nil {
				t.Fatalf("Put %s error: %v", raw, err)
			}
			e, err := s.Get(ctx, "k"+raw)
			if err != nil || e == nil {
				t.Fatalf("Get %s e=%v err=%v", raw, e, err)
			}
			if string(e.Payload) != raw {
				t.Fatalf("payload=%q, want %q", e.Payload, raw)
			}
		}
	})

	t.Run("invalidate", func(t *testing.T) {
		clock := newClock()
		s := build(t, clock)
		_ = s.Put(ctx, "k", schema.CacheTypeIssues, []byte(`1`), time.Hour)
		if err := s.Invalidate(ctx, "k"); err != nil {
			t.Fatalf("Invalidate error: %v", err)
		}
		if e, _ := s.Get(ctx, "k"); e != nil {
			t.Fatalf("entry survived invalidate")
		}
		if err := s.Invalidate(ctx, "missing"); err != nil {
			t.Fatalf("Invalidate missing error: %v", err)
		}
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		s := build(t, newClock())
		if err := s.Put(ctx, "k", schema.CacheTypeIssues, []byte(`1`), 0); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("active keys and clear expired", func(t *testing.T) {
		clock := newClock()
		s := build(t, clock)
		_ = PutJSON(ctx, s, "short", schema.CacheTypeTopics, []string{"a"}, time.Minute)
		_ = PutJSON(ctx, s, "long", schema.CacheTypeTopics, []string{"b"}, time.Hour)
		clock.Advance(2 * time.Minute)

		keys, err := s.ActiveKeys(ctx)
		if err != nil {
			t.Fatalf("ActiveKeys error: %v", err)
		}
		if len(keys) != 1 || keys[0] != "long" {
			t.Fatalf("keys=%v", keys)
		}
		st, _ := s.Stats(ctx)
		if st.Active != 1 {
			t.Fatalf("stats=%+v", st)
		}
		if _, err := s.ClearExpired(ctx); err != nil {
			t.Fatalf("ClearExpired error: %v", err)
		}
		if e, _ := s.Get(ctx, "long"); e == nil {
			t.Fatalf("live entry removed by ClearExpired")
		}
	})
}

func TestDBStore(t *testing.T) {
	storeCases(t, newDBStore)
}

func TestRedisStore(t *testing.T) {
	storeCases(t, func(t *testing.T, clock *fakeClock) Store {
		s, _ := newRedisStore(t, clock)
		return s
	})
}

func TestDBStoreStatsCountsPhysicallyExpiredRows(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := newDBStore(t, clock)

	_ = s.Put(ctx, "a", schema.CacheTypeIssues, []byte(`1`), time.Minute)
	_ = s.Put(ctx, "b", schema.CacheTypeIssues, []byte(`1`), time.Hour)
	clock.Advance(time.Minute)

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if st != (Stats{Total: 2, Expired: 1, Active: 1}) {
		t.Fatalf("stats=%+v", st)
	}
	n, err := s.ClearExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearExpired n=%d err=%v", n, err)
	}
}

func TestRedisStoreKeysExpireInRedis(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s, mr := newRedisStore(t, clock)

	_ = s.Put(ctx, "k", schema.CacheTypeIssues, []byte(`1`), time.Minute)
	if !mr.Exists(DefaultRedisPrefix + "k") {
		t.Fatalf("key not written with prefix")
	}
	mr.FastForward(2 * time.Minute)
	if mr.Exists(DefaultRedisPrefix + "k") {
		t.Fatalf("redis ttl not applied")
	}
}

func TestIssueFilterKey(t *testing.T) {
	if got := IssueFilterKey("Python", ""); got != "issues:python:" {
		t.Fatalf("got %q", got)
	}
	if got := IssueFilterKey("", "data-science"); got != "issues::data-science" {
		t.Fatalf("got %q", got)
	}
	if IssueFilterKey("python", "") == IssueFilterKey("", "python") {
		t.Fatalf("language and topic keys must differ")
	}
}
