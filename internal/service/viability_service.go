package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/upstream"
	"golang.org/x/sync/errgroup"
)

const (
	// NeutralViabilityScore 无法计算时的默认分
	NeutralViabilityScore = 5
	// DefaultViabilityTTL 健康度缓存有效期
	DefaultViabilityTTL = 7 * 24 * time.Hour
	// viabilityConcurrency 批量评分时同时在途的上游请求数
	viabilityConcurrency = 5
)

// ViabilityService 仓库健康度评分
type ViabilityService struct {
	repo    ViabilityRepository
	signals RepoSignalSource
	ttl     time.Duration
	clock   Clock
}

// NewViabilityService ttl<=0 时使用 DefaultViabilityTTL
func NewViabilityService(repo ViabilityRepository, signals RepoSignalSource, ttl time.Duration, clock Clock) *ViabilityService {
	if ttl <= 0 {
		ttl = DefaultViabilityTTL
	}
	return &ViabilityService{repo: repo, signals: signals, ttl: ttl, clock: clock}
}

// RepoKey owner/name
func RepoKey(owner, name string) string {
	return fmt.Sprintf("%s/%s", owner, name)
}

// ComputeViabilityScore 由信号计算 1-10 分
func ComputeViabilityScore(sig upstream.RepoSignals) int {
	raw := 0.0
	if sig.HasReadme {
		raw += 3
	}
	if sig.HasContributing {
		raw += 2
	}
	if sig.HasCodeOfConduct {
		raw += 2
	}
	if sig.AvgResponseTimeDays != nil {
		raw += math.Max(0, 2-*sig.AvgResponseTimeDays)
	}
	raw += math.Min(2, float64(sig.ContributorsRecent)/5)
	raw += math.Min(2, float64(sig.CommitsRecent)/10)

	ratio := float64(sig.OpenIssues) / float64(max(1, sig.TotalIssues))
	if ratio > 0.5 {
		raw -= math.Min(2, (ratio-0.5)*4)
	}

	clamped := math.Min(10, math.Max(1, raw))
	return int(math.Round(clamped))
}

// Score 读缓存，未命中或过期时重算并写回；任何失败返回中性分 5
func (s *ViabilityService) Score(ctx context.Context, owner, name string) int {
	v, err := s.Evaluate(ctx, owner, name)
	if err != nil {
		slog.Warn("计算仓库健康度失败，使用中性分", "repo", RepoKey(owner, name), "error", err)
		return NeutralViabilityScore
	}
	return v.Score
}

// Evaluate 返回完整的健康度行（命中缓存时为缓存行）
func (s *ViabilityService) Evaluate(ctx context.Context, owner, name string) (*schema.ProjectViability, error) {
	if owner == "" || name == "" {
		return nil, fmt.Errorf("仓库 owner/name 不能为空")
	}
	key := RepoKey(owner, name)
	now := s.clock.now()

	cached, err := s.repo.GetActive(ctx, key, now)
	if err != nil {
		slog.Warn("读取健康度缓存失败", "repo", key, "error", err)
	} else if cached != nil {
		slog.Debug("健康度缓存命中", "repo", key)
		return cached, nil
	}

	sig, err := s.signals.FetchRepoSignals(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("获取仓库信号失败: %w", err)
	}
	if sig == nil {
		return nil, fmt.Errorf("获取仓库信号失败: %s 无数据", key)
	}

	row := &schema.ProjectViability{
		RepoID:                  key,
		RepoOwner:               owner,
		RepoName:                name,
		Score:                   ComputeViabilityScore(*sig),
		HasReadme:               sig.HasReadme,
		HasContributing:         sig.HasContributing,
		HasCodeOfConduct:        sig.HasCodeOfConduct,
		AvgResponseTimeDays:     sig.AvgResponseTimeDays,
		ContributorsPast3Months: sig.ContributorsRecent,
		RecentCommitsPastMonth:  sig.CommitsRecent,
		OpenIssuesCount:         sig.OpenIssues,
		TotalIssuesCount:        sig.TotalIssues,
		ComputedAt:              now.UnixMilli(),
		ExpiresAt:               now.Add(s.ttl).UnixMilli(),
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		slog.Warn("写入健康度缓存失败", "repo", key, "error", err)
	}
	return row, nil
}

// ScoreMany 并发评分，最多 5 个请求同时在途；结果按 owner/name 索引
func (s *ViabilityService) ScoreMany(ctx context.Context, repos []upstream.Repository) map[string]int {
	out := make(map[string]int, len(repos))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(viabilityConcurrency)
	seen := make(map[string]struct{}, len(repos))
	for _, r := range repos {
		key := RepoKey(r.Owner, r.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		owner, name := r.Owner, r.Name
		g.Go(func() error {
			score := s.Score(gctx, owner, name)
			mu.Lock()
			out[key] = score
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}
