package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yuqie6/OpenPath/internal/cache"
	"github.com/yuqie6/OpenPath/internal/fixture"
	"github.com/yuqie6/OpenPath/internal/github"
	"github.com/yuqie6/OpenPath/internal/pkg/config"
	"github.com/yuqie6/OpenPath/internal/repository"
	"github.com/yuqie6/OpenPath/internal/service"
)

// Source 上游数据来源：GitHub 客户端或离线目录
type Source interface {
	service.ContributionSource
	service.RepoSignalSource
	service.CandidateIssueSource
	service.IssueSource
	service.ClosingIssueSource
}

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg       *config.Config
	DB        *repository.Database
	LogCloser io.Closer
	Redis     redis.UniversalClient // cache.backend=redis 时非空
	Cache     cache.Store
	Source    Source
	Clock     service.Clock

	Repos struct {
		Contribution   *repository.ContributionRepository
		Skill          *repository.SkillRepository
		Viability      *repository.ViabilityRepository
		Recommendation *repository.RecommendationRepository
		Cache          *repository.CacheRepository
		ResolvedIssue  *repository.ResolvedIssueRepository
		Metric         *repository.MetricRepository
	}

	Services struct {
		Ingestion   *service.IngestionService
		Portfolio   *service.PortfolioService
		Viability   *service.ViabilityService
		Recommender *service.RecommenderService
		Filter      *service.FilterService
	}
}

// NewCore 加载配置、初始化日志后构建核心依赖
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logCloser, _ := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      config.ResolvePath(cfg.App.LogPath),
		Component: filepath.Base(os.Args[0]),
	})

	c, err := NewCoreFromConfig(cfg, nil)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}
	c.LogCloser = logCloser
	return c, nil
}

// NewCoreFromConfig 按给定配置构建；clock 为空时使用系统时间
func NewCoreFromConfig(cfg *config.Config, clock service.Clock) (*Core, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg 不能为空")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}

	dsn := cfg.Storage.DSN
	if cfg.Storage.Driver == repository.DriverSQLite {
		dsn = config.ResolvePath(cfg.Storage.DBPath)
	}
	db, err := repository.NewDatabase(cfg.Storage.Driver, dsn)
	if err != nil {
		return nil, err
	}

	c := &Core{Cfg: cfg, DB: db, Clock: clock}

	// Repos
	c.Repos.Contribution = repository.NewContributionRepository(db.DB)
	c.Repos.Skill = repository.NewSkillRepository(db.DB)
	c.Repos.Viability = repository.NewViabilityRepository(db.DB)
	c.Repos.Recommendation = repository.NewRecommendationRepository(db.DB)
	c.Repos.Cache = repository.NewCacheRepository(db.DB)
	c.Repos.ResolvedIssue = repository.NewResolvedIssueRepository(db.DB)
	c.Repos.Metric = repository.NewMetricRepository(db.DB)

	// Cache store
	if err := c.setupCache(); err != nil {
		_ = c.Close()
		return nil, err
	}

	// Upstream
	src, err := newSource(cfg, clock)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Source = src

	// Services
	c.Services.Ingestion = service.NewIngestionService(c.Repos.Contribution, c.Repos.Skill, c.Repos.ResolvedIssue, src)
	c.Services.Portfolio = service.NewPortfolioService(
		c.Repos.Contribution,
		c.Repos.Skill,
		c.Repos.ResolvedIssue,
		c.Repos.Metric,
		clock,
	)
	c.Services.Viability = service.NewViabilityService(
		c.Repos.Viability,
		src,
		time.Duration(cfg.Cache.ViabilityTTLDays)*24*time.Hour,
		clock,
	)
	c.Services.Recommender = service.NewRecommenderService(
		c.Repos.Contribution,
		c.Repos.Recommendation,
		src,
		c.Services.Viability,
		time.Duration(cfg.Cache.RecommendationTTLHours)*time.Hour,
		clock,
	)
	c.Services.Filter = service.NewFilterService(
		c.Cache,
		src,
		time.Duration(cfg.Cache.IssueFilterTTLMin)*time.Minute,
		clock,
	)

	return c, nil
}

func (c *Core) setupCache() error {
	switch c.Cfg.Cache.Backend {
	case config.CacheBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Cfg.Cache.RedisAddr,
			Password: c.Cfg.Cache.RedisPassword,
			DB:       c.Cfg.Cache.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return fmt.Errorf("连接 Redis 失败: %w", err)
		}
		c.Redis = rdb
		c.Cache = cache.NewRedisStore(rdb, cache.DefaultRedisPrefix, c.Clock)
	default:
		c.Cache = cache.NewDBStore(c.Repos.Cache, c.Clock)
	}
	return nil
}

func newSource(cfg *config.Config, clock service.Clock) (Source, error) {
	if cfg.Source.Mode == config.SourceGitHub {
		return github.NewClient(github.Config{
			Token:             cfg.GitHub.Token,
			BaseURL:           cfg.GitHub.BaseURL,
			GraphQLURL:        cfg.GitHub.GraphQLURL,
			RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
			MaxRetries:        cfg.GitHub.MaxRetries,
		}, nil), nil
	}
	if cfg.Source.FixturePath != "" {
		return fixture.LoadFile(cfg.Source.FixturePath, clock)
	}
	return fixture.Default(clock)
}

// CacheBackend 当前缓存后端名称
func (c *Core) CacheBackend() string {
	if c.Redis != nil {
		return config.CacheBackendRedis
	}
	return config.CacheBackendDB
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}

// RequireUpstreamConfigured github 模式下检查 token
func (c *Core) RequireUpstreamConfigured() error {
	if gh, ok := c.Source.(*github.Client); ok && !gh.IsConfigured() {
		return fmt.Errorf("GitHub token 未配置（github.token 或 GITHUB_TOKEN）")
	}
	return nil
}
