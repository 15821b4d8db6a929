package bootstrap

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yuqie6/OpenPath/internal/eventbus"
	"github.com/yuqie6/OpenPath/internal/pkg/config"
)

// AgentRuntime Agent 二进制的运行时：核心依赖 + 事件总线 + 后台任务
type AgentRuntime struct {
	*Core
	Hub     *eventbus.Hub
	CfgPath string

	wg sync.WaitGroup
}

// NewAgentRuntime 构建运行时并启动后台任务；ctx 取消后任务退出
func NewAgentRuntime(ctx context.Context, cfgPath string) (*AgentRuntime, error) {
	core, err := NewCore(cfgPath)
	if err != nil {
		return nil, err
	}
	rt := &AgentRuntime{Core: core, Hub: eventbus.NewHub(), CfgPath: cfgPath}

	if err := config.Watch(cfgPath, func(cfg *config.Config) {
		config.SetLogLevel(cfg.App.LogLevel)
		rt.Hub.Publish(eventbus.Event{
			Type: eventbus.TypeConfigReloaded,
			Data: map[string]any{"log_level": cfg.App.LogLevel},
		})
	}); err != nil {
		slog.Warn("启动配置监听失败", "error", err)
	}

	if core.DB.SafeMode {
		// 安全模式不启动写库任务
		return rt, nil
	}

	if mins := core.Cfg.Cache.SweepIntervalMin; mins > 0 {
		rt.StartSweeper(ctx, time.Duration(mins)*time.Minute)
	}
	return rt, nil
}

// StartSweeper 周期清理过期缓存
func (rt *AgentRuntime) StartSweeper(ctx context.Context, interval time.Duration) {
	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		slog.Info("缓存清理任务已启动", "interval", interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rt.SweepOnce(ctx)
			}
		}
	}()
}

// SweepOnce 清理一次过期缓存与过期推荐
func (rt *AgentRuntime) SweepOnce(ctx context.Context) {
	deleted, err := rt.Cache.ClearExpired(ctx)
	if err != nil {
		slog.Warn("清理过期缓存失败", "error", err)
		return
	}
	recs, err := rt.Repos.Recommendation.DeleteExpired(ctx, rt.Clock())
	if err != nil {
		slog.Warn("清理过期推荐失败", "error", err)
	}
	if deleted > 0 || recs > 0 {
		slog.Info("过期缓存已清理", "cache_entries", deleted, "recommendations", recs)
		rt.Hub.Publish(eventbus.Event{
			Type: eventbus.TypeCacheSwept,
			Data: map[string]any{"cache_entries": deleted, "recommendations": recs},
		})
	}
}

// Close 等待后台任务退出后释放资源；调用前应先取消 ctx
func (rt *AgentRuntime) Close() error {
	if rt == nil {
		return nil
	}
	rt.wg.Wait()
	return rt.Core.Close()
}
