package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuqie6/OpenPath/internal/bootstrap"
	"github.com/yuqie6/OpenPath/internal/httpapi"
	"github.com/yuqie6/OpenPath/internal/pkg/buildinfo"
)

func main() {
	var cfgPath, listen string

	rootCmd := &cobra.Command{
		Use:     "openpath-agent",
		Short:   "OpenPath Agent - 本地 HTTP API 与后台缓存清理",
		Version: buildinfo.Version,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			run(cfgPath, listen)
		},
	}
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")
	rootCmd.Flags().StringVar(&listen, "listen", "", "监听地址，覆盖 http.listen_addr")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfgPath, listen string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.NewAgentRuntime(ctx, cfgPath)
	if err != nil {
		slog.Error("启动 Agent 失败", "error", err)
		os.Exit(1)
	}

	slog.Info("OpenPath Agent 启动中...", "name", rt.Cfg.App.Name, "version", buildinfo.Version, "source", rt.Cfg.Source.Mode, "cache", rt.CacheBackend())
	if err := rt.RequireUpstreamConfigured(); err != nil {
		slog.Warn("上游未配置，同步与推荐将失败", "error", err)
	}

	addr := rt.Cfg.HTTP.ListenAddr
	if listen != "" {
		addr = listen
	}
	server, err := httpapi.Start(ctx, rt, httpapi.Options{ListenAddr: addr})
	if err != nil {
		slog.Error("启动 HTTP API 失败", "error", err)
		stop()
		_ = rt.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("收到系统退出信号，正在关闭...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = server.Shutdown(shutdownCtx)
	cancel()

	if err := rt.Close(); err != nil {
		slog.Warn("关闭资源失败", "error", err)
	}
	slog.Info("OpenPath Agent 已退出")
}
