package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yuqie6/OpenPath/internal/cache"
	"github.com/yuqie6/OpenPath/internal/dto"
	"github.com/yuqie6/OpenPath/internal/pkg/config"
)

// cacheCmd 缓存维护
func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "缓存统计与维护",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "查看缓存条目统计",
		Run: func(cmd *cobra.Command, args []string) {
			st, err := core.Cache.Stats(context.Background())
			if err != nil {
				fail("读取缓存统计失败: %v", err)
			}
			out := dto.CacheStatsDTO{Backend: core.CacheBackend(), Total: st.Total, Expired: st.Expired, Active: st.Active}
			if asJSON {
				printJSON(out)
				return
			}
			fmt.Printf("🗄️  缓存（%s）共 %d 条，有效 %d，过期 %d\n", out.Backend, out.Total, out.Active, out.Expired)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "删除过期缓存",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			n, err := core.Cache.ClearExpired(ctx)
			if err != nil {
				fail("清理缓存失败: %v", err)
			}
			recs, err := core.Repos.Recommendation.DeleteExpired(ctx, core.Clock())
			if err != nil {
				fail("清理过期推荐失败: %v", err)
			}
			fmt.Printf("🧹 已删除 %d 条过期缓存，%d 条过期推荐\n", n, recs)
		},
	})

	var language, topic string
	invalidate := &cobra.Command{
		Use:   "invalidate [key]",
		Short: "失效指定缓存；不带参数时按 --language/--topic 生成 issue 筛选 key",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			key := cache.IssueFilterKey(language, topic)
			if len(args) == 1 {
				key = args[0]
			}
			if err := core.Cache.Invalidate(context.Background(), key); err != nil {
				fail("失效缓存失败: %v", err)
			}
			fmt.Printf("✅ 已失效 %s\n", key)
		},
	}
	invalidate.Flags().StringVar(&language, "language", "", "issue 筛选语言")
	invalidate.Flags().StringVar(&topic, "topic", "", "issue 筛选话题")
	cmd.AddCommand(invalidate)

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "列出有效的缓存 key",
		Run: func(cmd *cobra.Command, args []string) {
			keys, err := core.Cache.ActiveKeys(context.Background())
			if err != nil {
				fail("读取缓存 key 失败: %v", err)
			}
			if asJSON {
				printJSON(keys)
				return
			}
			for _, k := range keys {
				fmt.Println(k)
			}
		},
	})

	return cmd
}

// configCmd 配置文件管理，不需要初始化数据库
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件管理",
	}
	// 覆盖根命令的初始化钩子
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "写出默认配置文件",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				fail("%s 已存在，使用 --force 覆盖", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				fail("检查配置文件失败: %v", err)
			}
			if err := config.WriteFile(path, config.Default()); err != nil {
				fail("写入配置失败: %v", err)
			}
			fmt.Printf("✅ 已写入 %s\n", path)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的文件")
	cmd.AddCommand(initCmd)

	return cmd
}
