package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/yuqie6/OpenPath/internal/bootstrap"
	"github.com/yuqie6/OpenPath/internal/dto"
	"github.com/yuqie6/OpenPath/internal/pkg/buildinfo"
	"github.com/yuqie6/OpenPath/internal/service"
)

var (
	cfgFile string
	asJSON  bool
	core    *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "openpath",
		Short:   "OpenPath - 开源贡献机会匹配与贡献分析",
		Long:    `OpenPath 同步你已合并的 PR，识别技能，评估项目健康度，并推荐适合你的开源 issue。`,
		Version: buildinfo.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			core, err = bootstrap.NewCore(cfgFile)
			if err != nil {
				slog.Error("初始化失败", "error", err)
				os.Exit(1)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				_ = core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "以 JSON 输出")

	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(portfolioCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(impactCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(viabilityCmd())
	rootCmd.AddCommand(filterCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func fail(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail("序列化输出失败: %v", err)
	}
	fmt.Println(string(b))
}

func requireUpstream() {
	if err := core.RequireUpstreamConfigured(); err != nil {
		fmt.Println("⚠️  GitHub token 未配置")
		fmt.Println("   请设置环境变量: GITHUB_TOKEN")
		fmt.Println("   或在 config.yaml 中配置 github.token，或改用 source.mode=fixture")
		os.Exit(1)
	}
}

func formatMs(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02")
}

// syncCmd 同步已合并 PR
func syncCmd() *cobra.Command {
	var login string
	var backfill bool

	cmd := &cobra.Command{
		Use:   "sync <user-id>",
		Short: "同步已合并的 PR 并识别技能",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			requireUpstream()
			res, err := core.Services.Ingestion.SyncContributions(context.Background(), args[0], login)
			if err != nil {
				fail("同步失败: %v", err)
			}
			backfilled := 0
			if backfill {
				if backfilled, err = core.Services.Ingestion.SyncResolvedIssues(context.Background(), args[0]); err != nil {
					fail("补录已解决 issue 失败: %v", err)
				}
			}
			if asJSON {
				printJSON(map[string]any{"sync": dto.ToSyncResultDTO(res), "resolved_backfilled": backfilled})
				return
			}
			fmt.Printf("✅ 已同步 %s（账号 %s）\n", res.UserID, res.Login)
			fmt.Printf("   拉取 %d 个 PR，新增 %d，跳过 %d，新关联技能 %d，新记录已解决 issue %d\n",
				res.Fetched, res.Created, res.Skipped, res.SkillsLinked, res.IssuesResolved)
			if backfill {
				fmt.Printf("   补录已解决 issue %d\n", backfilled)
			}
		},
	}
	cmd.Flags().StringVar(&login, "login", "", "上游账号（为空时使用凭证对应账号）")
	cmd.Flags().BoolVar(&backfill, "backfill-resolved", false, "同时为已有贡献补录关闭的 issue")
	return cmd
}

// portfolioCmd 贡献作品集
func portfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio <user-id>",
		Short: "查看贡献作品集",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			p, err := core.Services.Portfolio.GetContributionPortfolio(context.Background(), args[0])
			if err != nil {
				fail("读取作品集失败: %v", err)
			}
			if asJSON {
				printJSON(dto.ToPortfolioDTO(p))
				return
			}
			fmt.Printf("📦 贡献作品集\n")
			fmt.Println("═══════════════════════════════════════")
			fmt.Printf("贡献 %d 个，+%d / -%d 行\n", p.Stats.TotalContributions, p.Stats.TotalAdditions, p.Stats.TotalDeletions)
			for _, l := range p.Stats.TopLanguages {
				fmt.Printf("  • %s: %d\n", l.Language, l.Count)
			}
			fmt.Printf("\n🔀 PR\n")
			for _, c := range p.Contributions {
				fmt.Printf("  %s  %s#%d  %s\n", formatMs(c.MergedAt), c.RepoFullName(), c.PRNumber, c.Title)
			}
			fmt.Printf("\n🎯 技能\n")
			for _, s := range p.Skills {
				fmt.Printf("  • %-14s %-10s 熟练度 %2d  贡献 %d\n", s.Name, s.Category, s.Proficiency, s.TotalContributions)
			}
		},
	}
}

// dashboardCmd 仪表盘数据
func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard <user-id>",
		Short: "查看技能/项目排行与近 90 天时间线",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			d, err := core.Services.Portfolio.GetDashboardData(context.Background(), args[0])
			if err != nil {
				fail("读取仪表盘失败: %v", err)
			}
			if asJSON {
				printJSON(dto.ToDashboardDTO(d))
				return
			}
			fmt.Printf("🎯 技能（按代码行）\n")
			for _, s := range d.TopSkills {
				fmt.Printf("  • %-14s %6d 行  %d 个 PR\n", s.Name, s.TotalLines, s.PRCount)
			}
			fmt.Printf("\n📁 项目\n")
			for _, p := range d.TopProjects {
				fmt.Printf("  • %s/%s  %d 个 PR  %d 行  最近 %s\n", p.RepoOwner, p.RepoName, p.PRCount, p.TotalLines, formatMs(p.LastContribution))
			}
			fmt.Printf("\n📅 时间线\n")
			for _, t := range d.Timeline {
				fmt.Printf("  %s  %s\n", t.Date, strings.Repeat("█", t.Contributions))
			}
		},
	}
}

// impactCmd 影响力指标
func impactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "impact <user-id>",
		Short: "查看总体影响力、周期指标与月度贡献频率",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			m, err := core.Services.Portfolio.GetImpactMetrics(context.Background(), args[0])
			if err != nil {
				fail("读取影响力指标失败: %v", err)
			}
			if asJSON {
				printJSON(dto.ToImpactDTO(m))
				return
			}
			t := m.Totals
			fmt.Printf("📈 影响力\n")
			fmt.Println("═══════════════════════════════════════")
			fmt.Printf("贡献 %d  仓库 %d  语言 %d  技能 %d\n", t.Contributions, t.Repositories, t.Languages, t.DistinctSkills)
			fmt.Printf("+%d / -%d 行，%d 个文件，解决 issue %d\n", t.Additions, t.Deletions, t.FilesChanged, t.ResolvedIssues)
			fmt.Printf("\n⏱️  周期\n")
			for _, p := range m.ByPeriod {
				fmt.Printf("  %-9s 贡献 %3d  +%d/-%d  issue %d  仓库 %d  语言 %v\n",
					p.Period, p.TotalContributions, p.TotalAdditions, p.TotalDeletions,
					p.ResolvedIssues, p.RepositoriesContributed, []string(p.LanguagesUsed))
			}
			fmt.Printf("\n🗓️  月度\n")
			for _, mc := range m.Monthly {
				fmt.Printf("  %s  %3d\n", mc.Month, mc.Count)
			}
			fmt.Printf("\n💻 语言\n")
			for _, l := range m.TopLanguages {
				fmt.Printf("  • %-12s %3d  %.1f%%\n", l.Language, l.Count, l.Percent)
			}
		},
	}
}

// recommendCmd 推荐贡献机会
func recommendCmd() *cobra.Command {
	var skills, interests []string

	cmd := &cobra.Command{
		Use:   "recommend <user-id>",
		Short: "推荐适合的开源 issue",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			requireUpstream()
			recs, err := core.Services.Recommender.Recommend(context.Background(), args[0], skills, interests)
			if err != nil {
				fail("推荐失败: %v", err)
			}
			if asJSON {
				printJSON(dto.ToRecommendationDTOs(recs))
				return
			}
			if len(recs) == 0 {
				fmt.Println("暂无推荐，试试调整 --skills / --interests")
				return
			}
			for _, r := range recs {
				fmt.Printf("%2d. [%d/10] %s#%d %s\n", r.Rank, r.ProjectViability, service.RepoKey(r.RepoOwner, r.RepoName), r.IssueNumber, r.IssueTitle)
				fmt.Printf("    %s · %s\n", r.Difficulty, r.Reason)
				fmt.Printf("    %s\n", r.IssueURL)
			}
		},
	}
	cmd.Flags().StringSliceVar(&skills, "skills", nil, "技能，逗号分隔")
	cmd.Flags().StringSliceVar(&interests, "interests", nil, "兴趣话题，逗号分隔")
	return cmd
}

// viabilityCmd 项目健康度
func viabilityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "viability <owner/name>",
		Short: "评估仓库健康度",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			requireUpstream()
			owner, name, ok := strings.Cut(args[0], "/")
			if !ok || owner == "" || name == "" {
				fail("仓库格式应为 owner/name: %q", args[0])
			}
			v, err := core.Services.Viability.Evaluate(context.Background(), owner, name)
			if err != nil {
				slog.Warn("计算健康度失败，使用中性分", "repo", args[0], "error", err)
				out := dto.NeutralViabilityDTO(owner, name)
				if asJSON {
					printJSON(out)
					return
				}
				fmt.Printf("⚠️  %s 健康度未知，按中性分 %d 处理\n", out.RepoID, out.Score)
				return
			}
			if asJSON {
				printJSON(dto.ToViabilityDTO(v))
				return
			}
			fmt.Printf("🩺 %s 健康度 %d/10\n", v.RepoID, v.Score)
			fmt.Printf("  README %v  CONTRIBUTING %v  行为准则 %v\n", v.HasReadme, v.HasContributing, v.HasCodeOfConduct)
			if v.AvgResponseTimeDays != nil {
				fmt.Printf("  平均响应 %.1f 天\n", *v.AvgResponseTimeDays)
			}
			fmt.Printf("  近 3 月贡献者 %d  近 1 月提交 %d  开放 issue %d/%d\n",
				v.ContributorsPast3Months, v.RecentCommitsPastMonth, v.OpenIssuesCount, v.TotalIssuesCount)
			fmt.Printf("  有效期至 %s\n", time.UnixMilli(v.ExpiresAt).Format(time.RFC3339))
		},
	}
}

// filterCmd 按语言/话题/难度筛选 issue
func filterCmd() *cobra.Command {
	var criteria service.IssueFilter
	var refresh, options bool

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "按语言/话题/难度筛选开放 issue",
		Run: func(cmd *cobra.Command, args []string) {
			f := core.Services.Filter
			if options {
				fmt.Printf("语言: %s\n", strings.Join(f.AvailableLanguages(), ", "))
				fmt.Printf("话题: %s\n", strings.Join(f.AvailableTopics(), ", "))
				return
			}
			requireUpstream()
			ctx := context.Background()
			if refresh {
				if err := f.RefreshFilter(ctx, criteria); err != nil {
					fail("刷新失败: %v", err)
				}
			}
			res, err := f.FetchFilteredIssues(ctx, criteria)
			if err != nil {
				fail("筛选失败: %v", err)
			}
			if asJSON {
				printJSON(dto.ToFilterResultDTO(res))
				return
			}
			source := "上游"
			if res.IsFromCache {
				source = "缓存"
			}
			fmt.Printf("🔎 %d 个 issue（来自%s，%s）\n", res.TotalCount, source, res.CacheTimestamp.Format(time.RFC3339))
			for _, is := range res.Issues {
				fmt.Printf("  • [%s] %s#%d %s\n", is.Difficulty, is.Repo.FullName(), is.Number, is.Title)
			}
		},
	}
	cmd.Flags().StringVar(&criteria.Language, "language", "", "仓库语言")
	cmd.Flags().StringVar(&criteria.Topic, "topic", "", "仓库话题（子串匹配）")
	cmd.Flags().StringVar(&criteria.Difficulty, "difficulty", "", "beginner | intermediate | advanced")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "忽略缓存重新拉取")
	cmd.Flags().BoolVar(&options, "options", false, "列出可选语言与话题")
	return cmd
}
