package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yuqie6/OpenPath/internal/repository"
	"github.com/yuqie6/OpenPath/internal/schema"
	"gorm.io/datatypes"
)

const (
	portfolioTopLanguages = 5
	dashboardTopN         = 10
	timelineDays          = 90
	impactMonths          = 12
)

// PortfolioService 贡献作品集与统计视图
type PortfolioService struct {
	contribs ContributionRepository
	skills   SkillRepository
	resolved ResolvedIssueRepository
	metrics  MetricRepository
	clock    Clock
}

// NewPortfolioService 创建服务
func NewPortfolioService(contribs ContributionRepository, skills SkillRepository, resolved ResolvedIssueRepository, metrics MetricRepository, clock Clock) *PortfolioService {
	return &PortfolioService{contribs: contribs, skills: skills, resolved: resolved, metrics: metrics, clock: clock}
}

// impactPeriods 滚动统计周期及其回溯月数
var impactPeriods = []struct {
	name   string
	months int
}{
	{schema.PeriodMonthly, 1},
	{schema.PeriodQuarterly, 3},
	{schema.PeriodYearly, 12},
}

// LanguageCount 语言出现次数
type LanguageCount struct {
	Language string  `json:"language"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent,omitempty"`
}

// PortfolioStats 作品集汇总
type PortfolioStats struct {
	TotalContributions int             `json:"total_contributions"`
	TotalAdditions     int             `json:"total_additions"`
	TotalDeletions     int             `json:"total_deletions"`
	TopLanguages       []LanguageCount `json:"top_languages"`
}

// Portfolio 用户作品集
type Portfolio struct {
	Contributions []schema.Contribution
	Skills        []schema.Skill
	Stats         PortfolioStats
}

// GetContributionPortfolio 全部贡献（合并时间倒序）、技能与汇总
func (s *PortfolioService) GetContributionPortfolio(ctx context.Context, userID string) (*Portfolio, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	contribs, err := s.contribs.ListRecent(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	skills, err := s.skills.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := PortfolioStats{TotalContributions: len(contribs)}
	for _, c := range contribs {
		stats.TotalAdditions += c.Additions
		stats.TotalDeletions += c.Deletions
	}
	stats.TopLanguages = languageCounts(contribs, portfolioTopLanguages)

	return &Portfolio{Contributions: contribs, Skills: skills, Stats: stats}, nil
}

// TimelinePoint 某天的贡献量
type TimelinePoint struct {
	Date          string `json:"date"`
	Contributions int    `json:"contributions"`
	Additions     int    `json:"additions"`
	Deletions     int    `json:"deletions"`
}

// DashboardData 仪表盘数据
type DashboardData struct {
	TopSkills   []repository.SkillLineStat
	TopProjects []repository.ProjectStat
	Timeline    []TimelinePoint
}

// GetDashboardData 代码量 Top 技能、Top 项目与近 90 天时间线
func (s *PortfolioService) GetDashboardData(ctx context.Context, userID string) (*DashboardData, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	topSkills, err := s.skills.GetTopSkillsByLines(ctx, userID, dashboardTopN)
	if err != nil {
		return nil, err
	}
	projects, err := s.contribs.GetProjectStats(ctx, userID, dashboardTopN)
	if err != nil {
		return nil, err
	}

	since := s.clock.now().AddDate(0, 0, -timelineDays)
	recent, err := s.contribs.ListSince(ctx, userID, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]*TimelinePoint)
	for _, c := range recent {
		key := repository.DayKey(c.MergedAt)
		p, ok := byDay[key]
		if !ok {
			p = &TimelinePoint{Date: key}
			byDay[key] = p
		}
		p.Contributions++
		p.Additions += c.Additions
		p.Deletions += c.Deletions
	}
	timeline := make([]TimelinePoint, 0, len(byDay))
	for _, p := range byDay {
		timeline = append(timeline, *p)
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Date < timeline[j].Date })

	return &DashboardData{TopSkills: topSkills, TopProjects: projects, Timeline: timeline}, nil
}

// ImpactTotals 累计影响
type ImpactTotals struct {
	Contributions  int `json:"contributions"`
	Additions      int `json:"additions"`
	Deletions      int `json:"deletions"`
	FilesChanged   int `json:"files_changed"`
	ResolvedIssues int `json:"resolved_issues"`
	Repositories   int `json:"repositories"`
	Languages      int `json:"languages"`
	DistinctSkills int `json:"distinct_skills"`
}

// MonthlyCount 某月贡献数
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// ImpactMetrics 影响力指标
type ImpactMetrics struct {
	Totals       ImpactTotals
	ByPeriod     []schema.ContributionMetric // 月/季/年，起点倒序
	Monthly      []MonthlyCount
	TopLanguages []LanguageCount
	TopSkills    []repository.SkillUsageStat
}

// GetImpactMetrics 累计值、滚动周期指标、近 12 个月频率、语言占比与关联最多的技能
func (s *PortfolioService) GetImpactMetrics(ctx context.Context, userID string) (*ImpactMetrics, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	contribs, err := s.contribs.ListRecent(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	skills, err := s.skills.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	topSkills, err := s.skills.GetTopSkillsByUsage(ctx, userID, 0, dashboardTopN)
	if err != nil {
		return nil, err
	}

	totals := ImpactTotals{Contributions: len(contribs), DistinctSkills: len(skills)}
	repos := make(map[string]struct{})
	langs := make(map[string]struct{})
	for _, c := range contribs {
		totals.Additions += c.Additions
		totals.Deletions += c.Deletions
		totals.FilesChanged += c.ChangedFiles
		repos[strings.ToLower(c.RepoFullName())] = struct{}{}
		if l := c.Language(); l != "" {
			langs[l] = struct{}{}
		}
	}
	totals.Repositories = len(repos)
	totals.Languages = len(langs)

	resolved, err := s.resolved.CountBetween(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}
	totals.ResolvedIssues = int(resolved)

	now := s.clock.now()
	byPeriod, err := s.CalculatePeriodMetrics(ctx, userID, contribs, now)
	if err != nil {
		return nil, err
	}

	return &ImpactMetrics{
		Totals:       totals,
		ByPeriod:     byPeriod,
		Monthly:      monthlyFrequency(contribs, now, impactMonths),
		TopLanguages: languageCounts(contribs, 0),
		TopSkills:    topSkills,
	}, nil
}

// CalculatePeriodMetrics 计算截至 now 的月/季/年滚动指标并按 (user, period) 覆盖落库。
// contribs 为用户全部贡献，窗口为 [now-N 月, now]。
func (s *PortfolioService) CalculatePeriodMetrics(ctx context.Context, userID string, contribs []schema.Contribution, now time.Time) ([]schema.ContributionMetric, error) {
	endMs := now.UnixMilli()
	out := make([]schema.ContributionMetric, 0, len(impactPeriods))
	for _, p := range impactPeriods {
		startMs := now.AddDate(0, -p.months, 0).UnixMilli()
		m := schema.ContributionMetric{
			UserID:      userID,
			Period:      p.name,
			PeriodStart: startMs,
			PeriodEnd:   endMs,
		}

		repos := make(map[string]struct{})
		langs := make(map[string]struct{})
		for _, c := range contribs {
			if c.MergedAt < startMs || c.MergedAt > endMs {
				continue
			}
			m.TotalContributions++
			m.TotalAdditions += c.Additions
			m.TotalDeletions += c.Deletions
			m.TotalFilesChanged += c.ChangedFiles
			repos[strings.ToLower(c.RepoFullName())] = struct{}{}
			if l := c.Language(); l != "" {
				langs[l] = struct{}{}
			}
		}
		m.RepositoriesContributed = len(repos)
		m.LanguagesUsed = datatypes.NewJSONSlice(sortedKeys(langs))

		skills, err := s.skills.ListNamesBetween(ctx, userID, startMs, endMs)
		if err != nil {
			return nil, err
		}
		if skills == nil {
			skills = []string{}
		}
		m.SkillsDemonstrated = datatypes.NewJSONSlice(skills)

		resolved, err := s.resolved.CountBetween(ctx, userID, startMs, endMs)
		if err != nil {
			return nil, err
		}
		m.ResolvedIssues = int(resolved)

		if err := s.metrics.Upsert(ctx, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// languageCounts 按主语言计数倒序；limit<=0 不截断
func languageCounts(contribs []schema.Contribution, limit int) []LanguageCount {
	counts := make(map[string]int)
	total := 0
	for _, c := range contribs {
		if l := c.Language(); l != "" {
			counts[l]++
			total++
		}
	}
	out := make([]LanguageCount, 0, len(counts))
	for l, n := range counts {
		pct := math.Round(float64(n)*1000/float64(total)) / 10
		out = append(out, LanguageCount{Language: l, Count: n, Percent: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Language < out[j].Language
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// monthlyFrequency 含当月在内的最近 months 个月，无贡献的月份补 0
func monthlyFrequency(contribs []schema.Contribution, now time.Time, months int) []MonthlyCount {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)
	out := make([]MonthlyCount, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		out[i] = MonthlyCount{Month: key}
		index[key] = i
	}
	for _, c := range contribs {
		if i, ok := index[repository.MonthKey(c.MergedAt)]; ok {
			out[i].Count++
		}
	}
	return out
}
