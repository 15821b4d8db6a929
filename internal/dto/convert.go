package dto

import (
	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/service"
)

// 服务层结果到 DTO 的转换，HTTP 与 CLI 共用

func ToSyncResultDTO(r *service.SyncResult) SyncResultDTO {
	return SyncResultDTO{
		UserID:         r.UserID,
		Login:          r.Login,
		Fetched:        r.Fetched,
		Created:        r.Created,
		Skipped:        r.Skipped,
		SkillsLinked:   r.SkillsLinked,
		IssuesResolved: r.IssuesResolved,
	}
}

func ToContributionDTO(c schema.Contribution) ContributionDTO {
	return ContributionDTO{
		ID:              c.ID,
		PRID:            c.PRID,
		PRNumber:        c.PRNumber,
		Title:           c.Title,
		URL:             c.URL,
		Repository:      c.RepoFullName(),
		MergedAt:        c.MergedAt,
		Additions:       c.Additions,
		Deletions:       c.Deletions,
		ChangedFiles:    c.ChangedFiles,
		PrimaryLanguage: c.Language(),
		Labels:          nonNil([]string(c.Labels)),
	}
}

func ToSkillDTO(s schema.Skill) SkillDTO {
	return SkillDTO{
		Name:               s.Name,
		Category:           s.Category,
		Proficiency:        s.Proficiency,
		TotalContributions: s.TotalContributions,
		FirstUsed:          s.FirstUsed,
		LastUsed:           s.LastUsed,
	}
}

func toLanguageDTOs(in []service.LanguageCount) []LanguageCountDTO {
	out := make([]LanguageCountDTO, 0, len(in))
	for _, l := range in {
		out = append(out, LanguageCountDTO{Language: l.Language, Count: l.Count, Percent: l.Percent})
	}
	return out
}

func ToPortfolioDTO(p *service.Portfolio) PortfolioDTO {
	out := PortfolioDTO{
		Contributions: make([]ContributionDTO, 0, len(p.Contributions)),
		Skills:        make([]SkillDTO, 0, len(p.Skills)),
		Stats: PortfolioStatsDTO{
			TotalContributions: p.Stats.TotalContributions,
			TotalAdditions:     p.Stats.TotalAdditions,
			TotalDeletions:     p.Stats.TotalDeletions,
			TopLanguages:       toLanguageDTOs(p.Stats.TopLanguages),
		},
	}
	for _, c := range p.Contributions {
		out.Contributions = append(out.Contributions, ToContributionDTO(c))
	}
	for _, s := range p.Skills {
		out.Skills = append(out.Skills, ToSkillDTO(s))
	}
	return out
}

func ToDashboardDTO(d *service.DashboardData) DashboardDTO {
	out := DashboardDTO{
		TopSkills:   make([]SkillLinesDTO, 0, len(d.TopSkills)),
		TopProjects: make([]ProjectStatDTO, 0, len(d.TopProjects)),
		Timeline:    make([]TimelinePointDTO, 0, len(d.Timeline)),
	}
	for _, s := range d.TopSkills {
		out.TopSkills = append(out.TopSkills, SkillLinesDTO{
			Name:        s.Name,
			Category:    s.Category,
			Proficiency: s.Proficiency,
			TotalLines:  s.TotalLines,
			PRCount:     s.PRCount,
		})
	}
	for _, p := range d.TopProjects {
		out.TopProjects = append(out.TopProjects, ProjectStatDTO{
			Repository:       p.RepoOwner + "/" + p.RepoName,
			PRCount:          p.PRCount,
			TotalLines:       p.TotalLines,
			LastContribution: p.LastContribution,
		})
	}
	for _, t := range d.Timeline {
		out.Timeline = append(out.Timeline, TimelinePointDTO(t))
	}
	return out
}

func ToImpactDTO(m *service.ImpactMetrics) ImpactDTO {
	out := ImpactDTO{
		Totals:       ImpactTotalsDTO(m.Totals),
		ByPeriod:     make([]PeriodMetricDTO, 0, len(m.ByPeriod)),
		Monthly:      make([]MonthlyCountDTO, 0, len(m.Monthly)),
		TopLanguages: toLanguageDTOs(m.TopLanguages),
		TopSkills:    make([]SkillUsageDTO, 0, len(m.TopSkills)),
	}
	for _, p := range m.ByPeriod {
		out.ByPeriod = append(out.ByPeriod, PeriodMetricDTO{
			Period:                  p.Period,
			PeriodStart:             p.PeriodStart,
			PeriodEnd:               p.PeriodEnd,
			TotalContributions:      p.TotalContributions,
			TotalAdditions:          p.TotalAdditions,
			TotalDeletions:          p.TotalDeletions,
			TotalFilesChanged:       p.TotalFilesChanged,
			ResolvedIssues:          p.ResolvedIssues,
			RepositoriesContributed: p.RepositoriesContributed,
			LanguagesUsed:           nonNil([]string(p.LanguagesUsed)),
			SkillsDemonstrated:      nonNil([]string(p.SkillsDemonstrated)),
		})
	}
	for _, mc := range m.Monthly {
		out.Monthly = append(out.Monthly, MonthlyCountDTO(mc))
	}
	for _, s := range m.TopSkills {
		out.TopSkills = append(out.TopSkills, SkillUsageDTO{Name: s.Name, Category: s.Category, Count: s.Count})
	}
	return out
}

func ToRecommendationDTO(r service.Recommendation) RecommendationDTO {
	return RecommendationDTO{
		Rank:             r.Rank,
		Repository:       service.RepoKey(r.RepoOwner, r.RepoName),
		RepoLanguage:     r.RepoLanguage,
		RepoTopics:       nonNil(r.RepoTopics),
		IssueID:          r.IssueID,
		IssueNumber:      r.IssueNumber,
		IssueTitle:       r.IssueTitle,
		IssueURL:         r.IssueURL,
		IssueLabels:      nonNil(r.IssueLabels),
		IssueCreatedAt:   r.IssueCreatedAt.UnixMilli(),
		Difficulty:       r.Difficulty,
		Reason:           r.Reason,
		ProjectViability: r.ProjectViability,
		RelevanceScore:   r.RelevanceScore,
		ExpiresAt:        r.ExpiresAt.UnixMilli(),
	}
}

func ToRecommendationDTOs(recs []service.Recommendation) []RecommendationDTO {
	out := make([]RecommendationDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, ToRecommendationDTO(r))
	}
	return out
}

func ToViabilityDTO(v *schema.ProjectViability) ViabilityDTO {
	return ViabilityDTO{
		RepoID:                  v.RepoID,
		Score:                   v.Score,
		HasReadme:               v.HasReadme,
		HasContributing:         v.HasContributing,
		HasCodeOfConduct:        v.HasCodeOfConduct,
		AvgResponseTimeDays:     v.AvgResponseTimeDays,
		ContributorsPast3Months: v.ContributorsPast3Months,
		RecentCommitsPastMonth:  v.RecentCommitsPastMonth,
		OpenIssuesCount:         v.OpenIssuesCount,
		TotalIssuesCount:        v.TotalIssuesCount,
		ComputedAt:              v.ComputedAt,
		ExpiresAt:               v.ExpiresAt,
	}
}

// NeutralViabilityDTO 无法计算健康度时的占位结果
func NeutralViabilityDTO(owner, name string) ViabilityDTO {
	return ViabilityDTO{
		RepoID:  service.RepoKey(owner, name),
		Score:   service.NeutralViabilityScore,
		Neutral: true,
	}
}

func ToFilterResultDTO(res *service.FilterResult) FilterResultDTO {
	out := FilterResultDTO{
		Issues:     make([]IssueDTO, 0, len(res.Issues)),
		TotalCount: res.TotalCount,
		FilterApplied: IssueFilterDTO{
			Language:   res.FilterApplied.Language,
			Topic:      res.FilterApplied.Topic,
			Difficulty: res.FilterApplied.Difficulty,
		},
		CacheTimestamp: res.CacheTimestamp.UnixMilli(),
		IsFromCache:    res.IsFromCache,
	}
	for _, is := range res.Issues {
		out.Issues = append(out.Issues, IssueDTO{
			ID:         is.ID,
			Number:     is.Number,
			Title:      is.Title,
			URL:        is.URL,
			Labels:     nonNil(is.Labels),
			CreatedAt:  is.CreatedAt.UnixMilli(),
			Repository: is.Repo.FullName(),
			Language:   is.Repo.Language,
			Topics:     nonNil(is.Repo.Topics),
			Stars:      is.Repo.Stars,
			Difficulty: is.Difficulty,
		})
	}
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
