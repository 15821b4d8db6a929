package dto

// 注意：本包用于承载“对外契约”的 DTO（HTTP API / CLI JSON 输出保持稳定）。
// 不要在这里放 GORM/持久化细节；内部持久化 schema 请见 internal/schema；业务逻辑收敛在 internal/service。

type SyncResultDTO struct {
	UserID         string `json:"user_id"`
	Login          string `json:"login"`
	Fetched        int    `json:"fetched"`
	Created        int    `json:"created"`
	Skipped        int    `json:"skipped"`
	SkillsLinked   int    `json:"skills_linked"`
	IssuesResolved int    `json:"issues_resolved"`
}

type ResolvedSyncDTO struct {
	UserID  string `json:"user_id"`
	Created int    `json:"created"`
}

type ContributionDTO struct {
	ID              string   `json:"id"`
	PRID            string   `json:"pr_id"`
	PRNumber        int      `json:"pr_number"`
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Repository      string   `json:"repository"`
	MergedAt        int64    `json:"merged_at"`
	Additions       int      `json:"additions"`
	Deletions       int      `json:"deletions"`
	ChangedFiles    int      `json:"changed_files"`
	PrimaryLanguage string   `json:"primary_language,omitempty"`
	Labels          []string `json:"labels"`
}

type SkillDTO struct {
	Name               string `json:"name"`
	Category           string `json:"category"`
	Proficiency        int    `json:"proficiency"`
	TotalContributions int    `json:"total_contributions"`
	FirstUsed          int64  `json:"first_used"`
	LastUsed           int64  `json:"last_used"`
}

type LanguageCountDTO struct {
	Language string  `json:"language"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent,omitempty"`
}

type PortfolioStatsDTO struct {
	TotalContributions int                `json:"total_contributions"`
	TotalAdditions     int                `json:"total_additions"`
	TotalDeletions     int                `json:"total_deletions"`
	TopLanguages       []LanguageCountDTO `json:"top_languages"`
}

type PortfolioDTO struct {
	Contributions []ContributionDTO `json:"contributions"`
	Skills        []SkillDTO        `json:"skills"`
	Stats         PortfolioStatsDTO `json:"stats"`
}

type SkillLinesDTO struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Proficiency int    `json:"proficiency"`
	TotalLines  int64  `json:"total_lines"`
	PRCount     int64  `json:"pr_count"`
}

type ProjectStatDTO struct {
	Repository       string `json:"repository"`
	PRCount          int64  `json:"pr_count"`
	TotalLines       int64  `json:"total_lines"`
	LastContribution int64  `json:"last_contribution"`
}

type TimelinePointDTO struct {
	Date          string `json:"date"`
	Contributions int    `json:"contributions"`
	Additions     int    `json:"additions"`
	Deletions     int    `json:"deletions"`
}

type DashboardDTO struct {
	TopSkills   []SkillLinesDTO    `json:"top_skills"`
	TopProjects []ProjectStatDTO   `json:"top_projects"`
	Timeline    []TimelinePointDTO `json:"timeline"`
}

type ImpactTotalsDTO struct {
	Contributions  int `json:"contributions"`
	Additions      int `json:"additions"`
	Deletions      int `json:"deletions"`
	FilesChanged   int `json:"files_changed"`
	ResolvedIssues int `json:"resolved_issues"`
	Repositories   int `json:"repositories"`
	Languages      int `json:"languages"`
	DistinctSkills int `json:"distinct_skills"`
}

type MonthlyCountDTO struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type SkillUsageDTO struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type PeriodMetricDTO struct {
	Period                  string   `json:"period"`
	PeriodStart             int64    `json:"period_start"`
	PeriodEnd               int64    `json:"period_end"`
	TotalContributions      int      `json:"total_contributions"`
	TotalAdditions          int      `json:"total_additions"`
	TotalDeletions          int      `json:"total_deletions"`
	TotalFilesChanged       int      `json:"total_files_changed"`
	ResolvedIssues          int      `json:"resolved_issues"`
	RepositoriesContributed int      `json:"repositories_contributed"`
	LanguagesUsed           []string `json:"languages_used"`
	SkillsDemonstrated      []string `json:"skills_demonstrated"`
}

type ImpactDTO struct {
	Totals       ImpactTotalsDTO    `json:"totals"`
	ByPeriod     []PeriodMetricDTO  `json:"by_period"`
	Monthly      []MonthlyCountDTO  `json:"monthly"`
	TopLanguages []LanguageCountDTO `json:"top_languages"`
	TopSkills    []SkillUsageDTO    `json:"top_skills"`
}

type RecommendationDTO struct {
	Rank             int      `json:"rank"`
	Repository       string   `json:"repository"`
	RepoLanguage     string   `json:"repo_language,omitempty"`
	RepoTopics       []string `json:"repo_topics"`
	IssueID          string   `json:"issue_id"`
	IssueNumber      int      `json:"issue_number"`
	IssueTitle       string   `json:"issue_title"`
	IssueURL         string   `json:"issue_url"`
	IssueLabels      []string `json:"issue_labels"`
	IssueCreatedAt   int64    `json:"issue_created_at"`
	Difficulty       string   `json:"difficulty"`
	Reason           string   `json:"reason"`
	ProjectViability int      `json:"project_viability"`
	RelevanceScore   int      `json:"relevance_score"`
	ExpiresAt        int64    `json:"expires_at"`
}

type ViabilityDTO struct {
	RepoID                  string   `json:"repo_id"`
	Score                   int      `json:"score"`
	HasReadme               bool     `json:"has_readme"`
	HasContributing         bool     `json:"has_contributing"`
	HasCodeOfConduct        bool     `json:"has_code_of_conduct"`
	AvgResponseTimeDays     *float64 `json:"avg_response_time_days"`
	ContributorsPast3Months int      `json:"contributors_past_3_months"`
	RecentCommitsPastMonth  int      `json:"recent_commits_past_month"`
	OpenIssuesCount         int      `json:"open_issues_count"`
	TotalIssuesCount        int      `json:"total_issues_count"`
	Neutral                 bool     `json:"neutral,omitempty"` // 无法计算时为中性分
	ComputedAt              int64    `json:"computed_at"`
	ExpiresAt               int64    `json:"expires_at"`
}

type IssueDTO struct {
	ID         string   `json:"id"`
	Number     int      `json:"number"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Labels     []string `json:"labels"`
	CreatedAt  int64    `json:"created_at"`
	Repository string   `json:"repository"`
	Language   string   `json:"language,omitempty"`
	Topics     []string `json:"topics"`
	Stars      int      `json:"stars"`
	Difficulty string   `json:"difficulty"`
}

type IssueFilterDTO struct {
	Language   string `json:"language,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type FilterResultDTO struct {
	Issues         []IssueDTO     `json:"issues"`
	TotalCount     int            `json:"total_count"`
	FilterApplied  IssueFilterDTO `json:"filter_applied"`
	CacheTimestamp int64          `json:"cache_timestamp"`
	IsFromCache    bool           `json:"is_from_cache"`
}

type FilterOptionsDTO struct {
	Languages    []string `json:"languages"`
	Topics       []string `json:"topics"`
	Difficulties []string `json:"difficulties"`
}
