package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/upstream"
)

const (
	// MaxRecommendations 单次返回的推荐上限
	MaxRecommendations = 20
	// DefaultRecommendationTTL 推荐批次有效期
	DefaultRecommendationTTL = 24 * time.Hour

	minRelevanceScore  = 2
	highRelevanceScore = 5
	recentIssueWindow  = 7 * 24 * time.Hour
)

// Recommendation 一条推荐
type Recommendation struct {
	ID               string
	Rank             int
	RepoOwner        string
	RepoName         string
	RepoLanguage     string
	RepoTopics       []string
	IssueID          string
	IssueNumber      int
	IssueTitle       string
	IssueURL         string
	IssueLabels      []string
	IssueCreatedAt   time.Time
	Difficulty       string
	Reason           string
	ProjectViability int
	RelevanceScore   int
	SkillMatch       bool
	InterestMatch    bool
	DifficultyMatch  bool
	RecentBonus      bool
	ExpiresAt        time.Time
}

// RecommenderService 贡献机会推荐
type RecommenderService struct {
	contribs   ContributionRepository
	recs       RecommendationRepository
	candidates CandidateIssueSource
	viability  ViabilityScorer
	ttl        time.Duration
	clock      Clock
}

// NewRecommenderService ttl<=0 时使用 DefaultRecommendationTTL
func NewRecommenderService(
	contribs ContributionRepository,
	recs RecommendationRepository,
	candidates CandidateIssueSource,
	viability ViabilityScorer,
	ttl time.Duration,
	clock Clock,
) *RecommenderService {
	if ttl <= 0 {
		ttl = DefaultRecommendationTTL
	}
	return &RecommenderService{
		contribs:   contribs,
		recs:       recs,
		candidates: candidates,
		viability:  viability,
		ttl:        ttl,
		clock:      clock,
	}
}

// Recommend 缓存命中直接返回；否则重新生成并整批替换缓存。
// 只有 userID 为空时返回错误，其余失败记录日志并返回空列表。
func (s *RecommenderService) Recommend(ctx context.Context, userID string, skills, interests []string) ([]Recommendation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	now := s.clock.now()

	rows, err := s.recs.ListActive(ctx, userID, now, MaxRecommendations)
	if err != nil {
		slog.Warn("读取推荐缓存失败", "user_id", userID, "error", err)
	} else if len(rows) > 0 {
		slog.Debug("推荐缓存命中", "user_id", userID, "count", len(rows))
		out := make([]Recommendation, 0, len(rows))
		for _, r := range rows {
			out = append(out, recommendationFromRow(r))
		}
		return out, nil
	}

	recs, err := s.generate(ctx, userID, skills, interests, now)
	if err != nil {
		slog.Error("生成推荐失败", "user_id", userID, "error", err)
		return []Recommendation{}, nil
	}

	if err := s.recs.ReplaceForUser(ctx, userID, toRecommendationRows(userID, recs)); err != nil {
		slog.Warn("写入推荐缓存失败", "user_id", userID, "error", err)
	}
	return recs, nil
}

func (s *RecommenderService) generate(ctx context.Context, userID string, skills, interests []string, now time.Time) ([]Recommendation, error) {
	history, err := s.contribs.ListRecent(ctx, userID, ExperienceWindow)
	if err != nil {
		return nil, fmt.Errorf("读取贡献历史失败: %w", err)
	}
	level := ClassifyExperience(history)

	issues, err := s.candidates.FetchCandidateIssues(ctx, skills, interests)
	if err != nil {
		return nil, fmt.Errorf("获取候选 issue 失败: %w", err)
	}

	matcher := newProfileMatcher(skills, interests)
	expiresAt := now.Add(s.ttl)
	seen := make(map[string]struct{}, len(issues))
	var kept []Recommendation
	var repos []upstream.Repository
	repoSeen := make(map[string]struct{})
	for _, issue := range issues {
		if _, dup := seen[issue.ID]; dup {
			continue
		}
		seen[issue.ID] = struct{}{}

		rec := s.score(issue, level, matcher, now)
		if rec.RelevanceScore < minRelevanceScore {
			continue
		}
		rec.ExpiresAt = expiresAt
		kept = append(kept, rec)

		key := RepoKey(issue.Repo.Owner, issue.Repo.Name)
		if _, ok := repoSeen[key]; !ok {
			repoSeen[key] = struct{}{}
			repos = append(repos, issue.Repo)
		}
	}
	if len(kept) == 0 {
		return []Recommendation{}, nil
	}

	scores := s.viability.ScoreMany(ctx, repos)
	for i := range kept {
		score, ok := scores[RepoKey(kept[i].RepoOwner, kept[i].RepoName)]
		if !ok {
			score = NeutralViabilityScore
		}
		kept[i].ProjectViability = score
	}

	SortRecommendations(kept)
	if len(kept) > MaxRecommendations {
		kept = kept[:MaxRecommendations]
	}
	for i := range kept {
		kept[i].Rank = i + 1
		kept[i].ID = uuid.NewString()
	}
	return kept, nil
}

func (s *RecommenderService) score(issue upstream.Issue, level string, m profileMatcher, now time.Time) Recommendation {
	rec := Recommendation{
		RepoOwner:      issue.Repo.Owner,
		RepoName:       issue.Repo.Name,
		RepoLanguage:   issue.Repo.Language,
		RepoTopics:     issue.Repo.Topics,
		IssueID:        issue.ID,
		IssueNumber:    issue.Number,
		IssueTitle:     issue.Title,
		IssueURL:       issue.URL,
		IssueLabels:    issue.Labels,
		IssueCreatedAt: issue.CreatedAt,
		Difficulty:     ClassifyDifficulty(issue),
	}

	if m.hasSkill(issue.Repo.Language) {
		rec.SkillMatch = true
		rec.RelevanceScore += 3
	}
	topic := m.firstInterest(issue.Repo.Topics)
	if topic != "" {
		rec.InterestMatch = true
		rec.RelevanceScore += 2
	}
	if DifficultyCompatible(level, rec.Difficulty) {
		rec.DifficultyMatch = true
		rec.RelevanceScore += 2
	}
	if !issue.CreatedAt.IsZero() && now.Sub(issue.CreatedAt) < recentIssueWindow {
		rec.RecentBonus = true
		rec.RelevanceScore++
	}

	rec.Reason = RecommendationReason(rec, topic)
	return rec
}

// RecommendationReason 由命中的条件拼出推荐理由
func RecommendationReason(rec Recommendation, topic string) string {
	var parts []string
	if rec.SkillMatch {
		parts = append(parts, fmt.Sprintf("matches your %s skills", rec.RepoLanguage))
	}
	if rec.InterestMatch && topic != "" {
		parts = append(parts, fmt.Sprintf("aligns with your interest in %s", topic))
	}
	if rec.Difficulty == schema.LevelBeginner {
		parts = append(parts, "is a good first issue")
	}
	if rec.RelevanceScore >= highRelevanceScore {
		parts = append(parts, "is highly relevant to your profile")
	}
	if len(parts) == 0 {
		return "matches your general interests"
	}
	return strings.Join(parts, ", ")
}

// SortRecommendations 健康度倒序，其次 issue 创建时间倒序，最后按 issue ID 保证稳定
func SortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.ProjectViability != b.ProjectViability {
			return a.ProjectViability > b.ProjectViability
		}
		if !a.IssueCreatedAt.Equal(b.IssueCreatedAt) {
			return a.IssueCreatedAt.After(b.IssueCreatedAt)
		}
		return a.IssueID < b.IssueID
	})
}

type profileMatcher struct {
	skills    map[string]struct{}
	interests map[string]struct{}
}

func newProfileMatcher(skills, interests []string) profileMatcher {
	m := profileMatcher{
		skills:    make(map[string]struct{}, len(skills)),
		interests: make(map[string]struct{}, len(interests)),
	}
	for _, s := range skills {
		if k := strings.ToLower(strings.TrimSpace(s)); k != "" {
			m.skills[k] = struct{}{}
		}
	}
	for _, s := range interests {
		if k := strings.ToLower(strings.TrimSpace(s)); k != "" {
			m.interests[k] = struct{}{}
		}
	}
	return m
}

func (m profileMatcher) hasSkill(language string) bool {
	_, ok := m.skills[strings.ToLower(strings.TrimSpace(language))]
	return ok && language != ""
}

// firstInterest 第一个命中兴趣的仓库话题
func (m profileMatcher) firstInterest(topics []string) string {
	for _, t := range topics {
		if _, ok := m.interests[strings.ToLower(t)]; ok {
			return t
		}
	}
	return ""
}

func toRecommendationRows(userID string, recs []Recommendation) []schema.OpportunityRecommendation {
	rows := make([]schema.OpportunityRecommendation, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, schema.OpportunityRecommendation{
			ID:               r.ID,
			UserID:           userID,
			Rank:             r.Rank,
			RepoOwner:        r.RepoOwner,
			RepoName:         r.RepoName,
			RepoLanguage:     r.RepoLanguage,
			RepoTopics:       schema.NewJSONArray(r.RepoTopics),
			IssueID:          r.IssueID,
			IssueNumber:      r.IssueNumber,
			IssueTitle:       r.IssueTitle,
			IssueURL:         r.IssueURL,
			IssueLabels:      schema.NewJSONArray(r.IssueLabels),
			IssueCreatedAt:   r.IssueCreatedAt.UnixMilli(),
			SkillMatch:       r.SkillMatch,
			InterestMatch:    r.InterestMatch,
			DifficultyMatch:  r.DifficultyMatch,
			RecentBonus:      r.RecentBonus,
			RelevanceScore:   r.RelevanceScore,
			Difficulty:       r.Difficulty,
			Reason:           r.Reason,
			ProjectViability: r.ProjectViability,
			ExpiresAt:        r.ExpiresAt.UnixMilli(),
		})
	}
	return rows
}

func recommendationFromRow(r schema.OpportunityRecommendation) Recommendation {
	return Recommendation{
		ID:               r.ID,
		Rank:             r.Rank,
		RepoOwner:        r.RepoOwner,
		RepoName:         r.RepoName,
		RepoLanguage:     r.RepoLanguage,
		RepoTopics:       r.RepoTopics.Strings(),
		IssueID:          r.IssueID,
		IssueNumber:      r.IssueNumber,
		IssueTitle:       r.IssueTitle,
		IssueURL:         r.IssueURL,
		IssueLabels:      r.IssueLabels.Strings(),
		IssueCreatedAt:   time.UnixMilli(r.IssueCreatedAt),
		Difficulty:       r.Difficulty,
		Reason:           r.Reason,
		ProjectViability: r.ProjectViability,
		RelevanceScore:   r.RelevanceScore,
		SkillMatch:       r.SkillMatch,
		InterestMatch:    r.InterestMatch,
		DifficultyMatch:  r.DifficultyMatch,
		RecentBonus:      r.RecentBonus,
		ExpiresAt:        time.UnixMilli(r.ExpiresAt),
	}
}
