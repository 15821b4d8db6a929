package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yuqie6/OpenPath/internal/cache"
	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/upstream"
)

// DefaultIssueFilterTTL issue 筛选缓存有效期
const DefaultIssueFilterTTL = time.Hour

const maxFilterFieldLen = 100

var availableLanguages = []string{
	"javascript", "typescript", "python", "java", "csharp", "cpp", "c",
	"ruby", "php", "go", "rust", "swift", "kotlin", "scala", "r",
	"shell", "powershell", "html", "css", "vue", "react", "angular",
}

var availableTopics = []string{
	"web-development", "mobile-development", "data-science", "machine-learning",
	"devops", "security", "testing", "documentation", "bug", "enhancement",
	"help-wanted", "good-first-issue", "hacktoberfest", "frontend", "backend",
	"fullstack", "api", "database", "cloud", "microservices",
}

// IssueFilter 筛选条件，空串表示不限
type IssueFilter struct {
	Language   string `json:"language"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

// Normalize 去空白并小写
func (f IssueFilter) Normalize() IssueFilter {
	return IssueFilter{
		Language:   strings.ToLower(strings.TrimSpace(f.Language)),
		Topic:      strings.ToLower(strings.TrimSpace(f.Topic)),
		Difficulty: strings.ToLower(strings.TrimSpace(f.Difficulty)),
	}
}

// Validate 冒号会破坏缓存 key 的分段，难度只接受三档
func (f IssueFilter) Validate() error {
	for name, v := range map[string]string{"language": f.Language, "topic": f.Topic} {
		if strings.Contains(v, ":") {
			return fmt.Errorf("%w: %s 不能包含冒号", ErrInvalidFilter, name)
		}
		if len(v) > maxFilterFieldLen {
			return fmt.Errorf("%w: %s 过长", ErrInvalidFilter, name)
		}
	}
	switch f.Difficulty {
	case "", schema.LevelBeginner, schema.LevelIntermediate, schema.LevelAdvanced:
		return nil
	default:
		return fmt.Errorf("%w: 未知难度 %q", ErrInvalidFilter, f.Difficulty)
	}
}

// FilteredIssue 附带难度的 issue
type FilteredIssue struct {
	upstream.Issue
	Difficulty string `json:"difficulty"`
}

// FilterResult 筛选结果
type FilterResult struct {
	Issues         []FilteredIssue `json:"issues"`
	TotalCount     int             `json:"total_count"`
	FilterApplied  IssueFilter     `json:"filter_applied"`
	CacheTimestamp time.Time       `json:"cache_timestamp"`
	IsFromCache    bool            `json:"is_from_cache"`
}

// FilterService 按语言/话题筛选开放 issue，结果经 Cache Store 读穿
type FilterService struct {
	store  cache.Store
	source IssueSource
	ttl    time.Duration
	clock  Clock
}

// NewFilterService ttl<=0 时使用 DefaultIssueFilterTTL
func NewFilterService(store cache.Store, source IssueSource, ttl time.Duration, clock Clock) *FilterService {
	if ttl <= 0 {
		ttl = DefaultIssueFilterTTL
	}
	return &FilterService{store: store, source: source, ttl: ttl, clock: clock}
}

// FetchFilteredIssues 缓存按 (language, topic) 存放；难度在读缓存之后再过滤
func (s *FilterService) FetchFilteredIssues(ctx context.Context, criteria IssueFilter) (*FilterResult, error) {
	criteria = criteria.Normalize()
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	key := cache.IssueFilterKey(criteria.Language, criteria.Topic)

	var issues []FilteredIssue
	result := &FilterResult{FilterApplied: criteria}
	entry, err := cache.GetJSON(ctx, s.store, key, &issues)
	if err != nil {
		slog.Warn("读取 issue 筛选缓存失败", "key", key, "error", err)
	}
	if entry != nil {
		result.IsFromCache = true
		result.CacheTimestamp = entry.CreatedAt
	} else {
		var fetched bool
		issues, fetched = s.fetch(ctx, criteria)
		result.CacheTimestamp = s.clock.now()
		if fetched {
			if err := cache.PutJSON(ctx, s.store, key, schema.CacheTypeIssues, issues, s.ttl); err != nil {
				slog.Warn("写入 issue 筛选缓存失败", "key", key, "error", err)
			}
		}
	}

	result.Issues = make([]FilteredIssue, 0, len(issues))
	for _, is := range issues {
		if criteria.Difficulty != "" && is.Difficulty != criteria.Difficulty {
			continue
		}
		result.Issues = append(result.Issues, is)
	}
	result.TotalCount = len(result.Issues)
	return result, nil
}

// fetch 上游失败时返回空列表和 false，失败结果不写缓存
func (s *FilterService) fetch(ctx context.Context, criteria IssueFilter) ([]FilteredIssue, bool) {
	raw, err := s.source.SearchIssues(ctx, criteria.Language, criteria.Topic)
	if err != nil {
		slog.Warn("检索 issue 失败", "language", criteria.Language, "topic", criteria.Topic, "error", err)
		return []FilteredIssue{}, false
	}
	out := make([]FilteredIssue, 0, len(raw))
	for _, is := range raw {
		if !MatchesLanguageTopic(is.Repo, criteria.Language, criteria.Topic) {
			continue
		}
		out = append(out, FilteredIssue{Issue: is, Difficulty: ClassifyDifficulty(is)})
	}
	return out, true
}

// MatchesLanguageTopic 语言大小写不敏感相等，话题为任一仓库话题的子串
func MatchesLanguageTopic(repo upstream.Repository, language, topic string) bool {
	if language != "" && !strings.EqualFold(repo.Language, language) {
		return false
	}
	if topic == "" {
		return true
	}
	topic = strings.ToLower(topic)
	for _, t := range repo.Topics {
		if strings.Contains(strings.ToLower(t), topic) {
			return true
		}
	}
	return false
}

// RefreshFilter 失效该条件对应的缓存
func (s *FilterService) RefreshFilter(ctx context.Context, criteria IssueFilter) error {
	criteria = criteria.Normalize()
	if err := criteria.Validate(); err != nil {
		return err
	}
	return s.store.Invalidate(ctx, cache.IssueFilterKey(criteria.Language, criteria.Topic))
}

// AvailableLanguages 可选语言
func (s *FilterService) AvailableLanguages() []string {
	return append([]string(nil), availableLanguages...)
}

// AvailableTopics 可选话题
func (s *FilterService) AvailableTopics() []string {
	return append([]string(nil), availableTopics...)
}
