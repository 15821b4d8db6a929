package service

import (
	"strings"

	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/upstream"
)

const (
	smallRepoKB = 5_000
	largeRepoKB = 200_000
)

var (
	complexityKeywords = []string{"refactor", "architecture", "performance", "security"}
	simplicityKeywords = []string{"documentation", "test", "example", "typo"}
)

// IsGoodFirstIssue 带 good first issue 标签（兼容连字符写法）
func IsGoodFirstIssue(issue upstream.Issue) bool {
	for _, l := range issue.Labels {
		n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(l), "-", " "))
		if n == "good first issue" {
			return true
		}
	}
	return false
}

// DifficultyScore 越高越简单
func DifficultyScore(issue upstream.Issue) int {
	score := 0
	if IsGoodFirstIssue(issue) {
		score += 3
	}

	switch size := issue.Repo.SizeKB; {
	case size <= 0:
	case size < smallRepoKB:
		score += 2
	case size > largeRepoKB:
		score--
	}

	title := strings.ToLower(issue.Title)
	for _, kw := range complexityKeywords {
		if strings.Contains(title, kw) {
			score--
		}
	}
	for _, kw := range simplicityKeywords {
		if strings.Contains(title, kw) {
			score++
		}
	}
	return score
}

// ClassifyDifficulty ≥3 beginner，≥0 intermediate，否则 advanced
func ClassifyDifficulty(issue upstream.Issue) string {
	score := DifficultyScore(issue)
	switch {
	case score >= 3:
		return schema.LevelBeginner
	case score >= 0:
		return schema.LevelIntermediate
	default:
		return schema.LevelAdvanced
	}
}
