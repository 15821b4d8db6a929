package service

import "github.com/yuqie6/OpenPath/internal/schema"

// ExperienceWindow 经验分级看的最近贡献数
const ExperienceWindow = 50

// ClassifyExperience 按贡献数与平均新增行数分级
//
//	count == 0                          → beginner
//	count < 5  || avgComplexity < 50    → beginner
//	count < 20 || avgComplexity < 200   → intermediate
//	其余                                → advanced
func ClassifyExperience(contributions []schema.Contribution) string {
	count := len(contributions)
	if count == 0 {
		return schema.LevelBeginner
	}
	total := 0
	for _, c := range contributions {
		total += c.Additions
	}
	avg := float64(total) / float64(max(1, count))

	switch {
	case count < 5 || avg < 50:
		return schema.LevelBeginner
	case count < 20 || avg < 200:
		return schema.LevelIntermediate
	default:
		return schema.LevelAdvanced
	}
}

// compatibleDifficulties 用户等级可接受的 issue 难度
var compatibleDifficulties = map[string][]string{
	schema.LevelBeginner:     {schema.LevelBeginner},
	schema.LevelIntermediate: {schema.LevelBeginner, schema.LevelIntermediate},
	schema.LevelAdvanced:     {schema.LevelIntermediate, schema.LevelAdvanced},
}

// DifficultyCompatible issue 难度是否适合该经验等级
func DifficultyCompatible(level, difficulty string) bool {
	for _, d := range compatibleDifficulties[level] {
		if d == difficulty {
			return true
		}
	}
	return false
}
