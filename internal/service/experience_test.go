package service

import (
	"testing"

	"github.com/yuqie6/OpenPath/internal/schema"
)

func contributionsWith(n, additions int) []schema.Contribution {
	out := make([]schema.Contribution, n)
	for i := range out {
		out[i].Additions = additions
	}
	return out
}

func TestClassifyExperience(t *testing.T) {
	cases := []struct {
		name  string
		count int
		avg   int
		want  string
	}{
		{"no contributions", 0, 0, schema.LevelBeginner},
		{"few small", 4, 40, schema.LevelBeginner},
		{"few large", 4, 1000, schema.LevelBeginner},
		{"many tiny", 30, 10, schema.LevelBeginner},
		{"ten medium", 10, 100, schema.LevelIntermediate},
		{"many medium", 25, 150, schema.LevelIntermediate},
		{"nineteen large", 19, 500, schema.LevelIntermediate},
		{"many large", 25, 250, schema.LevelAdvanced},
		{"boundary", 20, 200, schema.LevelAdvanced},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyExperience(contributionsWith(tc.count, tc.avg)); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDifficultyCompatible(t *testing.T) {
	cases := []struct {
		level, difficulty string
		want              bool
	}{
		{schema.LevelBeginner, schema.LevelBeginner, true},
		{schema.LevelBeginner, schema.LevelIntermediate, false},
		{schema.LevelBeginner, schema.LevelAdvanced, false},
		{schema.LevelIntermediate, schema.LevelBeginner, true},
		{schema.LevelIntermediate, schema.LevelAdvanced, false},
		{schema.LevelAdvanced, schema.LevelBeginner, false},
		{schema.LevelAdvanced, schema.LevelAdvanced, true},
	}
	for _, tc := range cases {
		if got := DifficultyCompatible(tc.level, tc.difficulty); got != tc.want {
			t.Fatalf("%s/%s got %v, want %v", tc.level, tc.difficulty, got, tc.want)
		}
	}
}
