package service

import (
	"testing"

	"github.com/yuqie6/OpenPath/internal/schema"
)

func findSkill(skills []DetectedSkill, name string) (DetectedSkill, bool) {
	for _, s := range skills {
		if s.Name == name {
			return s, true
		}
	}
	return DetectedSkill{}, false
}

func TestDetectSkillsPrimaryLanguage(t *testing.T) {
	got := DetectSkills("Go", nil, nil)
	if len(got) != 1 || got[0] != (DetectedSkill{Name: "Go", Category: schema.SkillCategoryLanguage, Confidence: 8}) {
		t.Fatalf("got=%+v", got)
	}
}

func TestDetectSkillsFromExtensionsAndPaths(t *testing.T) {
	files := []string{
		"src/components/App.tsx",
		"src/components/Nav.tsx",
		"scripts/build.py",
		"deploy/Dockerfile",
		"deploy/docker-compose.yml",
		"README",
	}
	got := DetectSkills("", files, nil)

	cases := []DetectedSkill{
		{Name: "React", Category: schema.SkillCategoryFramework, Confidence: 6},
		{Name: "Python", Category: schema.SkillCategoryLanguage, Confidence: 6},
		{Name: "YAML", Category: schema.SkillCategoryLanguage, Confidence: 6},
		{Name: "Docker", Category: schema.SkillCategoryTool, Confidence: 5},
	}
	for _, want := range cases {
		s, ok := findSkill(got, want.Name)
		if !ok {
			t.Fatalf("missing %s in %+v", want.Name, got)
		}
		if s != want {
			t.Fatalf("%s=%+v, want %+v", want.Name, s, want)
		}
	}
	if len(got) != len(cases) {
		t.Fatalf("len=%d, want %d: %+v", len(got), len(cases), got)
	}
}

func TestDetectSkillsKeepsHighestConfidence(t *testing.T) {
	// react 路径命中框架 7，扩展名命中 6
	got := DetectSkills("", []string{"packages/react-dom/index.jsx"}, nil)
	s, ok := findSkill(got, "React")
	if !ok || s.Confidence != 7 || s.Category != schema.SkillCategoryFramework {
		t.Fatalf("React=%+v ok=%v", s, ok)
	}
	count := 0
	for _, g := range got {
		if g.Name == "React" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("React emitted %d times", count)
	}
}

func TestDetectSkillsLabels(t *testing.T) {
	got := DetectSkills("", nil, []string{"frontend", "bug", "Python-3"})
	if _, ok := findSkill(got, "Frontend"); !ok {
		t.Fatalf("missing Frontend in %+v", got)
	}
	s, ok := findSkill(got, "Python-3")
	if !ok || s.Category != schema.SkillCategorySkill || s.Confidence != 4 {
		t.Fatalf("Python-3=%+v ok=%v", s, ok)
	}
	if _, ok := findSkill(got, "Bug"); ok {
		t.Fatalf("non-skill label detected")
	}
}

func TestDetectSkillsEmpty(t *testing.T) {
	if got := DetectSkills("", nil, nil); len(got) != 0 {
		t.Fatalf("got=%+v, want empty", got)
	}
}

func TestDetectSkillsCanonicalizesKnownNames(t *testing.T) {
	got := DetectSkills("typescript", nil, []string{"javascript"})
	if _, ok := findSkill(got, "TypeScript"); !ok {
		t.Fatalf("got=%+v, want TypeScript", got)
	}
	if _, ok := findSkill(got, "JavaScript"); !ok {
		t.Fatalf("got=%+v, want label mapped to JavaScript", got)
	}

	// 未收录的标签保持首字母大写
	got = DetectSkills("", nil, []string{"frontend"})
	if _, ok := findSkill(got, "Frontend"); !ok {
		t.Fatalf("got=%+v, want Frontend", got)
	}
}
