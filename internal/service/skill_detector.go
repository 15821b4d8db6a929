package service

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuqie6/OpenPath/internal/schema"
)

// DetectedSkill 从一次贡献中识别出的技能
type DetectedSkill struct {
	Name       string
	Category   string
	Confidence int
}

const (
	confidencePrimaryLanguage = 8
	confidenceExtension       = 6
	confidenceFramework       = 7
	confidenceTool            = 5
	confidenceLabel           = 4
)

type extSkill struct {
	name     string
	category string
}

// extensionSkills 文件扩展名（不含点，小写）到技能
var extensionSkills = map[string]extSkill{
	"js":    {"JavaScript", schema.SkillCategoryLanguage},
	"ts":    {"TypeScript", schema.SkillCategoryLanguage},
	"py":    {"Python", schema.SkillCategoryLanguage},
	"java":  {"Java", schema.SkillCategoryLanguage},
	"cpp":   {"C++", schema.SkillCategoryLanguage},
	"c":     {"C", schema.SkillCategoryLanguage},
	"cs":    {"C#", schema.SkillCategoryLanguage},
	"php":   {"PHP", schema.SkillCategoryLanguage},
	"rb":    {"Ruby", schema.SkillCategoryLanguage},
	"go":    {"Go", schema.SkillCategoryLanguage},
	"rs":    {"Rust", schema.SkillCategoryLanguage},
	"swift": {"Swift", schema.SkillCategoryLanguage},
	"kt":    {"Kotlin", schema.SkillCategoryLanguage},
	"scala": {"Scala", schema.SkillCategoryLanguage},
	"r":     {"R", schema.SkillCategoryLanguage},
	"sh":    {"Shell", schema.SkillCategoryLanguage},
	"ps1":   {"PowerShell", schema.SkillCategoryLanguage},
	"html":  {"HTML", schema.SkillCategoryLanguage},
	"css":   {"CSS", schema.SkillCategoryLanguage},
	"json":  {"JSON", schema.SkillCategoryLanguage},
	"md":    {"Markdown", schema.SkillCategoryLanguage},
	"yml":   {"YAML", schema.SkillCategoryLanguage},
	"yaml":  {"YAML", schema.SkillCategoryLanguage},
	"vue":   {"Vue.js", schema.SkillCategoryFramework},
	"jsx":   {"React", schema.SkillCategoryFramework},
	"tsx":   {"React", schema.SkillCategoryFramework},
}

type pathPattern struct {
	substr   string
	name     string
	category string
}

// pathPatterns 按路径子串识别框架/工具，顺序即输出顺序
var pathPatterns = []pathPattern{
	{"react", "React", schema.SkillCategoryFramework},
	{"vue", "Vue.js", schema.SkillCategoryFramework},
	{"angular", "Angular", schema.SkillCategoryFramework},
	{"express", "Express.js", schema.SkillCategoryFramework},
	{"django", "Django", schema.SkillCategoryFramework},
	{"flask", "Flask", schema.SkillCategoryFramework},
	{"spring", "Spring", schema.SkillCategoryFramework},
	{"laravel", "Laravel", schema.SkillCategoryFramework},
	{"rails", "Ruby on Rails", schema.SkillCategoryFramework},
	{"next", "Next.js", schema.SkillCategoryFramework},
	{"nuxt", "Nuxt.js", schema.SkillCategoryFramework},
	{"qwik", "Qwik", schema.SkillCategoryFramework},
	{"tailwind", "Tailwind CSS", schema.SkillCategoryTool},
	{"webpack", "Webpack", schema.SkillCategoryTool},
	{"vite", "Vite", schema.SkillCategoryTool},
	{"docker", "Docker", schema.SkillCategoryTool},
	{"kubernetes", "Kubernetes", schema.SkillCategoryTool},
}

// labelKeywords 标签包含这些关键字时视为技能标签
var labelKeywords = []string{
	"javascript", "typescript", "python", "java", "react", "vue",
	"angular", "node", "frontend", "backend", "fullstack",
}

// canonicalSkillNames 小写名到表内显示名，保证不同来源识别出的同一技能落到同一账本行
var canonicalSkillNames = func() map[string]string {
	m := make(map[string]string)
	for _, sk := range extensionSkills {
		m[strings.ToLower(sk.name)] = sk.name
	}
	for _, p := range pathPatterns {
		m[strings.ToLower(p.name)] = p.name
	}
	return m
}()

// canonicalSkillName 表内已知的技能统一为显示名，其他原样返回
func canonicalSkillName(name string) string {
	if c, ok := canonicalSkillNames[strings.ToLower(name)]; ok {
		return c
	}
	return name
}

// DetectSkills 从主语言、文件路径、标签识别技能；同名只保留置信度最高的一条
func DetectSkills(primaryLanguage string, files, labels []string) []DetectedSkill {
	var out []DetectedSkill
	index := make(map[string]int)
	add := func(d DetectedSkill) {
		d.Name = canonicalSkillName(d.Name)
		key := strings.ToLower(d.Name)
		if i, ok := index[key]; ok {
			if d.Confidence > out[i].Confidence {
				out[i] = d
			}
			return
		}
		index[key] = len(out)
		out = append(out, d)
	}

	if lang := strings.TrimSpace(primaryLanguage); lang != "" {
		add(DetectedSkill{Name: lang, Category: schema.SkillCategoryLanguage, Confidence: confidencePrimaryLanguage})
	}

	lowerPaths := make([]string, 0, len(files))
	for _, f := range files {
		lowerPaths = append(lowerPaths, strings.ToLower(f))
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(f)), ".")
		if sk, ok := extensionSkills[ext]; ok {
			add(DetectedSkill{Name: sk.name, Category: sk.category, Confidence: confidenceExtension})
		}
	}

	for _, p := range pathPatterns {
		for _, lp := range lowerPaths {
			if !strings.Contains(lp, p.substr) {
				continue
			}
			conf := confidenceFramework
			if p.category == schema.SkillCategoryTool {
				conf = confidenceTool
			}
			add(DetectedSkill{Name: p.name, Category: p.category, Confidence: conf})
			break
		}
	}

	for _, l := range labels {
		lower := strings.ToLower(strings.TrimSpace(l))
		if lower == "" || !containsAny(lower, labelKeywords) {
			continue
		}
		add(DetectedSkill{Name: capitalize(lower), Category: schema.SkillCategorySkill, Confidence: confidenceLabel})
	}

	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
