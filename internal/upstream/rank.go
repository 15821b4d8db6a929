package upstream

import (
	"sort"
	"strings"
)

// MaxCandidateRepos 每次推荐最多取多少个候选仓库
const MaxCandidateRepos = 15

// RankRepositories 按与用户技能/兴趣的契合度挑选候选仓库
// 语言命中技能 +3，每个命中的话题 +2；同分按 star 倒序、全名升序。
func RankRepositories(repos []Repository, skills, interests []string, limit int) []Repository {
	if limit <= 0 {
		limit = MaxCandidateRepos
	}

	wanted := make(map[string]struct{}, len(skills)+len(interests))
	skillSet := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		k := strings.ToLower(strings.TrimSpace(s))
		if k == "" {
			continue
		}
		skillSet[k] = struct{}{}
		wanted[k] = struct{}{}
	}
	for _, s := range interests {
		k := strings.ToLower(strings.TrimSpace(s))
		if k != "" {
			wanted[k] = struct{}{}
		}
	}

	type scored struct {
		repo  Repository
		score int
	}
	seen := make(map[string]struct{}, len(repos))
	list := make([]scored, 0, len(repos))
	for _, r := range repos {
		key := strings.ToLower(r.FullName())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		score := 0
		if _, ok := skillSet[strings.ToLower(r.Language)]; ok {
			score += 3
		}
		for _, t := range r.Topics {
			if _, ok := wanted[strings.ToLower(t)]; ok {
				score += 2
			}
		}
		list = append(list, scored{repo: r, score: score})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		if list[i].repo.Stars != list[j].repo.Stars {
			return list[i].repo.Stars > list[j].repo.Stars
		}
		return list[i].repo.FullName() < list[j].repo.FullName()
	})

	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]Repository, 0, len(list))
	for _, s := range list {
		out = append(out, s.repo)
	}
	return out
}
