package upstream

import "testing"

func TestRankRepositoriesPrefersSkillAndTopicMatches(t *testing.T) {
	repos := []Repository{
		{Owner: "a", Name: "popular", Language: "Rust", Stars: 9000},
		{Owner: "b", Name: "gofit", Language: "Go", Topics: []string{"cli"}, Stars: 10},
		{Owner: "c", Name: "golang", Language: "go", Stars: 20},
		{Owner: "b", Name: "gofit", Language: "Go", Stars: 10},
	}

	got := RankRepositories(repos, []string{"Go"}, []string{"CLI"}, 2)
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[0].FullName() != "b/gofit" {
		t.Fatalf("got[0]=%s, want b/gofit", got[0].FullName())
	}
	if got[1].FullName() != "c/golang" {
		t.Fatalf("got[1]=%s, want c/golang", got[1].FullName())
	}
}

func TestRankRepositoriesDefaultLimit(t *testing.T) {
	var repos []Repository
	for i := 0; i < 30; i++ {
		repos = append(repos, Repository{Owner: "o", Name: string(rune('a' + i))})
	}
	if got := RankRepositories(repos, nil, nil, 0); len(got) != MaxCandidateRepos {
		t.Fatalf("len=%d, want %d", len(got), MaxCandidateRepos)
	}
}
