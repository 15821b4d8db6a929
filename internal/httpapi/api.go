package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/yuqie6/OpenPath/internal/dto"
	"github.com/yuqie6/OpenPath/internal/eventbus"
	"github.com/yuqie6/OpenPath/internal/schema"
	"github.com/yuqie6/OpenPath/internal/service"
)

func (a *apiServer) registerJSONRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users/{userID}/sync", a.syncContributions)
	mux.HandleFunc("POST /api/users/{userID}/resolved-issues/sync", a.syncResolvedIssues)
	mux.HandleFunc("GET /api/users/{userID}/portfolio", a.getPortfolio)
	mux.HandleFunc("GET /api/users/{userID}/dashboard", a.getDashboard)
	mux.HandleFunc("GET /api/users/{userID}/impact", a.getImpact)
	mux.HandleFunc("GET /api/users/{userID}/recommendations", a.getRecommendations)

	mux.HandleFunc("GET /api/repos/{owner}/{name}/viability", a.getViability)

	mux.HandleFunc("GET /api/issues", a.getIssues)
	mux.HandleFunc("GET /api/issues/options", a.getIssueOptions)

	mux.HandleFunc("GET /api/cache/stats", a.getCacheStats)
	mux.HandleFunc("POST /api/cache/sweep", a.sweepCache)
}

func (a *apiServer) syncContributions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	res, err := a.rt.Services.Ingestion.SyncContributions(r.Context(), userID, r.URL.Query().Get("login"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if res.Created > 0 {
		a.hub.Publish(eventbus.Event{
			Type: eventbus.TypeContributionsSynced,
			Data: map[string]any{"user_id": res.UserID, "created": res.Created},
		})
	}
	writeJSON(w, http.StatusOK, dto.ToSyncResultDTO(res))
}

func (a *apiServer) syncResolvedIssues(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	n, err := a.rt.Services.Ingestion.SyncResolvedIssues(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ResolvedSyncDTO{UserID: userID, Created: n})
}

func (a *apiServer) getPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := a.rt.Services.Portfolio.GetContributionPortfolio(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToPortfolioDTO(p))
}

func (a *apiServer) getDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.rt.Services.Portfolio.GetDashboardData(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToDashboardDTO(d))
}

func (a *apiServer) getImpact(w http.ResponseWriter, r *http.Request) {
	m, err := a.rt.Services.Portfolio.GetImpactMetrics(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToImpactDTO(m))
}

func (a *apiServer) getRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := a.rt.Services.Recommender.Recommend(
		r.Context(),
		r.PathValue("userID"),
		splitList(q.Get("skills")),
		splitList(q.Get("interests")),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToRecommendationDTOs(recs))
}

func (a *apiServer) getViability(w http.ResponseWriter, r *http.Request) {
	owner, name := r.PathValue("owner"), r.PathValue("name")
	v, err := a.rt.Services.Viability.Evaluate(r.Context(), owner, name)
	if err != nil {
		slog.Warn("计算仓库健康度失败，返回中性分", "repo", service.RepoKey(owner, name), "error", err)
		writeJSON(w, http.StatusOK, dto.NeutralViabilityDTO(owner, name))
		return
	}
	writeJSON(w, http.StatusOK, dto.ToViabilityDTO(v))
}

func (a *apiServer) getIssues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := service.IssueFilter{
		Language:   q.Get("language"),
		Topic:      q.Get("topic"),
		Difficulty: q.Get("difficulty"),
	}
	if isTruthy(q.Get("refresh")) {
		if err := a.rt.Services.Filter.RefreshFilter(r.Context(), criteria); err != nil {
			writeServiceError(w, err)
			return
		}
		a.hub.Publish(eventbus.Event{
			Type: eventbus.TypeFilterRefreshed,
			Data: map[string]any{"language": criteria.Language, "topic": criteria.Topic},
		})
	}
	res, err := a.rt.Services.Filter.FetchFilteredIssues(r.Context(), criteria)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToFilterResultDTO(res))
}

func (a *apiServer) getIssueOptions(w http.ResponseWriter, r *http.Request) {
	f := a.rt.Services.Filter
	writeJSON(w, http.StatusOK, dto.FilterOptionsDTO{
		Languages:    f.AvailableLanguages(),
		Topics:       f.AvailableTopics(),
		Difficulties: []string{schema.LevelBeginner, schema.LevelIntermediate, schema.LevelAdvanced},
	})
}

func (a *apiServer) getCacheStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.rt.Cache.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CacheStatsDTO{
		Backend: a.rt.CacheBackend(),
		Total:   st.Total,
		Expired: st.Expired,
		Active:  st.Active,
	})
}

func (a *apiServer) sweepCache(w http.ResponseWriter, r *http.Request) {
	n, err := a.rt.Cache.ClearExpired(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CacheSweepDTO{Deleted: n})
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
