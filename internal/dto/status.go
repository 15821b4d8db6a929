package dto

type HealthDTO struct {
	OK        bool   `json:"ok"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	StartedAt string `json:"started_at"`
	UptimeSec int64  `json:"uptime_sec"`
}

type CacheStatsDTO struct {
	Backend string `json:"backend"`
	Total   int64  `json:"total"`
	Expired int64  `json:"expired"`
	Active  int64  `json:"active"`
}

type CacheSweepDTO struct {
	Deleted int64 `json:"deleted"`
}
