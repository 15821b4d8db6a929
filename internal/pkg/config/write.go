package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// DefaultConfigPath 当前目录下的 config/config.yaml
func DefaultConfigPath() string {
	return filepath.Join("config", "config.yaml")
}

// WriteFile 以 YAML 写出配置；token 等敏感值写出的是占位符还是明文取决于 cfg 本身
func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
			"log_path":  cfg.App.LogPath,
		},
		"storage": map[string]any{
			"driver":  cfg.Storage.Driver,
			"db_path": cfg.Storage.DBPath,
			"dsn":     cfg.Storage.DSN,
		},
		"cache": map[string]any{
			"backend":                  cfg.Cache.Backend,
			"redis_addr":               cfg.Cache.RedisAddr,
			"redis_password":           cfg.Cache.RedisPassword,
			"redis_db":                 cfg.Cache.RedisDB,
			"sweep_interval_min":       cfg.Cache.SweepIntervalMin,
			"issue_filter_ttl_min":     cfg.Cache.IssueFilterTTLMin,
			"recommendation_ttl_hours": cfg.Cache.RecommendationTTLHours,
			"viability_ttl_days":       cfg.Cache.ViabilityTTLDays,
		},
		"github": map[string]any{
			"token":               cfg.GitHub.Token,
			"base_url":            cfg.GitHub.BaseURL,
			"graphql_url":         cfg.GitHub.GraphQLURL,
			"requests_per_second": cfg.GitHub.RequestsPerSecond,
			"max_retries":         cfg.GitHub.MaxRetries,
		},
		"source": map[string]any{
			"mode":         cfg.Source.Mode,
			"fixture_path": cfg.Source.FixturePath,
		},
		"http": map[string]any{
			"listen_addr": cfg.HTTP.ListenAddr,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
