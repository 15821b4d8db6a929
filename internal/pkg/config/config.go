package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	GitHub  GitHubConfig  `mapstructure:"github"`
	Source  SourceConfig  `mapstructure:"source"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	DBPath string `mapstructure:"db_path"`
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Backend                string `mapstructure:"backend"` // db | redis
	RedisAddr              string `mapstructure:"redis_addr"`
	RedisPassword          string `mapstructure:"redis_password"`
	RedisDB                int    `mapstructure:"redis_db"`
	SweepIntervalMin       int    `mapstructure:"sweep_interval_min"`
	IssueFilterTTLMin      int    `mapstructure:"issue_filter_ttl_min"`
	RecommendationTTLHours int    `mapstructure:"recommendation_ttl_hours"`
	ViabilityTTLDays       int    `mapstructure:"viability_ttl_days"`
}

// GitHubConfig 上游 API 配置
type GitHubConfig struct {
	Token             string  `mapstructure:"token"`
	BaseURL           string  `mapstructure:"base_url"`
	GraphQLURL        string  `mapstructure:"graphql_url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	MaxRetries        int     `mapstructure:"max_retries"`
}

// SourceConfig 数据来源
type SourceConfig struct {
	Mode        string `mapstructure:"mode"` // fixture | github
	FixturePath string `mapstructure:"fixture_path"`
}

// HTTPConfig 本地 API 配置
type HTTPConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

const (
	SourceFixture = "fixture"
	SourceGitHub  = "github"

	CacheBackendDB    = "db"
	CacheBackendRedis = "redis"
)

// Load 加载配置文件；configPath 为空时按默认路径查找，找不到则使用默认值
func Load(configPath string) (*Config, error) {
	cfg, _, err := load(configPath)
	return cfg, err
}

func load(configPath string) (*Config, *viper.Viper, error) {
	// .env 先于环境变量生效，已存在的环境变量不会被覆盖
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("加载 .env 失败", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("OPENPATH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.GitHub.Token = expandEnv(cfg.GitHub.Token)
	cfg.Storage.DSN = expandEnv(cfg.Storage.DSN)
	cfg.Cache.RedisPassword = expandEnv(cfg.Cache.RedisPassword)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查枚举类配置项
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("不支持的存储驱动: %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("postgres 需要配置 storage.dsn")
	}
	switch c.Cache.Backend {
	case CacheBackendDB, CacheBackendRedis:
	default:
		return fmt.Errorf("不支持的缓存后端: %q", c.Cache.Backend)
	}
	switch c.Source.Mode {
	case SourceFixture, SourceGitHub:
	default:
		return fmt.Errorf("不支持的数据来源: %q", c.Source.Mode)
	}
	return nil
}

// Default 返回全部默认值组成的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "openpath-agent")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_path", "")

	// Storage
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.db_path", "./data/openpath.db")
	v.SetDefault("storage.dsn", "")

	// Cache
	v.SetDefault("cache.backend", CacheBackendDB)
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.sweep_interval_min", 0)
	v.SetDefault("cache.issue_filter_ttl_min", 60)
	v.SetDefault("cache.recommendation_ttl_hours", 24)
	v.SetDefault("cache.viability_ttl_days", 7)

	// GitHub
	v.SetDefault("github.token", "${GITHUB_TOKEN}")
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.graphql_url", "https://api.github.com/graphql")
	v.SetDefault("github.requests_per_second", 5)
	v.SetDefault("github.max_retries", 3)

	// Source
	v.SetDefault("source.mode", SourceFixture)
	v.SetDefault("source.fixture_path", "")

	// HTTP
	v.SetDefault("http.listen_addr", "127.0.0.1:8787")
}

// Watch 监听配置文件变化，解析成功后回调；没有配置文件时不做任何事
func Watch(configPath string, onChange func(*Config)) error {
	_, v, err := load(configPath)
	if err != nil {
		return err
	}
	if v.ConfigFileUsed() == "" {
		return nil
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			slog.Warn("重新加载配置失败", "path", e.Name, "error", err)
			return
		}
		slog.Info("配置已重新加载", "path", e.Name)
		if onChange != nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
	return nil
}

// expandEnv 展开环境变量占位符 ${VAR}
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := s[2 : len(s)-1]
		return os.Getenv(envVar)
	}
	return s
}

// ResolvePath 相对路径按可执行文件目录解析
func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	exe, err := os.Executable()
	if err != nil {
		return path
	}
	return filepath.Join(filepath.Dir(exe), path)
}
