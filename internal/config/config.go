package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	WhistleEmail    string `mapstructure:"whistle_email"`
	WhistlePassword string `mapstructure:"whistle_password"`

	APIScheme string `mapstructure:"api_scheme"`
	APIHost   string `mapstructure:"api_host"`
	APIPath   string `mapstructure:"api_path"`

	PollIntervalSeconds int64         `mapstructure:"poll_interval"`
	PollInterval        time.Duration `mapstructure:"-"`
	HTTPTimeoutSeconds  int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout         time.Duration `mapstructure:"-"`

	PublishersFile string  `mapstructure:"publishers_file"`
	WatchPetsRaw   string  `mapstructure:"watch_pets"`
	WatchPetIDs    []int64 `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	// Every key needs a default (even an empty one): viper's Unmarshal only
	// visits keys it already knows about, so env-only keys would otherwise
	// never be seen.
	v.SetDefault("app_name", "whistle-tracker")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("whistle_email", "")
	v.SetDefault("whistle_password", "")
	v.SetDefault("watch_pets", "")
	v.SetDefault("api_scheme", "https")
	v.SetDefault("api_host", "app.whistle.com")
	v.SetDefault("api_path", "api")
	v.SetDefault("poll_interval", 900) // seconds
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/tracker.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.WhistleEmail) == "" || strings.TrimSpace(cfg.WhistlePassword) == "" {
		return nil, fmt.Errorf("whistle_email and whistle_password are required")
	}

	watchIDs, err := parseWatchPets(cfg.WatchPetsRaw)
	if err != nil {
		return nil, err
	}
	cfg.WatchPetIDs = watchIDs

	if cfg.PollIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid poll_interval (must be positive seconds)")
	}
	cfg.PollInterval = time.Duration(cfg.PollIntervalSeconds) * time.Second

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// parseWatchPets parses the comma-separated watch_pets value into pet ids.
func parseWatchPets(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid watch_pets entry %q (must be numeric pet ids)", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
