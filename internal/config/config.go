package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location, overridable with the
// LUXSYNC_CONFIG environment variable.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                    string `yaml:"port"`
	LogLevel                string `yaml:"logLevel"`
	DatabaseURL             string `yaml:"databaseURL"`
	StorageEndpoint         string `yaml:"storageEndpoint"`
	StorageRegion           string `yaml:"storageRegion"`
	StorageBucket           string `yaml:"storageBucket"`
	StorageAccessKey        string `yaml:"storageAccessKey"`
	StorageSecretKey        string `yaml:"storageSecretKey"`
	StorageUseSSL           bool   `yaml:"storageUseSSL"`
	StorageBasePath         string `yaml:"storageBasePath"`
	PublicBaseURL           string `yaml:"publicBaseURL"`
	AdminPassword           string `yaml:"adminPassword"`
	SessionSecret           string `yaml:"sessionSecret"`
	SessionTTL              string `yaml:"sessionTTL"`
	MaxUploadBytes          int64  `yaml:"maxUploadBytes"`
	ListLimit               int    `yaml:"listLimit"`
	OptimizeMaxWidth        int    `yaml:"optimizeMaxWidth"`
	RedisAddr               string `yaml:"redisAddr"`
	RedisPassword           string `yaml:"redisPassword"`
	LoginRateLimitPerMinute int    `yaml:"loginRateLimitPerMinute"`
}

// Load reads config from path (defaults to config.yaml or LUXSYNC_CONFIG).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
		if v := os.Getenv("LUXSYNC_CONFIG"); v != "" {
			path = v
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.StorageEndpoint = v
	}
	if v := os.Getenv("STORAGE_REGION"); v != "" {
		cfg.StorageRegion = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.StorageBucket = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.StorageAccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.StorageSecretKey = v
	}
	if v := os.Getenv("STORAGE_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.StorageUseSSL = b
		}
	}
	if v := os.Getenv("STORAGE_BASE_PATH"); v != "" {
		cfg.StorageBasePath = v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		cfg.PublicBaseURL = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.AdminPassword = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.StorageEndpoint == "" {
		return errors.New("config: storageEndpoint is required (set in config.yaml or STORAGE_ENDPOINT)")
	}
	if cfg.StorageBucket == "" {
		return errors.New("config: storageBucket is required (set in config.yaml or STORAGE_BUCKET)")
	}
	if cfg.StorageAccessKey == "" || cfg.StorageSecretKey == "" {
		return errors.New("config: storage access credentials are required")
	}
	if cfg.StorageBasePath == "" {
		return errors.New("config: storageBasePath is required")
	}
	if cfg.PublicBaseURL == "" {
		return errors.New("config: publicBaseURL is required (set in config.yaml or PUBLIC_BASE_URL)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.AdminPassword == "" {
		return errors.New("config: adminPassword is required (set in config.yaml or ADMIN_PASSWORD)")
	}
	if cfg.LoginRateLimitPerMinute < 0 {
		return errors.New("config: loginRateLimitPerMinute must be >= 0")
	}
	return nil
}

// ParseSessionTTL parses the optional session TTL duration string.
func ParseSessionTTL(ttl string) (time.Duration, error) {
	if ttl == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(ttl)
	if err != nil {
		return 0, fmt.Errorf("invalid sessionTTL duration: %w", err)
	}
	return dur, nil
}
