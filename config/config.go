package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// PathEnv names the environment variable holding the config file path.
	PathEnv = "CONFIG_PATH"
	// DefaultPath is read when PathEnv is unset.
	DefaultPath = "./config/config.yaml"
)

// TrackingURIEnv names the environment variable MLflow clients read the
// registry location from.
const TrackingURIEnv = "MLFLOW_TRACKING_URI"

// Config represents the overall application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Data      DataConfig      `yaml:"data"`
	Model     ModelConfig     `yaml:"model"`
	Log       LogConfig       `yaml:"log"`

	// Warnings collects the defaults worth telling the operator about. They
	// are logged once the logger has been configured.
	Warnings []string `yaml:"-"`
}

// ServerConfig holds the prediction service HTTP configuration.
type ServerConfig struct {
	Port               int           `yaml:"port"`
	RateLimitPerSec    float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds    int           `yaml:"cache_ttl_seconds"`
	CacheTTL           time.Duration `yaml:"-"`
	CORSAllowedOrigins string        `yaml:"cors_allowed_origins"`
}

// DashboardConfig holds the dashboard HTTP configuration and the location of
// the prediction service it forwards estimates to.
type DashboardConfig struct {
	Port                  int           `yaml:"port"`
	APIURL                string        `yaml:"api_url"`
	RequestTimeoutSeconds int           `yaml:"request_timeout_seconds"`
	RequestTimeout        time.Duration `yaml:"-"`
	CacheTTLSeconds       int           `yaml:"cache_ttl_seconds"`
	CacheTTL              time.Duration `yaml:"-"`
}

// DataConfig points at the static input tables.
type DataConfig struct {
	DelayPath   string `yaml:"delay_path"`
	PricingPath string `yaml:"pricing_path"`
}

// ModelConfig describes where the regression model comes from.
// LocalPath, when set, takes precedence over the registry.
type ModelConfig struct {
	Name           string        `yaml:"name"`
	TrackingURI    string        `yaml:"tracking_uri"`
	ServingURI     string        `yaml:"serving_uri"`
	LocalPath      string        `yaml:"local_path"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
	// BatchSize caps the rows sent per scoring request; Workers bounds the
	// concurrent requests of one batch prediction.
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
	// TrackingURIEnv holds MLFLOW_TRACKING_URI as found at load time; nil
	// when the variable is unset.
	TrackingURIEnv *string `yaml:"-"`
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, for running
// without a config file.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFromEnv loads the file named by CONFIG_PATH and returns the path it
// used. When CONFIG_PATH is empty and the default file does not exist, the
// built-in defaults are returned with an empty path.
func LoadFromEnv() (*Config, string, error) {
	path := os.Getenv(PathEnv)
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), "", nil
	}
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func (cfg *Config) applyDefaults() {
	cfg.Warnings = nil
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	if cfg.Server.CORSAllowedOrigins == "" {
		cfg.Server.CORSAllowedOrigins = "*"
	}

	if cfg.Dashboard.Port <= 0 {
		cfg.Dashboard.Port = 8501
	}
	if cfg.Dashboard.APIURL == "" {
		cfg.Dashboard.APIURL = "http://localhost:8000"
	}
	if cfg.Dashboard.RequestTimeoutSeconds <= 0 {
		cfg.Dashboard.RequestTimeoutSeconds = 30
	}
	cfg.Dashboard.RequestTimeout = time.Duration(cfg.Dashboard.RequestTimeoutSeconds) * time.Second
	if cfg.Dashboard.CacheTTLSeconds <= 0 {
		cfg.Dashboard.CacheTTLSeconds = 600
	}
	cfg.Dashboard.CacheTTL = time.Duration(cfg.Dashboard.CacheTTLSeconds) * time.Second

	if cfg.Data.DelayPath == "" {
		cfg.Data.DelayPath = "./data/get_around_delay_analysis.xlsx"
	}
	if cfg.Data.PricingPath == "" {
		cfg.Data.PricingPath = "./data/get_around_pricing_project.csv"
	}

	if cfg.Model.Name == "" {
		cfg.Model.Name = "getaround_xgbr"
	}
	cfg.Model.TrackingURIEnv = nil
	if env, ok := os.LookupEnv(TrackingURIEnv); ok {
		cfg.Model.TrackingURIEnv = &env
		if env != "" {
			cfg.Model.TrackingURI = env
		}
	}
	if cfg.Model.TrackingURI == "" {
		cfg.Model.TrackingURI = "http://localhost:5000"
	}
	if cfg.Model.ServingURI == "" && cfg.Model.LocalPath == "" {
		cfg.Warnings = append(cfg.Warnings, "model.serving_uri is not set; defaulting to http://localhost:5001")
		cfg.Model.ServingURI = "http://localhost:5001"
	}
	if cfg.Model.TimeoutSeconds <= 0 {
		cfg.Model.TimeoutSeconds = 30
	}
	cfg.Model.Timeout = time.Duration(cfg.Model.TimeoutSeconds) * time.Second
	if cfg.Model.BatchSize <= 0 {
		cfg.Model.BatchSize = 1000
	}
	if cfg.Model.Workers <= 0 {
		cfg.Model.Workers = 4
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
