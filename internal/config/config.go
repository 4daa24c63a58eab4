package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all client configuration.
// Values come from environment variables, then the optional config file,
// then defaults.
type Config struct {
	// Backend
	APIBase        string
	EndpointPrefix string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxConcurrency int
	BreakerTimeout time.Duration

	// Views
	PageSize    int
	RecentCount int

	// Local state
	DataDir string

	// Observability
	LogLevel     string
	OTLPEndpoint string

	// Checkout
	PayPalMonthlyPlanID string
	PayPalYearlyPlanID  string
}

// File is the YAML config file layout.
type File struct {
	APIBase        string  `yaml:"api_base"`
	EndpointPrefix *string `yaml:"endpoint_prefix"`
	HTTPTimeout    string  `yaml:"http_timeout"`
	MaxConcurrency int     `yaml:"max_concurrency"`
	BreakerTimeout string  `yaml:"breaker_timeout"`
	PageSize       int     `yaml:"page_size"`
	RecentCount    int     `yaml:"recent_count"`
	DataDir        string  `yaml:"data_dir"`
	LogLevel       string  `yaml:"log_level"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"`
	PayPal         struct {
		MonthlyPlanID string `yaml:"monthly_plan_id"`
		YearlyPlanID  string `yaml:"yearly_plan_id"`
	} `yaml:"paypal"`
}

// ReadFile decodes the YAML config at path. A missing file yields an empty
// File and no error.
func ReadFile(path string) (*File, error) {
	f := &File{}
	if path == "" {
		return f, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}

// Load reads configuration from environment variables, falling back to f
// (which may be nil) and then to defaults.
func Load(f *File) *Config {
	if f == nil {
		f = &File{}
	}

	prefix := "/finance"
	if f.EndpointPrefix != nil {
		prefix = *f.EndpointPrefix
	}
	if v, ok := os.LookupEnv("FT_ENDPOINT_PREFIX"); ok {
		prefix = v
	}

	return &Config{
		APIBase:        getEnv("FT_API_BASE", or(f.APIBase, "http://localhost:5678/webhook")),
		EndpointPrefix: prefix,

		HTTPTimeout: getEnvDuration("FT_HTTP_TIMEOUT", parseDuration(f.HTTPTimeout, 30*time.Second)),

		MaxConcurrency: getEnvInt("FT_MAX_CONCURRENCY", orInt(f.MaxConcurrency, 8)),
		BreakerTimeout: getEnvDuration("FT_BREAKER_TIMEOUT", parseDuration(f.BreakerTimeout, 10*time.Second)),

		PageSize:    getEnvInt("FT_PAGE_SIZE", orInt(f.PageSize, 20)),
		RecentCount: getEnvInt("FT_RECENT_COUNT", orInt(f.RecentCount, 5)),

		DataDir: getEnv("FT_DATA_DIR", or(f.DataDir, defaultDataDir())),

		LogLevel:     getEnv("FT_LOG_LEVEL", or(f.LogLevel, "warn")),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", f.OTLPEndpoint),

		PayPalMonthlyPlanID: getEnv("FT_PAYPAL_MONTHLY_PLAN_ID", f.PayPal.MonthlyPlanID),
		PayPalYearlyPlanID:  getEnv("FT_PAYPAL_YEARLY_PLAN_ID", f.PayPal.YearlyPlanID),
	}
}

// BaseURL is the API base joined with the endpoint prefix.
func (c *Config) BaseURL() string {
	prefix := strings.Trim(c.EndpointPrefix, "/")
	base := strings.TrimRight(c.APIBase, "/")
	if prefix == "" {
		return base
	}
	return base + "/" + prefix
}

// Validate reports settings the client cannot run with.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		return fmt.Errorf("api base %q must be an http(s) URL", c.APIBase)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	return nil
}

// DefaultFilePath is ~/.config/ftclient/config.yaml, or empty when the
// user config dir is unknown.
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ftclient", "config.yaml")
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "ftclient")
	}
	return ".ftclient"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
