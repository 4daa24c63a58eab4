package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load(nil)

	if cfg.EndpointPrefix != "/finance" || cfg.PageSize != 20 || cfg.RecentCount != 5 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.BaseURL() != "http://localhost:5678/webhook/finance" {
		t.Errorf("unexpected base url %q", cfg.BaseURL())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
api_base: https://n8n.example.com/webhook/
endpoint_prefix: ""
page_size: 10
http_timeout: 5s
paypal:
  monthly_plan_id: P-MONTH
  yearly_plan_id: P-YEAR
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := config.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	t.Setenv("FT_PAGE_SIZE", "50")
	cfg := config.Load(f)

	if cfg.BaseURL() != "https://n8n.example.com/webhook" {
		t.Errorf("empty prefix should be honoured, got %q", cfg.BaseURL())
	}
	if cfg.PageSize != 50 {
		t.Errorf("env should win over file, got %d", cfg.PageSize)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("unexpected timeout %s", cfg.HTTPTimeout)
	}
	if cfg.PayPalMonthlyPlanID != "P-MONTH" || cfg.PayPalYearlyPlanID != "P-YEAR" {
		t.Errorf("unexpected plan ids %q %q", cfg.PayPalMonthlyPlanID, cfg.PayPalYearlyPlanID)
	}
}

func TestReadFile_Missing(t *testing.T) {
	f, err := config.ReadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || f == nil {
		t.Fatalf("missing file should be empty, got %v", err)
	}
}

func TestReadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("page_size: [oops"), 0o600)

	if _, err := config.ReadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("FT_API_BASE", "n8n.local")
	if err := config.Load(nil).Validate(); err == nil {
		t.Error("expected scheme error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nexport FT_RECENT_COUNT=7\nFT_LOG_LEVEL='debug'\nFT_PAGE_SIZE=99\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FT_PAGE_SIZE", "30")
	// Registered so the values set by LoadDotEnv are restored after the test.
	t.Setenv("FT_RECENT_COUNT", "")
	t.Setenv("FT_LOG_LEVEL", "")
	os.Unsetenv("FT_RECENT_COUNT")
	os.Unsetenv("FT_LOG_LEVEL")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := config.Load(nil)
	if cfg.RecentCount != 7 || cfg.LogLevel != "debug" {
		t.Errorf("dotenv values not applied: %+v", cfg)
	}
	if cfg.PageSize != 30 {
		t.Errorf("environment must win over .env, got %d", cfg.PageSize)
	}
}
