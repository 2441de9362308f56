package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/skillgate/internal/errs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skillgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// --- Default ---

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Workflow != "standard" || cfg.Strategy != "tiered" || cfg.TokenCounter != "heuristic" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Journal.Enabled {
		t.Error("journal should be enabled by default")
	}
}

// --- Load ---

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	t.Setenv("SKILLGATE_DATA_DIR", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Budget.Ceiling != 8000 || cfg.Budget.DiscoveryCost != 50 {
		t.Errorf("budget = %+v, want defaults", cfg.Budget)
	}
	if cfg.Journal.Path != filepath.Join(cfg.DataDir, "journal.db") {
		t.Errorf("journal path = %q, want under data dir %q", cfg.Journal.Path, cfg.DataDir)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	path := writeConfig(t, `workflow: quick
strategy: ratio
top_k: 5
skills_dir: /opt/skills
budget:
  ceiling: 12000
journal:
  enabled: false
  path: /tmp/custom.db
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workflow != "quick" || cfg.Strategy != "ratio" || cfg.TopK != 5 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SkillsDir != "/opt/skills" {
		t.Errorf("SkillsDir = %q", cfg.SkillsDir)
	}
	if cfg.Budget.Ceiling != 12000 {
		t.Errorf("Ceiling = %d, want 12000", cfg.Budget.Ceiling)
	}
	if cfg.Budget.ActivationMax != 1000 {
		t.Errorf("ActivationMax = %d, nested default should survive a partial budget block", cfg.Budget.ActivationMax)
	}
	if cfg.Journal.Enabled || cfg.Journal.Path != "/tmp/custom.db" {
		t.Errorf("Journal = %+v", cfg.Journal)
	}
	if level, _ := cfg.SlogLevel(); level != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "workflow: quick\n")
	t.Setenv("SKILLGATE_WORKFLOW", "hotfix")
	t.Setenv("SKILLGATE_BUDGET_CEILING", "20000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workflow != "hotfix" {
		t.Errorf("Workflow = %q, want hotfix from env", cfg.Workflow)
	}
	if cfg.Budget.Ceiling != 20000 {
		t.Errorf("Ceiling = %d, want 20000 from env", cfg.Budget.Ceiling)
	}
}

func TestLoad_PathFromEnv(t *testing.T) {
	t.Setenv(ConfigEnv, writeConfig(t, "token_counter: tiktoken\n"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TokenCounter != "tiktoken" {
		t.Errorf("TokenCounter = %q, want tiktoken", cfg.TokenCounter)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errs.Has(err, errs.CodeNotFound) {
		t.Errorf("Load(missing) = %v, want not_found", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "budget: [unterminated\n"))
	if !errs.Has(err, errs.CodeValidation) {
		t.Errorf("Load(malformed) = %v, want validation_error", err)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	_, err := Load(writeConfig(t, "workflow: waterfall\n"))
	if !errs.Has(err, errs.CodeValidation) {
		t.Errorf("Load(bad workflow) = %v, want validation_error", err)
	}
}

// --- Validate ---

func TestValidate_NamesField(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Config)
	}{
		{"workflow", func(c *Config) { c.Workflow = "waterfall" }},
		{"strategy", func(c *Config) { c.Strategy = "fuzzy" }},
		{"top_k", func(c *Config) { c.TopK = 0 }},
		{"max_activities", func(c *Config) { c.MaxActivities = -1 }},
		{"token_counter", func(c *Config) { c.TokenCounter = "bpe" }},
		{"budget", func(c *Config) { c.Budget.Ceiling = 0 }},
		{"budget", func(c *Config) { c.Budget.ActivationMax = c.Budget.Ceiling + 1 }},
		{"file_cache_size", func(c *Config) { c.FileCacheSize = -1 }},
		{"log_level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var e *errs.Error
			if !errors.As(err, &e) || e.Code != errs.CodeValidation {
				t.Fatalf("Validate() = %v, want validation_error", err)
			}
			if got := e.Detail("field"); got != tt.field {
				t.Errorf("field detail = %v, want %s", got, tt.field)
			}
		})
	}
}
