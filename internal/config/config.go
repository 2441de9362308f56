// Package config loads skillgate's runtime configuration.
//
// Values come from, in increasing precedence: built-in defaults, an
// optional YAML file, and SKILLGATE_* environment variables. Nested keys map
// to environment names with "." replaced by "_", so budget.ceiling is read
// from SKILLGATE_BUDGET_CEILING.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/skillgate/internal/budget"
	"github.com/HendryAvila/skillgate/internal/errs"
	"github.com/HendryAvila/skillgate/internal/pipeline"
	"github.com/HendryAvila/skillgate/internal/router"
	"github.com/HendryAvila/skillgate/internal/tokens"
	"github.com/HendryAvila/skillgate/internal/triggers"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable the loader reads.
const EnvPrefix = "SKILLGATE"

// ConfigEnv names the variable that points at a config file when no
// explicit path is given.
const ConfigEnv = EnvPrefix + "_CONFIG"

// JournalConfig controls the optional session journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Path    string `mapstructure:"path" json:"path"` // empty → <data_dir>/journal.db
}

// Config is the resolved runtime configuration.
type Config struct {
	DataDir       string        `mapstructure:"data_dir" json:"data_dir"`
	SkillsDir     string        `mapstructure:"skills_dir" json:"skills_dir,omitempty"`
	TriggersFile  string        `mapstructure:"triggers_file" json:"triggers_file,omitempty"`
	Workflow      string        `mapstructure:"workflow" json:"workflow"`
	Strategy      string        `mapstructure:"strategy" json:"strategy"`
	TopK          int           `mapstructure:"top_k" json:"top_k"`
	MaxActivities int           `mapstructure:"max_activities" json:"max_activities"`
	TokenCounter  string        `mapstructure:"token_counter" json:"token_counter"`
	Budget        budget.Config `mapstructure:"budget" json:"budget"`
	FileRoot      string        `mapstructure:"file_root" json:"file_root"`
	FileCacheSize int           `mapstructure:"file_cache_size" json:"file_cache_size"`
	Journal       JournalConfig `mapstructure:"journal" json:"journal"`
	LogLevel      string        `mapstructure:"log_level" json:"log_level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		DataDir:       defaultDataDir(),
		Workflow:      string(pipeline.FlowStandard),
		Strategy:      string(triggers.StrategyTiered),
		TopK:          router.DefaultTopK,
		MaxActivities: router.DefaultMaxActivities,
		TokenCounter:  string(tokens.KindHeuristic),
		Budget:        budget.DefaultConfig(),
		FileRoot:      ".",
		FileCacheSize: 128,
		Journal:       JournalConfig{Enabled: true},
		LogLevel:      "info",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skillgate"
	}
	return filepath.Join(home, ".skillgate")
}

// Load resolves the configuration. path may be empty, in which case
// $SKILLGATE_CONFIG is consulted; with neither set only defaults and the
// environment apply. A named file that does not exist is a not_found error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound("config file", path)
		}
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Validation(fmt.Sprintf("reading config %s: %v", path, err),
				map[string]any{"path": path})
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Validation(fmt.Sprintf("decoding config: %v", err), nil)
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(cfg.DataDir, "journal.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("skills_dir", d.SkillsDir)
	v.SetDefault("triggers_file", d.TriggersFile)
	v.SetDefault("workflow", d.Workflow)
	v.SetDefault("strategy", d.Strategy)
	v.SetDefault("top_k", d.TopK)
	v.SetDefault("max_activities", d.MaxActivities)
	v.SetDefault("token_counter", d.TokenCounter)
	v.SetDefault("budget.ceiling", d.Budget.Ceiling)
	v.SetDefault("budget.discovery_cost", d.Budget.DiscoveryCost)
	v.SetDefault("budget.activation_max", d.Budget.ActivationMax)
	v.SetDefault("budget.execution_max", d.Budget.ExecutionMax)
	v.SetDefault("budget.warning_threshold", d.Budget.WarningThreshold)
	v.SetDefault("file_root", d.FileRoot)
	v.SetDefault("file_cache_size", d.FileCacheSize)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("log_level", d.LogLevel)
}

// Validate reports the first invalid field as a validation_error whose
// details name the field.
func (c *Config) Validate() error {
	invalid := func(field string, err error) error {
		return errs.Validation(fmt.Sprintf("config %s: %v", field, err), map[string]any{"field": field})
	}

	if err := pipeline.ValidateFlow(pipeline.Flow(c.Workflow)); err != nil {
		return invalid("workflow", err)
	}
	if err := triggers.ValidateStrategy(triggers.Strategy(c.Strategy)); err != nil {
		return invalid("strategy", err)
	}
	if c.TopK <= 0 {
		return invalid("top_k", fmt.Errorf("must be positive, got %d", c.TopK))
	}
	if c.MaxActivities <= 0 {
		return invalid("max_activities", fmt.Errorf("must be positive, got %d", c.MaxActivities))
	}
	if _, err := tokens.New(tokens.Kind(c.TokenCounter)); err != nil {
		return invalid("token_counter", err)
	}
	if err := c.Budget.Validate(); err != nil {
		return invalid("budget", err)
	}
	if c.FileCacheSize < 0 {
		return invalid("file_cache_size", fmt.Errorf("must not be negative, got %d", c.FileCacheSize))
	}
	if _, err := c.SlogLevel(); err != nil {
		return invalid("log_level", err)
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
