// Package budget keeps loaded skill content under a token ceiling.
//
// Content is loaded in three tiers of increasing detail:
//
//   - discovery:  a skill's metadata, a small fixed cost, never evicted
//   - activation: a skill's full instructions, up to ActivationMax tokens
//   - execution:  supporting files a skill needs, up to ExecutionMax tokens
//
// When an admission would push the total over the ceiling the tracker
// evicts execution files (oldest loaded first) and then active skills
// (least recently activated first). If even that cannot make room the
// admission fails with a budget_exceeded error and nothing is evicted.
package budget

import (
	"fmt"
)

// --- Tier enum ---

// Tier is a level of loaded detail.
type Tier string

const (
	TierDiscovery  Tier = "discovery"
	TierActivation Tier = "activation"
	TierExecution  Tier = "execution"
)

// Tiers lists the tiers from least to most detailed.
var Tiers = []Tier{TierDiscovery, TierActivation, TierExecution}

// --- State enum ---

// State summarizes how full the budget is.
type State string

const (
	StateOK       State = "ok"
	StateWarning  State = "warning"
	StateExceeded State = "exceeded"
)

// --- Configuration ---

// Config holds the ceiling and per-item costs.
type Config struct {
	Ceiling          int     `mapstructure:"ceiling" json:"ceiling"`
	DiscoveryCost    int     `mapstructure:"discovery_cost" json:"discovery_cost"`
	ActivationMax    int     `mapstructure:"activation_max" json:"activation_max"`
	ExecutionMax     int     `mapstructure:"execution_max" json:"execution_max"`
	WarningThreshold float64 `mapstructure:"warning_threshold" json:"warning_threshold"`
}

// DefaultConfig returns the stock budget.
func DefaultConfig() Config {
	return Config{
		Ceiling:          8000,
		DiscoveryCost:    50,
		ActivationMax:    1000,
		ExecutionMax:     2000,
		WarningThreshold: 0.8,
	}
}

// Validate checks that every per-item cost fits under the ceiling.
func (c Config) Validate() error {
	switch {
	case c.Ceiling <= 0:
		return fmt.Errorf("budget ceiling must be positive, got %d", c.Ceiling)
	case c.DiscoveryCost < 0:
		return fmt.Errorf("discovery cost must not be negative, got %d", c.DiscoveryCost)
	case c.ActivationMax <= 0:
		return fmt.Errorf("activation max must be positive, got %d", c.ActivationMax)
	case c.ExecutionMax <= 0:
		return fmt.Errorf("execution max must be positive, got %d", c.ExecutionMax)
	case c.ActivationMax > c.Ceiling:
		return fmt.Errorf("activation max %d exceeds ceiling %d", c.ActivationMax, c.Ceiling)
	case c.ExecutionMax > c.Ceiling:
		return fmt.Errorf("execution max %d exceeds ceiling %d", c.ExecutionMax, c.Ceiling)
	case c.WarningThreshold <= 0 || c.WarningThreshold > 1:
		return fmt.Errorf("warning threshold must be in (0,1], got %v", c.WarningThreshold)
	}
	return nil
}

// --- Collaborators ---

// ContentSource returns the full instructions for a skill.
type ContentSource interface {
	Content(id string) (string, error)
}

// FileSource reads an execution file. Key returns the canonical form of a
// path; two spellings of one file share a key.
type FileSource interface {
	Read(path string) (string, error)
	Key(path string) (string, error)
}

// --- Items and results ---

// Item is one loaded entry.
type Item struct {
	ID        string `json:"id"`
	Tier      Tier   `json:"tier"`
	TokenCost int    `json:"token_cost"`
	LoadedAt  string `json:"loaded_at"`
	Owner     string `json:"owner,omitempty"`
}

// Eviction records an item removed to make room.
type Eviction struct {
	ID          string `json:"id"`
	Tier        Tier   `json:"tier"`
	TokensFreed int    `json:"tokens_freed"`
}

// ActivationResult is returned by Activate.
type ActivationResult struct {
	ID            string     `json:"id"`
	AlreadyActive bool       `json:"already_active"`
	TokenCost     int        `json:"token_cost"`
	Evicted       []Eviction `json:"evicted,omitempty"`
	TotalTokens   int        `json:"total_tokens"`
}

// DeactivationResult is returned by Deactivate.
type DeactivationResult struct {
	ID              string   `json:"id"`
	AlreadyInactive bool     `json:"already_inactive"`
	TokensFreed     int      `json:"tokens_freed"`
	TotalTokens     int      `json:"total_tokens"`
	FilesKept       []string `json:"files_kept,omitempty"`
}

// FileLoadResult is returned by LoadExecutionFile.
type FileLoadResult struct {
	Path          string     `json:"path"`
	Owner         string     `json:"owner"`
	AlreadyLoaded bool       `json:"already_loaded"`
	TokenCost     int        `json:"token_cost"`
	Evicted       []Eviction `json:"evicted,omitempty"`
	TotalTokens   int        `json:"total_tokens"`
}

// UnloadResult is returned by UnloadExecutionFiles.
type UnloadResult struct {
	Unloaded    []string `json:"unloaded"`
	NotLoaded   []string `json:"not_loaded,omitempty"`
	TokensFreed int      `json:"tokens_freed"`
	TotalTokens int      `json:"total_tokens"`
}

// TierUsage is the per-tier part of a Status.
type TierUsage struct {
	Tier   Tier `json:"tier"`
	Tokens int  `json:"tokens"`
	Items  int  `json:"items"`
}

// Status is a read-only snapshot of the tracker.
type Status struct {
	TotalTokens        int         `json:"total_tokens"`
	Ceiling            int         `json:"ceiling"`
	Available          int         `json:"available"`
	UtilizationPercent float64     `json:"utilization_percent"`
	State              State       `json:"state"`
	Tiers              []TierUsage `json:"tiers"`
	ActiveSkills       []string    `json:"active_skills"`
	InactiveSkills     []string    `json:"inactive_skills"`
	ExecutionFiles     []Item      `json:"execution_files"`
	Evictions          int         `json:"evictions"`
}

// Tier returns the usage for t.
func (s Status) Tier(t Tier) TierUsage {
	for _, u := range s.Tiers {
		if u.Tier == t {
			return u
		}
	}
	return TierUsage{Tier: t}
}
