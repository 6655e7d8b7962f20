// Package config provides configuration loading and validation for the CLI
// and the API server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided
// via CLI flags.
type Config struct {
	// Candidate info
	Resume string `json:"resume,omitempty"` // Path to resume text file
	Name   string `json:"name,omitempty"`   // Candidate name
	Email  string `json:"email,omitempty"`  // Candidate email

	// Campaign defaults
	Strategy       string   `json:"strategy,omitempty"`          // Offer selection strategy
	MaxJobsPerRole int      `json:"max_jobs_per_role,omitempty"` // Cap on jobs per target role
	Tone           string   `json:"tone,omitempty"`              // Drafting tone
	Companies      []string `json:"companies,omitempty"`         // Default target companies
	Locations      []string `json:"locations,omitempty"`         // Default target locations

	// Behavior
	APIKey           string `json:"api_key,omitempty"`            // Gemini API key
	DatabaseURL      string `json:"database_url,omitempty"`       // PostgreSQL connection URL
	ListenAddr       string `json:"listen_addr,omitempty"`        // API server bind address
	PacingIntervalMs int    `json:"pacing_interval_ms,omitempty"` // Delay between provider calls in a run
	Verbose          bool   `json:"verbose,omitempty"`            // Print detailed progress information

	// Provider wiring
	Boards  map[string]string `json:"boards,omitempty"`  // company -> job board URL
	Domains map[string]string `json:"domains,omitempty"` // company -> email domain
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are handled by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.MaxJobsPerRole < 0 {
		return fmt.Errorf("config error: 'max_jobs_per_role' must be non-negative")
	}
	if c.PacingIntervalMs < 0 {
		return fmt.Errorf("config error: 'pacing_interval_ms' must be non-negative")
	}

	if c.Resume != "" {
		if _, err := os.Stat(c.Resume); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.Resume)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.Name == "" {
		result.Name = defaults.Name
	}
	if result.Email == "" {
		result.Email = defaults.Email
	}
	if result.Strategy == "" {
		result.Strategy = defaults.Strategy
	}
	if result.Tone == "" {
		result.Tone = defaults.Tone
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ListenAddr == "" {
		result.ListenAddr = defaults.ListenAddr
	}

	if result.MaxJobsPerRole == 0 {
		result.MaxJobsPerRole = defaults.MaxJobsPerRole
	}
	if result.PacingIntervalMs == 0 {
		result.PacingIntervalMs = defaults.PacingIntervalMs
	}

	if len(result.Companies) == 0 {
		result.Companies = defaults.Companies
	}
	if len(result.Locations) == 0 {
		result.Locations = defaults.Locations
	}
	if result.Boards == nil {
		result.Boards = defaults.Boards
	}
	if result.Domains == nil {
		result.Domains = defaults.Domains
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
