package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	// ZeroDisplayZero shows a positive-weight group allocated nothing as 0
	ZeroDisplayZero = "zero"
	// ZeroDisplayBlank shows it as an empty cell, like an excluded group
	ZeroDisplayBlank = "blank"

	configFileName = "apportion_config.yaml"
	dateLayout     = "2006-01-02"
)

// Group is a named group and its weight
type Group struct {
	Name   string  `yaml:"name" validate:"required"`
	Weight float64 `yaml:"weight" validate:"gte=0"`
}

// Config represents the application configuration
type Config struct {
	StepDivisions   int `yaml:"stepDivisions" validate:"gte=1"`
	MaxIterations   int `yaml:"maxIterations" validate:"gte=1"`
	MinimumPerGroup int `yaml:"minimumPerGroup" validate:"gte=0"`

	Sessions        int    `yaml:"sessions" validate:"gte=0"`
	HoursPerSession int    `yaml:"hoursPerSession" validate:"gte=0"`
	SessionRule     string `yaml:"sessionRule,omitempty"`
	TermStart       string `yaml:"termStart,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TermEnd         string `yaml:"termEnd,omitempty" validate:"omitempty,datetime=2006-01-02"`

	GridColumns int    `yaml:"gridColumns" validate:"gte=0"`
	ZeroDisplay string `yaml:"zeroDisplay" validate:"oneof=zero blank"`

	Groups []Group `yaml:"groups,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used when no config file is found
func Default() *Config {
	return &Config{
		StepDivisions: 10000,
		MaxIterations: 1_000_000,
		ZeroDisplay:   ZeroDisplayZero,
	}
}

// LoadWithEnv loads the configuration for an environment.
// For example, env="test" looks for "apportion_config.test.yaml" before
// "apportion_config.yaml", in the current directory and then the home directory.
// Defaults are returned when no file exists.
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
// Fields missing from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct, the session rule syntax and the term window
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.SessionRule != "" {
		if _, err := rrule.StrToRRule(cfg.SessionRule); err != nil {
			return fmt.Errorf("invalid rrule in sessionRule: %w", err)
		}
	}

	if (cfg.TermStart == "") != (cfg.TermEnd == "") {
		return fmt.Errorf("termStart and termEnd must be set together")
	}

	start, end, err := cfg.TermWindow()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("termEnd %s is before termStart %s", cfg.TermEnd, cfg.TermStart)
	}

	return nil
}

// TermWindow parses the term dates. Both are zero when no window is set.
// The end date covers the whole day.
func (c *Config) TermWindow() (time.Time, time.Time, error) {
	if c.TermStart == "" || c.TermEnd == "" {
		return time.Time{}, time.Time{}, nil
	}

	start, err := time.Parse(dateLayout, c.TermStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid termStart: %w", err)
	}
	end, err := time.Parse(dateLayout, c.TermEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid termEnd: %w", err)
	}

	return start, end.Add(24*time.Hour - time.Nanosecond), nil
}

// findConfigFile searches for the env-specific config file, then the plain
// one, in the current directory and then the home directory
func findConfigFile(env string) (string, error) {
	names := []string{configFileName}
	if env != "" {
		names = []string{"apportion_config." + env + ".yaml", configFileName}
	}

	dirs := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, homeDir)
	}

	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("config file not found in current directory or home directory: %w", os.ErrNotExist)
}
