// Package config resolves tracker settings. Later layers win:
// defaults, <base>/.env, <base>/.tracker.yaml, environment, command line.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/penwyp/go-worktime-tracker/internal/core/constants"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load
const (
	EnvBasePath  = "TRACKER_BASE_PATH"
	EnvWatchPath = "TRACKER_WATCH_PATH"
	EnvLogLevel  = "TRACKER_LOG_LEVEL"
	EnvTimezone  = "TRACKER_TIMEZONE"
)

// Config holds resolved settings. Paths are absolute.
type Config struct {
	BaseDir    string
	WatchDir   string
	StateFile  string
	ReportFile string
	LogFile    string
	LockFile   string

	LogLevel string
	Timezone string

	InactivityThreshold time.Duration
	DebounceWindow      time.Duration
	HeartbeatInterval   time.Duration
	EstimatorGap        time.Duration
	GitTimeout          time.Duration
	MinutesPerCommit    int
	TargetMinutes       int
	RecentCommitLimit   int
	ReportCommitLimit   int

	Extensions     []string
	IgnorePatterns []string
	ChecksumSalt   string
}

// Overrides are the values given on the command line. Empty means unset.
type Overrides struct {
	BaseDir  string
	WatchDir string
	LogLevel string
}

// fileConfig mirrors .tracker.yaml; pointers distinguish "absent" from zero
type fileConfig struct {
	WatchDir            string         `yaml:"watchDir"`
	LogLevel            string         `yaml:"logLevel"`
	Timezone            string         `yaml:"timezone"`
	InactivityThreshold *time.Duration `yaml:"inactivityThreshold"`
	DebounceWindow      *time.Duration `yaml:"debounceWindow"`
	HeartbeatInterval   *time.Duration `yaml:"heartbeatInterval"`
	EstimatorGap        *time.Duration `yaml:"estimatorGap"`
	GitTimeout          *time.Duration `yaml:"gitTimeout"`
	MinutesPerCommit    *int           `yaml:"minutesPerCommit"`
	TargetMinutes       *int           `yaml:"targetMinutes"`
	RecentCommitLimit   *int           `yaml:"recentCommitLimit"`
	Extensions          []string       `yaml:"extensions"`
	Ignore              []string       `yaml:"ignore"`
}

// Default returns the built-in settings for a base directory
func Default(baseDir string) *Config {
	cfg := &Config{
		LogLevel:            "info",
		Timezone:            "Local",
		InactivityThreshold: constants.InactivityThreshold,
		DebounceWindow:      constants.DebounceWindow,
		HeartbeatInterval:   constants.HeartbeatInterval,
		EstimatorGap:        constants.EstimatorSessionGap,
		GitTimeout:          constants.GitCommandTimeout,
		MinutesPerCommit:    constants.MinutesPerCommit,
		TargetMinutes:       constants.TargetMinutes,
		RecentCommitLimit:   constants.RecentCommitLimit,
		ReportCommitLimit:   constants.ReportCommitLimit,
		Extensions:          append([]string(nil), constants.DefaultExtensions...),
		IgnorePatterns:      append([]string(nil), constants.DefaultIgnorePatterns...),
		ChecksumSalt:        constants.ChecksumSalt,
	}
	cfg.setBase(baseDir)
	cfg.WatchDir = filepath.Join(cfg.BaseDir, constants.DefaultWatchDirName)
	return cfg
}

func (c *Config) setBase(baseDir string) {
	c.BaseDir = absPath(baseDir)
	c.StateFile = filepath.Join(c.BaseDir, constants.StateFileName)
	c.ReportFile = filepath.Join(c.BaseDir, constants.ReportFileName)
	c.LogFile = filepath.Join(c.BaseDir, constants.TrackerDirName, constants.LogFileName)
	c.LockFile = filepath.Join(c.BaseDir, constants.TrackerDirName, constants.LockFileName)
}

// Load resolves the configuration. The base directory comes from the
// command line, then TRACKER_BASE_PATH, then the working directory; the
// optional files are read from it.
func Load(ov Overrides) (*Config, error) {
	base := ov.BaseDir
	if base == "" {
		base = os.Getenv(EnvBasePath)
	}
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		base = wd
	}

	cfg := Default(base)

	if err := cfg.applyDotEnv(filepath.Join(cfg.BaseDir, constants.EnvFileName)); err != nil {
		return nil, err
	}
	if err := cfg.applyFile(filepath.Join(cfg.BaseDir, constants.ConfigFileName)); err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)

	if ov.WatchDir != "" {
		cfg.WatchDir = cfg.resolve(ov.WatchDir)
	}
	if ov.LogLevel != "" {
		cfg.LogLevel = ov.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDotEnv reads .env as a layer below the yaml file. A missing file is fine.
func (c *Config) applyDotEnv(path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	c.applyEnv(func(key string) string { return vars[key] })
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.WatchDir != "" {
		c.WatchDir = c.resolve(fc.WatchDir)
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.Timezone != "" {
		c.Timezone = fc.Timezone
	}
	setDuration(&c.InactivityThreshold, fc.InactivityThreshold)
	setDuration(&c.DebounceWindow, fc.DebounceWindow)
	setDuration(&c.HeartbeatInterval, fc.HeartbeatInterval)
	setDuration(&c.EstimatorGap, fc.EstimatorGap)
	setDuration(&c.GitTimeout, fc.GitTimeout)
	setInt(&c.MinutesPerCommit, fc.MinutesPerCommit)
	setInt(&c.TargetMinutes, fc.TargetMinutes)
	setInt(&c.RecentCommitLimit, fc.RecentCommitLimit)
	if fc.Extensions != nil {
		c.Extensions = fc.Extensions
	}
	if fc.Ignore != nil {
		// the state file is never a source of activity
		c.IgnorePatterns = appendMissing(fc.Ignore, constants.StateFileName)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvWatchPath)); v != "" {
		c.WatchDir = c.resolve(v)
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvTimezone)); v != "" {
		c.Timezone = v
	}
}

// Validate rejects settings the tracker cannot run with
func (c *Config) Validate() error {
	durations := map[string]time.Duration{
		"inactivityThreshold": c.InactivityThreshold,
		"debounceWindow":      c.DebounceWindow,
		"heartbeatInterval":   c.HeartbeatInterval,
		"estimatorGap":        c.EstimatorGap,
		"gitTimeout":          c.GitTimeout,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	ints := map[string]int{
		"minutesPerCommit":  c.MinutesPerCommit,
		"targetMinutes":     c.TargetMinutes,
		"recentCommitLimit": c.RecentCommitLimit,
		"reportCommitLimit": c.ReportCommitLimit,
	}
	for name, n := range ints {
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, n)
		}
	}

	if c.BaseDir == "" || c.WatchDir == "" {
		return fmt.Errorf("base and watch directories are required")
	}
	return nil
}

// resolve makes p absolute, relative to the base directory
func (c *Config) resolve(p string) string {
	if strings.HasPrefix(p, "~/") {
		return absPath(p)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.BaseDir, p)
	}
	return filepath.Clean(p)
}

func absPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, _ := os.UserHomeDir()
		p = filepath.Join(home, p[2:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func appendMissing(list []string, item string) []string {
	for _, v := range list {
		if v == item {
			return list
		}
	}
	return append(list, item)
}
