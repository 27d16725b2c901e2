package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Backend selects which storage implementations the CLI wires up.
const (
	BackendAWS   = "aws"
	BackendLocal = "local"
)

// Environment describes one side of the promotion pipeline: an object
// store bucket plus the metadata table holding artifact records.
type Environment struct {
	Name          string `toml:"name"`
	Bucket        string `toml:"bucket"`
	MetadataTable string `toml:"metadata_table"`
}

// Promotion contains eligibility thresholds and batch pacing settings.
type Promotion struct {
	MaxBatchSize           int     `toml:"max_batch_size"`
	GracePeriodMinutes     int     `toml:"grace_period_minutes"`
	RescheduleDelayMinutes int     `toml:"reschedule_delay_minutes"`
	MinDurationSeconds     float64 `toml:"min_duration_seconds"`
	MaxDurationSeconds     float64 `toml:"max_duration_seconds"`
	MinFileSizeBytes       int64   `toml:"min_file_size_bytes"`
	MaxFileSizeBytes       int64   `toml:"max_file_size_bytes"`
	KeyPrefix              string  `toml:"key_prefix"`
}

// AWS contains client construction settings for the aws backend.
type AWS struct {
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
}

// Notifications contains outbound alerting configuration. When both sinks
// are empty, notifications become a no-op.
type Notifications struct {
	SNSTopicARN    string `toml:"sns_topic_arn"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Pipeline contains the external collaborator and scheduling wiring.
type Pipeline struct {
	TesterFunction    string `toml:"tester_function"`
	ProcessorFunction string `toml:"processor_function"`
	ScheduleGroup     string `toml:"schedule_group"`
	ScheduleRoleARN   string `toml:"schedule_role_arn"`
	ScheduleTargetARN string `toml:"schedule_target_arn"`
}

// Local contains settings for the sqlite/filesystem backend.
type Local struct {
	DataDir string `toml:"data_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lathe.
//
// Configuration sections by subsystem:
//   - Staging / Production: the two environments artifacts move between
//   - Promotion: eligibility thresholds, batch sizing, and pacing
//   - AWS: region and optional endpoint override for the aws backend
//   - Notifications: SNS topic or ntfy endpoint for outbound alerts
//   - Pipeline: test-validation collaborator and follow-up scheduling
//   - Local: data directory for the sqlite/filesystem backend
//   - Logging: log format and level
type Config struct {
	Backend       string        `toml:"backend"`
	Staging       Environment   `toml:"staging"`
	Production    Environment   `toml:"production"`
	Promotion     Promotion     `toml:"promotion"`
	AWS           AWS           `toml:"aws"`
	Notifications Notifications `toml:"notifications"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Local         Local         `toml:"local"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lathe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lathe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// GracePeriod returns the minimum artifact age before promotion.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Promotion.GracePeriodMinutes) * time.Minute
}

// RescheduleDelay returns the follow-up batch delay.
func (c *Config) RescheduleDelay() time.Duration {
	return time.Duration(c.Promotion.RescheduleDelayMinutes) * time.Minute
}

// IsLocal reports whether the sqlite/filesystem backend is selected.
func (c *Config) IsLocal() bool {
	return c.Backend == BackendLocal
}

// EnsureDirectories creates the local data directory when the local
// backend is selected.
func (c *Config) EnsureDirectories() error {
	if !c.IsLocal() {
		return nil
	}
	if err := os.MkdirAll(c.Local.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory %q: %w", c.Local.DataDir, err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
