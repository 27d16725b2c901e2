package testsupport

import (
	"path/filepath"
	"testing"

	"lathe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a local-backend config seeded with unique temp
// directories per test. It defaults common fields and applies any provided
// options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Backend = config.BackendLocal
	cfg.Staging.Bucket = "staging-media"
	cfg.Staging.MetadataTable = "staging-metadata"
	cfg.Production.Bucket = "prod-media"
	cfg.Production.MetadataTable = "prod-metadata"
	cfg.Local.DataDir = filepath.Join(base, "data")
	cfg.Logging.Level = "error"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithGracePeriod overrides the promotion grace period in minutes.
func WithGracePeriod(minutes int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Promotion.GracePeriodMinutes = minutes
	}
}

// WithMaxBatchSize overrides the batch promotion cap.
func WithMaxBatchSize(size int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Promotion.MaxBatchSize = size
	}
}
