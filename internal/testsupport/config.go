package testsupport

import (
	"path/filepath"
	"testing"

	"createmovie/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// History lives under the temp state dir and publishing is disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Publish.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithoutHistory disables the run archive.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithRedis enables publishing to the given address, typically a miniredis
// instance.
func WithRedis(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.Enabled = true
		b.cfg.Publish.RedisAddr = addr
	}
}

// WithKnowledgeBase points the allocation defaults at a knowledge file.
func WithKnowledgeBase(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Allocation.KnowledgeBase = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
