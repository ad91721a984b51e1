package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sift/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t         testing.TB
	baseDir   string
	cfg       *config.Config
	skipModel bool
}

// NewConfig produces a config seeded with unique temp directories per test.
// The organization root exists, the stability wait is disabled and a stub
// random-forest model is written to the model path unless WithoutModel is
// given.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RootDir = filepath.Join(base, "downloads")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Model.Path = filepath.Join(base, "model.json")
	cfgVal.Watch.StabilityDelayMS = 0
	cfgVal.Watch.StabilityAttempts = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.RootDir, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	if !builder.skipModel {
		WriteModel(t, builder.cfg.Model.Path)
	}
	return builder.cfg
}

// WithoutModel leaves the model path empty on disk.
func WithoutModel() ConfigOption {
	return func(b *configBuilder) {
		b.skipModel = true
	}
}

// WithStability sets the stability delay and attempt count.
func WithStability(delayMS, attempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.StabilityDelayMS = delayMS
		b.cfg.Watch.StabilityAttempts = attempts
	}
}

// WithMaxWorkers bounds concurrent file processing.
func WithMaxWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.MaxWorkers = n
	}
}

// WithOrganizeExisting toggles the startup batch pass.
func WithOrganizeExisting(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.OrganizeExisting = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WriteConfigFile serializes cfg as TOML next to its temp directories and
// returns the file path.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
