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

// Paths contains directory configuration.
type Paths struct {
	RootDir  string `toml:"root_dir"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Model selects the classifier backend and its serialized parameters.
type Model struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// Watch contains configuration for the ingestion pipeline gates.
type Watch struct {
	OrganizeExisting  bool     `toml:"organize_existing"`
	StabilityDelayMS  int      `toml:"stability_delay_ms"`
	StabilityAttempts int      `toml:"stability_attempts"`
	MinFileSize       int64    `toml:"min_file_size"`
	IgnorePatterns    []string `toml:"ignore_patterns"`
	MaxWorkers        int      `toml:"max_workers"`
}

// Policy contains the thresholds of the Education/Finance keyword override.
type Policy struct {
	// AmbiguityGap is the maximum probability gap between the top two raw
	// categories for the override to be considered. Default: 0.3
	AmbiguityGap float64 `toml:"ambiguity_gap"`
	// SmallDocumentBytes bounds the size of documents eligible for the override.
	SmallDocumentBytes int64 `toml:"small_document_bytes"`
	// TinyDocumentBytes bounds the size of documents eligible for the tie-break.
	TinyDocumentBytes int64 `toml:"tiny_document_bytes"`
	// EducationFloor is the raw Education probability the tie-break requires.
	EducationFloor float64 `toml:"education_floor"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for sift.
//
// Configuration sections by subsystem:
//   - Paths: organization root, state (history, lock) and log directories
//   - Model: classifier backend and model file
//   - Watch: ignore list, size floor, stability gating, worker bound
//   - Policy: Education/Finance override thresholds
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Model   Model   `toml:"model"`
	Watch   Watch   `toml:"watch"`
	Policy  Policy  `toml:"policy"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sift/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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
		decoder.DisallowUnknownFields()
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

	projectPath, err := filepath.Abs("sift.toml")
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

// EnsureDirectories creates the state and log directories. The organization
// root is never created implicitly: watching a directory that does not exist
// is a configuration error surfaced by preflight.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StabilityDelay returns the watch-mode stability wait as a duration.
func (c *Config) StabilityDelay() time.Duration {
	return time.Duration(c.Watch.StabilityDelayMS) * time.Millisecond
}

// HistoryPath returns the location of the outcome history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the location of the single-instance watcher lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "sift.lock")
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

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
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
