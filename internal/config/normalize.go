package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeModel(); err != nil {
		return err
	}
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("SIFT_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Paths.RootDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.RootDir) == "" {
		c.Paths.RootDir = defaultRootDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.RootDir, err = expandPath(strings.TrimSpace(c.Paths.RootDir)); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeModel() error {
	if value, ok := os.LookupEnv("SIFT_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.Model.Path = strings.TrimSpace(value)
	}
	c.Model.Backend = strings.ToLower(strings.TrimSpace(c.Model.Backend))
	if c.Model.Backend == "" {
		c.Model.Backend = defaultModelBackend
	}
	if strings.TrimSpace(c.Model.Path) == "" {
		c.Model.Path = defaultModelPath
	}
	var err error
	if c.Model.Path, err = expandPath(strings.TrimSpace(c.Model.Path)); err != nil {
		return fmt.Errorf("model.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeWatch() {
	if c.Watch.IgnorePatterns == nil {
		c.Watch.IgnorePatterns = DefaultIgnorePatterns()
	}
	patterns := c.Watch.IgnorePatterns[:0]
	for _, pattern := range c.Watch.IgnorePatterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Watch.IgnorePatterns = patterns
	if c.Watch.StabilityAttempts <= 0 {
		c.Watch.StabilityAttempts = 1
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
