package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validatePolicy(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.RootDir == "" {
		return errors.New("paths.root_dir must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.StateDir == c.Paths.RootDir {
		return errors.New("paths.state_dir must differ from paths.root_dir")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.StabilityDelayMS < 0 {
		return errors.New("watch.stability_delay_ms must not be negative")
	}
	if c.Watch.MinFileSize < 0 {
		return errors.New("watch.min_file_size must not be negative")
	}
	if c.Watch.MaxWorkers < 0 {
		return errors.New("watch.max_workers must not be negative")
	}
	return nil
}

func (c *Config) validatePolicy() error {
	if c.Policy.AmbiguityGap < 0 || c.Policy.AmbiguityGap > 1 {
		return errors.New("policy.ambiguity_gap must be between 0 and 1")
	}
	if c.Policy.EducationFloor < 0 || c.Policy.EducationFloor > 1 {
		return errors.New("policy.education_floor must be between 0 and 1")
	}
	if c.Policy.SmallDocumentBytes <= 0 {
		return errors.New("policy.small_document_bytes must be positive")
	}
	if c.Policy.TinyDocumentBytes <= 0 || c.Policy.TinyDocumentBytes > c.Policy.SmallDocumentBytes {
		return fmt.Errorf("policy.tiny_document_bytes must be positive and at most policy.small_document_bytes (%d)", c.Policy.SmallDocumentBytes)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
