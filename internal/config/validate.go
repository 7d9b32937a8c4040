package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownProjectTypes = []string{
	"default",
	"tourism",
	"education",
	"marketing",
	"competition",
	"research",
	"research_aware",
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateAllocation(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateAllocation() error {
	for _, known := range knownProjectTypes {
		if c.Allocation.DefaultProjectType == known {
			return nil
		}
	}
	return fmt.Errorf("allocation.default_project_type %q is not one of %s",
		c.Allocation.DefaultProjectType, strings.Join(knownProjectTypes, ", "))
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	if c.Publish.RedisAddr == "" {
		return errors.New("publish.redis_addr must be set when publish.enabled is true")
	}
	if c.Publish.RedisDB < 0 {
		return errors.New("publish.redis_db must be non-negative")
	}
	return nil
}
