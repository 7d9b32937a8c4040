package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	if err := c.normalizeAllocation(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizePublish()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
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

func (c *Config) normalizeAllocation() error {
	c.Allocation.DefaultProjectType = strings.ToLower(strings.TrimSpace(c.Allocation.DefaultProjectType))
	if c.Allocation.DefaultProjectType == "" {
		c.Allocation.DefaultProjectType = defaultProjectType
	}
	kb := strings.TrimSpace(c.Allocation.KnowledgeBase)
	if kb == "" {
		if value, ok := os.LookupEnv(knowledgeBaseEnv); ok {
			kb = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Allocation.KnowledgeBase, err = expandPath(kb); err != nil {
		return fmt.Errorf("allocation.knowledge_base: %w", err)
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.StateDir, defaultHistoryFile)
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.RedisAddr = strings.TrimSpace(c.Publish.RedisAddr)
	if c.Publish.RedisAddr == "" {
		c.Publish.RedisAddr = defaultRedisAddr
	}
	if c.Publish.RedisPassword == "" {
		if value, ok := os.LookupEnv(redisPasswordEnv); ok {
			c.Publish.RedisPassword = value
		}
	}
	c.Publish.Namespace = strings.Trim(strings.TrimSpace(c.Publish.Namespace), ":")
	if c.Publish.Namespace == "" {
		c.Publish.Namespace = defaultPublishNamespace
	}
}
