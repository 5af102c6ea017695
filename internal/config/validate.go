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
	if err := c.validateLabels(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.UploadDir == "" {
		return errors.New("paths.upload_dir must be set")
	}
	return nil
}

func (c *Config) validateLabels() error {
	if len(c.Labels.Groups) == 0 {
		return errors.New("labels.groups must include at least one group")
	}
	if len(c.Labels.Purposes) == 0 {
		return errors.New("labels.purposes must include at least one purpose")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.backend must be %q or %q", "json", "sqlite")
	}
	if c.Store.PageSize <= 0 {
		return errors.New("store.page_size must be positive")
	}
	return nil
}

func (c *Config) validateRetention() error {
	if err := ensurePositiveMap(map[string]int{
		"retention.archive_retention_days": c.Retention.ArchiveRetentionDays,
		"retention.artifact_expiry_days":   c.Retention.ArtifactExpiryDays,
		"retention.backup_retention_days":  c.Retention.BackupRetentionDays,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateScheduler() error {
	return ensurePositiveMap(map[string]int{
		"scheduler.cleanup_interval_hours": c.Scheduler.CleanupIntervalHours,
		"scheduler.backup_interval_hours":  c.Scheduler.BackupIntervalHours,
	})
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be %q or %q", "console", "json")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
