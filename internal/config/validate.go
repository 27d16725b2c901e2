package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateEnvironments(); err != nil {
		return err
	}
	if err := c.validatePromotion(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	switch c.Backend {
	case BackendAWS, BackendLocal:
		return nil
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendAWS, BackendLocal, c.Backend)
	}
}

func (c *Config) validateEnvironments() error {
	if c.Staging.Name == c.Production.Name {
		return errors.New("staging.name and production.name must differ")
	}
	if c.Backend == BackendAWS {
		if c.Staging.Bucket == "" || c.Staging.MetadataTable == "" {
			return errors.New("staging.bucket and staging.metadata_table are required for the aws backend")
		}
		if c.Production.Bucket == "" || c.Production.MetadataTable == "" {
			return errors.New("production.bucket and production.metadata_table are required for the aws backend")
		}
		if c.Staging.Bucket == c.Production.Bucket {
			return errors.New("staging.bucket and production.bucket must differ")
		}
	}
	if c.Backend == BackendLocal && c.Local.DataDir == "" {
		return errors.New("local.data_dir must be set for the local backend")
	}
	return nil
}

func (c *Config) validatePromotion() error {
	p := c.Promotion
	if p.MaxBatchSize <= 0 {
		return errors.New("promotion.max_batch_size must be positive")
	}
	if p.GracePeriodMinutes < 0 {
		return errors.New("promotion.grace_period_minutes must not be negative")
	}
	if p.RescheduleDelayMinutes <= 0 {
		return errors.New("promotion.reschedule_delay_minutes must be positive")
	}
	if p.MinDurationSeconds <= 0 || p.MaxDurationSeconds <= p.MinDurationSeconds {
		return errors.New("promotion duration bounds must satisfy 0 < min < max")
	}
	if p.MinFileSizeBytes <= 0 || p.MaxFileSizeBytes <= p.MinFileSizeBytes {
		return errors.New("promotion file size bounds must satisfy 0 < min < max")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must not be negative")
	}
	return nil
}
