package config

import "strings"

func (c *Config) normalize() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = defaultBackend
	}

	c.Staging.Name = strings.TrimSpace(c.Staging.Name)
	if c.Staging.Name == "" {
		c.Staging.Name = defaultStagingName
	}
	c.Production.Name = strings.TrimSpace(c.Production.Name)
	if c.Production.Name == "" {
		c.Production.Name = defaultProductionName
	}
	c.Staging.Bucket = strings.TrimSpace(c.Staging.Bucket)
	c.Staging.MetadataTable = strings.TrimSpace(c.Staging.MetadataTable)
	c.Production.Bucket = strings.TrimSpace(c.Production.Bucket)
	c.Production.MetadataTable = strings.TrimSpace(c.Production.MetadataTable)

	c.Promotion.KeyPrefix = strings.TrimSpace(c.Promotion.KeyPrefix)
	if c.Promotion.KeyPrefix == "" {
		c.Promotion.KeyPrefix = defaultKeyPrefix
	}
	if !strings.HasSuffix(c.Promotion.KeyPrefix, "/") {
		c.Promotion.KeyPrefix += "/"
	}

	c.AWS.Region = strings.TrimSpace(c.AWS.Region)
	c.AWS.Endpoint = strings.TrimSpace(c.AWS.Endpoint)
	c.Notifications.SNSTopicARN = strings.TrimSpace(c.Notifications.SNSTopicARN)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Pipeline.TesterFunction = strings.TrimSpace(c.Pipeline.TesterFunction)
	c.Pipeline.ScheduleGroup = strings.TrimSpace(c.Pipeline.ScheduleGroup)
	c.Pipeline.ScheduleRoleARN = strings.TrimSpace(c.Pipeline.ScheduleRoleARN)
	c.Pipeline.ScheduleTargetARN = strings.TrimSpace(c.Pipeline.ScheduleTargetARN)

	if c.IsLocal() {
		expanded, err := expandPath(c.Local.DataDir)
		if err != nil {
			return err
		}
		c.Local.DataDir = expanded
	}

	return nil
}
