package config

const (
	defaultBackend                = BackendAWS
	defaultStagingName            = "staging"
	defaultProductionName         = "prod"
	defaultMaxBatchSize           = 5
	defaultGracePeriodMinutes     = 60
	defaultRescheduleDelayMinutes = 60
	defaultMinDurationSeconds     = 1
	defaultMaxDurationSeconds     = 600
	defaultMinFileSizeBytes       = 10_000
	defaultMaxFileSizeBytes       = 50 * 1024 * 1024
	defaultKeyPrefix              = "audio/"
	defaultNotifyRequestTimeout   = 10
	defaultLocalDataDir           = "~/.local/share/lathe"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: defaultBackend,
		Staging: Environment{
			Name: defaultStagingName,
		},
		Production: Environment{
			Name: defaultProductionName,
		},
		Promotion: Promotion{
			MaxBatchSize:           defaultMaxBatchSize,
			GracePeriodMinutes:     defaultGracePeriodMinutes,
			RescheduleDelayMinutes: defaultRescheduleDelayMinutes,
			MinDurationSeconds:     defaultMinDurationSeconds,
			MaxDurationSeconds:     defaultMaxDurationSeconds,
			MinFileSizeBytes:       defaultMinFileSizeBytes,
			MaxFileSizeBytes:       defaultMaxFileSizeBytes,
			KeyPrefix:              defaultKeyPrefix,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Local: Local{
			DataDir: defaultLocalDataDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
