package config

const (
	defaultDataDir               = "~/.local/share/synapse"
	defaultLogDir                = "~/.local/share/synapse/logs"
	defaultRemoteBaseURL         = "http://127.0.0.1:8000/api/v1"
	defaultRemoteTimeoutSeconds  = 30
	defaultQuotaBytes            = 5 * 1024 * 1024
	defaultSessionThresholdBytes = 50_000
	defaultLocalContentCapChars  = 100_000
	defaultOverflowMaxEntries    = 256
	defaultMaxBackoffSeconds     = 60
	defaultNtfyRequestTimeout    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Remote: Remote{
			BaseURL:        defaultRemoteBaseURL,
			TimeoutSeconds: defaultRemoteTimeoutSeconds,
		},
		Storage: Storage{
			QuotaBytes:            defaultQuotaBytes,
			SessionThresholdBytes: defaultSessionThresholdBytes,
			LocalContentCapChars:  defaultLocalContentCapChars,
			OverflowMaxEntries:    defaultOverflowMaxEntries,
		},
		Sync: Sync{
			MaxBackoffSeconds: defaultMaxBackoffSeconds,
			StartupDrain:      true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Synced:         true,
			Errors:         true,
			Queue:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
