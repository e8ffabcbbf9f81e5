package config

const (
	defaultDataDir            = "~/.local/share/dubwatch"
	defaultLogDir             = "~/.local/share/dubwatch/logs"
	defaultEngineTimeout      = 30
	defaultJobPollInterval    = 8
	defaultActivePollInterval = 5
	defaultErrorRetryInterval = 10
	defaultNtfyTimeout        = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Engine: Engine{
			RequestTimeout: defaultEngineTimeout,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Watch: Watch{
			JobPollInterval:    defaultJobPollInterval,
			ActivePollInterval: defaultActivePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
