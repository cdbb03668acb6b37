package config

const (
	defaultDataDir            = "~/.local/share/callcheck"
	defaultLogDir             = "~/.local/share/callcheck/logs"
	defaultAPIBind            = "127.0.0.1:7519"
	defaultProvider           = "whisper"
	defaultModel              = "whisper-1"
	defaultLanguage           = "en-US"
	defaultTranscribeTimeout  = 600
	defaultPresignTTLMinutes  = 15
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 10
	defaultLeaseSeconds       = 120
	defaultHeartbeatInterval  = 15
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Transcriber: Transcriber{
			Provider:       defaultProvider,
			Model:          defaultModel,
			Language:       defaultLanguage,
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		Presign: Presign{
			TTLMinutes: defaultPresignTTLMinutes,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			LeaseSeconds:       defaultLeaseSeconds,
			HeartbeatInterval:  defaultHeartbeatInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
