package config

const (
	defaultConfigPath       = "~/.config/createmovie/config.toml"
	defaultStateDir         = "~/.local/share/createmovie"
	defaultLogDir           = "~/.local/share/createmovie/logs"
	defaultHistoryFile      = "history.db"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultProjectType      = "default"
	defaultRedisAddr        = "127.0.0.1:6379"
	defaultPublishNamespace = "createmovie"
	redisPasswordEnv        = "CREATEMOVIE_REDIS_PASSWORD"
	knowledgeBaseEnv        = "CREATEMOVIE_KNOWLEDGE_BASE"
	defaultAllowGeneration  = true
	defaultHistoryEnabled   = true
	defaultPublishEnabled   = false
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Allocation: Allocation{
			AllowGeneration:    defaultAllowGeneration,
			DefaultProjectType: defaultProjectType,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Publish: Publish{
			Enabled:   defaultPublishEnabled,
			RedisAddr: defaultRedisAddr,
			Namespace: defaultPublishNamespace,
		},
	}
}
