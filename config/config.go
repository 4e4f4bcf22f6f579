package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	Replica ReplicaConfig
	Remote  RemoteConfig
	Sync    SyncConfig
}

type ServerConfig struct {
	AppEnv string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type ReplicaConfig struct {
	SQLitePath string
}

type RemoteConfig struct {
	BaseURL        string
	APIToken       string
	TimeoutSeconds int
}

type SyncConfig struct {
	ProbeIntervalSeconds int
	ProbeTimeoutSeconds  int
	StalenessHours       int
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv: getEnv("APP_ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Replica: ReplicaConfig{
			SQLitePath: getEnv("REPLICA_SQLITE_PATH", "inventory-agent.db"),
		},
		Remote: RemoteConfig{
			BaseURL:        getEnv("REMOTE_BASE_URL", "http://localhost:8080"),
			APIToken:       getEnv("REMOTE_API_TOKEN", ""),
			TimeoutSeconds: getEnvInt("REMOTE_TIMEOUT_SECONDS", 15),
		},
		Sync: SyncConfig{
			ProbeIntervalSeconds: getEnvInt("SYNC_PROBE_INTERVAL_SECONDS", 10),
			ProbeTimeoutSeconds:  getEnvInt("SYNC_PROBE_TIMEOUT_SECONDS", 3),
			StalenessHours:       getEnvInt("SYNC_STALENESS_HOURS", 24),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
