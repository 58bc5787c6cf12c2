package config

// Config holds runtime configuration for the server.
type Config struct {
	Port           string
	AllowedOrigins []string
	Store          StoreConfig
	Backend        BackendConfig
	Metrics        MetricsConfig
	Log            LogConfig
}

// LogConfig selects the slog level and handler format.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Port:           envOrDefault(envPort, defaultPort),
		AllowedOrigins: listEnvOrDefault(envCORSOrigins, []string{defaultCORSOrigin}),
		Store:          loadStore(),
		Backend:        loadBackend(),
		Metrics:        loadMetrics(),
		Log: LogConfig{
			Level:  envOrDefault(envLogLevel, defaultLogLevel),
			Format: envOrDefault(envLogFormat, defaultLogFormat),
		},
	}
}
