package config

import "time"

const (
	envPort         = "PORT"
	envCORSOrigins  = "CORS_ALLOWED_ORIGINS"
	envStoreDriver  = "STORE_DRIVER"
	envSQLiteDSN    = "SQLITE_DSN"
	envBackendURL   = "BACKEND_BASE_URL"
	envBackendToken = "BACKEND_TOKEN"
	envUploadEvery  = "UPLOAD_INTERVAL"
	envUploadBudget = "UPLOAD_MAX_ELAPSED"
	envMetricsPort  = "METRICS_PORT"
	envMetricsOn    = "METRICS_ENABLED"
	envOtelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService  = "OTEL_SERVICE_NAME"
	envOtelInsecure = "OTEL_EXPORTER_OTLP_INSECURE"
	envLogLevel     = "LOG_LEVEL"
	envLogFormat    = "LOG_FORMAT"

	defaultPort        = "4000"
	defaultCORSOrigin  = "*"
	defaultStoreDriver = DriverMemory
	defaultSQLiteDSN   = "data/matches.db"
	// Completed results are swept on this cadence even when no completion wakes the uploader.
	defaultUploadInterval   = 30 * Duration(time.Second)
	defaultUploadMaxElapsed = 2 * Duration(time.Minute)
	defaultMetricsPort      = "9090"
	defaultServiceName      = "racket-score-service"
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
)
