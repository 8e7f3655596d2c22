package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvMessagingAppSecret = "MESSAGING_APP_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvToolTimeout         = "TOOL_TIMEOUT"
	EnvHoldDurationMin     = "HOLD_DURATION_MIN"
	EnvSlotIntervalMin     = "SLOT_INTERVAL_MIN"
	EnvDefaultSlotDuration = "DEFAULT_SLOT_DURATION_MIN"
	EnvDefaultStartOfDay   = "DEFAULT_START_OF_DAY"
	EnvDefaultEndOfDay     = "DEFAULT_END_OF_DAY"
	EnvDefaultLocale       = "DEFAULT_LOCALE"
)
