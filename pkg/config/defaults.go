package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "habla"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Tool handlers race against this deadline unless the definition
	// overrides it.
	DefaultToolTimeout = 30 * time.Second

	DefaultHoldDurationMin     = 15
	DefaultSlotIntervalMin     = 30
	DefaultSlotDurationMin     = 30
	DefaultDefaultStartOfDay   = "09:00"
	DefaultDefaultEndOfDay     = "18:00"
	DefaultDefaultLocale       = "es"
	DefaultPaginationLimit     = 100
	DefaultMaxHoldsPerDayFetch = 500
)
