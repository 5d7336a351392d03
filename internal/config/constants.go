package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 90 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Ping timeout for startup checks
const PingTimeout = 5 * time.Second

// Session record key namespace in Redis
const SessionKeyPrefix = "chatbot:session:"

// Sliding window for inbound rate limiting
const InboundRateLimitWindow = time.Minute

// Metrics namespace
const MetricsNamespace = "trackerbot"

// Requests per minute per client IP on the operator endpoints
const OpsRateLimitPerMin = 60
