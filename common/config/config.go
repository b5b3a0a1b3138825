package config

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelpbot/engine/common/env"
)

var (
	// ChannelToken authenticates this process's pub/sub traffic against the
	// upstream relay; an empty token means the pub/sub bridge refuses to start.
	ChannelToken = strings.TrimSpace(env.String("CHANNEL_TOKEN", ""))

	// UpstreamChannel is the pub/sub channel carrying inbound chat/invocation
	// events from the platform relays.
	UpstreamChannel = env.String("UPSTREAM_CHANNEL", "aussiebot:upstream")
	// DownstreamChannel is the pub/sub channel this process publishes
	// outbound responses to.
	DownstreamChannel = env.String("DOWNSTREAM_CHANNEL", "aussiebot:downstream")

	// CacheURL is the Redis connection string backing the cache and lock
	// actors. Empty disables Redis and falls back to the in-memory test double.
	CacheURL = strings.TrimSpace(env.String("CACHE_URL", ""))
	// CacheMasterName enables Redis sentinel discovery when set; CacheURL is
	// then treated as a comma-separated sentinel address list.
	CacheMasterName = strings.TrimSpace(env.String("CACHE_MASTER_NAME", ""))
	// CachePassword authenticates against the Redis backend when required.
	CachePassword = env.String("CACHE_PASSWORD", "")

	// DatabaseDSN selects the relational backend for the database actor.
	// A postgres:// prefix selects PostgreSQL, a non-empty non-postgres value
	// selects MySQL, and an empty value falls back to SQLite at SQLitePath.
	DatabaseDSN = strings.TrimSpace(env.String("DATABASE_DSN", ""))
	// SQLitePath is the SQLite database file path used when DatabaseDSN is empty.
	SQLitePath = env.String("SQLITE_PATH", "engine.db")
	// SQLiteBusyTimeout configures SQLite's busy timeout in milliseconds.
	SQLiteBusyTimeout = env.Int("SQLITE_BUSY_TIMEOUT", 3000)

	// SQLMaxIdleConns controls the database pool's idle connection count.
	SQLMaxIdleConns = env.Int("SQL_MAX_IDLE_CONNS", 20)
	// SQLMaxOpenConns controls the database pool's maximum open connections.
	SQLMaxOpenConns = env.Int("SQL_MAX_OPEN_CONNS", 100)
	// SQLMaxLifetimeSeconds sets how long database connections live before
	// being recycled.
	SQLMaxLifetimeSeconds = env.Int("SQL_MAX_LIFETIME", 300)

	// SessionBindAddr is the listen address for the operator session gateway
	// (the websocket upgrade endpoint).
	SessionBindAddr = env.String("SESSION_BIND_ADDR", ":8765")
	// SessionOriginAllowlist lists comma-separated origins permitted during
	// the websocket handshake; when empty, every handshake is rejected,
	// since the gateway admits only listed origins.
	SessionOriginAllowlist = strings.TrimSpace(env.String("SESSION_ORIGIN_ALLOWLIST", ""))

	// ConfigDir holds the rule registry's three JSON files (filters,
	// background, commands) plus the operator users file.
	ConfigDir = env.String("CONFIG_DIR", "./config")

	// MetricsBindAddr is the listen address for the Prometheus /metrics endpoint.
	MetricsBindAddr = env.String("METRICS_BIND_ADDR", ":9090")

	// AuthRateLimitMax bounds the number of auth handshake messages a single
	// peer IP may send before the gateway answers Ratelimited.
	AuthRateLimitMax = env.Int("AUTH_RATE_LIMIT_MAX", 5)
	// AuthRateLimitWindowSeconds is the expiry (seconds) of a peer IP's auth
	// message counter; every handshake message resets it.
	AuthRateLimitWindowSeconds = env.Int("AUTH_RATE_LIMIT_WINDOW_SECONDS", 300)
	// AuthCodeTTLSeconds is not read by the gateway: each operator's
	// login-code lifetime comes from their entry in the users file.
	AuthCodeTTLSeconds = env.Int("AUTH_CODE_TTL_SECONDS", 120)

	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)

	// OnlyOneLogFile merges all rotated logs into a single file when true.
	OnlyOneLogFile = env.Bool("ONLY_ONE_LOG_FILE", false)

	// LogRetentionDays determines how many days logs are kept before the
	// retention worker purges them (0 disables cleanup).
	LogRetentionDays = func() int {
		v := env.Int("LOG_RETENTION_DAYS", 14)
		if v < 0 {
			return 0
		}
		return v
	}()

	// LogPushAPI defines the webhook endpoint for escalated log alerts.
	LogPushAPI = env.String("LOG_PUSH_API", "")
	// LogPushType labels outbound log alerts so downstream processors can route them.
	LogPushType = env.String("LOG_PUSH_TYPE", "")
	// LogPushToken authenticates outbound log alert requests.
	LogPushToken = env.String("LOG_PUSH_TOKEN", "")

	// ShutdownTimeoutSec bounds how long the supervisor waits for actors and
	// background tasks to drain on shutdown.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 30)
)

// RateLimitKeyExpirationDuration is a 20-minute expiry for rate-limit
// keys. lock.Manager.Guard does not read it; it takes the global and
// per-user TTLs as arguments.
var RateLimitKeyExpirationDuration = 20 * time.Minute

// StreamDedupTTL is a 24-hour expiry for stream-event dedup keys. The
// engine does not read it: it stores the last stream id with no expiry.
var StreamDedupTTL = 24 * time.Hour

var logConsumeEnabled atomic.Bool

func init() {
	logConsumeEnabled.Store(true)
}

// IsLogConsumeEnabled reports whether moderation actions are persisted to
// the database log.
func IsLogConsumeEnabled() bool {
	return logConsumeEnabled.Load()
}

// SetLogConsumeEnabled toggles moderation-action logging in a
// concurrency-safe way.
func SetLogConsumeEnabled(enabled bool) {
	logConsumeEnabled.Store(enabled)
}
