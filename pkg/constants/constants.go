// Package constants provides shared constants used throughout permitmap.
// This includes timeouts, limits, file permissions, and the sentinel values
// substituted into normalized permit records.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the transport-level ceiling for a single HTTP request
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultConnectorTimeout is the per-connector deadline when the registry entry sets none
	DefaultConnectorTimeout = 10 * time.Second

	// MaxConnectorTimeout caps registry-supplied connector timeouts
	MaxConnectorTimeout = 2 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 2 * time.Minute

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 250 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 5 * time.Second

	// ShutdownTimeout bounds graceful HTTP server shutdown
	ShutdownTimeout = 10 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxRetries caps the per-connector retry count a registry entry may request
	MaxRetries = 5

	// DefaultRecordLimit is the default page size requested from each endpoint
	DefaultRecordLimit = 200

	// MaxRecordLimit is the largest page size a registry entry may request
	MaxRecordLimit = 5000

	// MaxQueryLength bounds the free-text query accepted from callers
	MaxQueryLength = 256

	// MaxResponseBytes bounds how much of an upstream body is read
	MaxResponseBytes = 32 << 20
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for cached aggregate results
	CacheTTL = 2 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 5 * time.Minute
)

// Record sentinels substituted during normalization
const (
	// UnknownAddress replaces an address the source omits
	UnknownAddress = "Unknown Address"

	// UnknownStatus replaces a status the source omits
	UnknownStatus = "Unknown"
)

// Application identity
const (
	// AppName is used for config files, env prefixes and the user agent
	AppName = "permitmap"

	// EnvPrefix namespaces configuration environment variables
	EnvPrefix = "PERMITMAP"

	// DefaultConfigFile is the config file name looked up in $HOME and the working directory
	DefaultConfigFile = ".permitmap"
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339

	// DateFormat is the date-only layout used by most open-data portals
	DateFormat = "2006-01-02"
)
