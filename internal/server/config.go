package server

import "time"

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Requests per minute per IP (0 to disable)
	RateLimit int

	// HTTP timeouts. WriteTimeout must exceed the slowest connector
	// deadline or aggregate responses are cut off.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Features
	MetricsEnabled   bool
	StreamingEnabled bool

	// Version is reported by /health.
	Version string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		Port:             8080,
		PathPrefix:       "/api/v1",
		CORSOrigins:      []string{},
		AuthHeader:       "X-API-Key",
		RateLimit:        60,
		ReadTimeout:      10 * time.Second,
		WriteTimeout:     3 * time.Minute,
		IdleTimeout:      120 * time.Second,
		MetricsEnabled:   true,
		StreamingEnabled: true,
		Version:          "dev",
	}
}
