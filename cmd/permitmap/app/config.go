package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/errors"
)

// Config holds the application configuration loaded from flags, the
// environment, .env files and the config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	ConfigFile string

	// Client configuration
	RegistryFile string
	Timeout      time.Duration
	CacheTTL     time.Duration
	UserAgent    string
	RetryWait    time.Duration

	// Tokens maps app-token environment variable names to values set in
	// the config file. Real environment variables take precedence.
	Tokens map[string]string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables (PERMITMAP_*)
//  3. .env files
//  4. Config file (~/.permitmap.yaml or ./.permitmap.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom is LoadConfig with an explicit config file. An explicit
// file must exist and parse.
func LoadConfigFrom(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("timeout", constants.DefaultConnectorTimeout)
	v.SetDefault("cache_ttl", constants.CacheTTL)
	v.SetDefault("retry_wait", constants.RetryBackoff)

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("app", "read config "+path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigFile)
		// A missing config file is fine.
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		RegistryFile: v.GetString("registry"),
		Timeout:      v.GetDuration("timeout"),
		CacheTTL:     v.GetDuration("cache_ttl"),
		UserAgent:    v.GetString("user_agent"),
		RetryWait:    v.GetDuration("retry_wait"),
		Tokens:       v.GetStringMapString("tokens"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// Secret resolves an app-token variable name.
func (c *Config) Secret(name string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	// viper lowercases map keys.
	return c.Tokens[strings.ToLower(name)]
}

// UpdateFromFlags applies parsed flag values so flags take precedence over
// the config file and the environment.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose || c.Verbose
	c.Quiet = quiet || c.Quiet
	c.NoColor = noColor || c.NoColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files. godotenv never
// overrides variables that are already set, so .env wins over .env.local.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
