package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/errors"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.NotEmpty(t, config.LogFormat)
	assert.Equal(t, constants.DefaultConnectorTimeout, config.Timeout)
	assert.Equal(t, constants.CacheTTL, config.CacheTTL)
	assert.Equal(t, constants.RetryBackoff, config.RetryWait)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("PERMITMAP_VERBOSE", "true")
	t.Setenv("PERMITMAP_FORMAT", "json")
	t.Setenv("PERMITMAP_TIMEOUT", "3s")
	t.Setenv("PERMITMAP_REGISTRY", "/etc/permitmap/registry.yaml")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, config.Verbose)
	assert.Equal(t, "json", config.Format)
	assert.Equal(t, 3*time.Second, config.Timeout)
	assert.Equal(t, "/etc/permitmap/registry.yaml", config.RegistryFile)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permitmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache_ttl: 30s
user_agent: permitmap-test
tokens:
  SEATTLE_APP_TOKEN: from-file
`), 0o600))

	config, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, 30*time.Second, config.CacheTTL)
	assert.Equal(t, "permitmap-test", config.UserAgent)
	assert.Equal(t, "from-file", config.Secret("SEATTLE_APP_TOKEN"))

	t.Setenv("SEATTLE_APP_TOKEN", "from-env")
	assert.Equal(t, "from-env", config.Secret("SEATTLE_APP_TOKEN"))
	assert.Empty(t, config.Secret("MISSING_TOKEN"))
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Format: "table", LogLevel: ""}
	config.UpdateFromFlags(true, false, true, "yaml", "debug")

	assert.True(t, config.Verbose)
	assert.False(t, config.Quiet)
	assert.True(t, config.NoColor)
	assert.Equal(t, "yaml", config.Format)
	assert.Equal(t, "debug", config.LogLevel)

	config.UpdateFromFlags(false, false, false, "", "")
	assert.Equal(t, "yaml", config.Format, "empty flags keep prior values")
	assert.True(t, config.Verbose)
}

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"default", Config{}, "info"},
		{"verbose", Config{Verbose: true}, "debug"},
		{"quiet", Config{Quiet: true}, "warn"},
		{"quiet wins", Config{Verbose: true, Quiet: true}, "warn"},
		{"explicit", Config{LogLevel: "error", Verbose: true}, "error"},
		{"invalid", Config{LogLevel: "loud"}, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(&tt.config))
		})
	}
}
