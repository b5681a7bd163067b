package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_DefaultsAndDurations(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")
	path := writeConfig(t, `{
		"server": {"port": 9000},
		"gateway": {"base_url": "https://api.example.com", "timeout": "5s"},
		"sessions": {"idle_ttl": "10m"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address())
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout.Duration)
	assert.Equal(t, "COP", cfg.Gateway.DefaultCurrency)
	assert.Equal(t, 10*time.Minute, cfg.Sessions.IdleTTL.Duration)
	assert.Equal(t, time.Minute, cfg.Sessions.SweepInterval.Duration)
	assert.Equal(t, uint32(5), cfg.Gateway.Breaker.ConsecutiveFailures)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadConfig_MissingBaseURL(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")
	path := writeConfig(t, `{"gateway": {"base_url": ""}}`)

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, domainErrors.ErrMissingBaseURL)
}

func TestLoadConfig_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `{"gateway": {"base_url": "x", "retries": 3}}`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnv_Overrides(t *testing.T) {
	env := map[string]string{
		EnvAPIBaseURL:      " https://env.example.com ",
		EnvRedisAddr:       "redis:6380",
		EnvDatabaseDSN:     "postgres://u:p@db/checkout",
		EnvDefaultCurrency: "usd",
	}
	cfg := Default()

	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://env.example.com", cfg.Gateway.BaseURL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6380", cfg.Redis.Address())
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://u:p@db/checkout", cfg.Database.GetDSN())
	assert.Equal(t, "USD", cfg.Gateway.DefaultCurrency)
}

func TestDuration_RejectsGarbage(t *testing.T) {
	var d Duration
	assert.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
	require.NoError(t, d.UnmarshalJSON([]byte(`1000000000`)))
	assert.Equal(t, time.Second, d.Duration)
}
