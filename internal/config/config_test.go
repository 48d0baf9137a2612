// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "network: testnet\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, DefaultTimeoutMs, cfg.TimeoutMs)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultFailureThreshold, cfg.FailureThreshold)
	assert.Equal(t, DefaultCircuitCooldownMs, cfg.CircuitCooldownMs)
	assert.Equal(t, DefaultCacheTTLMs, cfg.CacheTTLMs)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
network: mainnet
nodes:
  - https://api.hive.blog
  - https://api.deathwing.me
timeout_ms: 5000
max_retries: 2
rate_limit_rps: 20
metrics_addr: ":9090"
debug_logging: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://api.hive.blog", "https://api.deathwing.me"}, cfg.Nodes)
	assert.Equal(t, 5000, cfg.TimeoutMs)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 20, cfg.RateLimitRPS)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.True(t, cfg.DebugLogging)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad network":  "network: hivenet\n",
		"bad node url": "nodes:\n  - ftp://example.com\n",
		"bad timeout":  "timeout_ms: 0\n",
		"bad retries":  "max_retries: -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("HIVEPUB_NETWORK", "testnet")
	t.Setenv("HIVEPUB_NODES", " https://a.example , https://b.example ")

	cfg, err := Load(writeConfig(t, "network: mainnet\nnodes:\n  - https://api.hive.blog\n"))
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Nodes)
}
