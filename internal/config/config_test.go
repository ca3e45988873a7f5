package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exo-addons/leadcapture"
	"github.com/exo-addons/leadcapture/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.ServerURL)
	assert.Equal(t, config.BackendMemory, cfg.Queue.Backend)
	assert.Equal(t, 10, cfg.Transport.MaxConnsPerRoute)
	assert.Equal(t, 5*time.Second, cfg.Transport.ConnectTimeout)
	assert.Equal(t, 4, cfg.Dispatch.Workers)
	assert.Equal(t, 1000, cfg.Dispatch.QueueSize)
	assert.Equal(t, "users.created", cfg.NATS.Subject)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server_url: https://community.example.com
token: file-token
capture:
  method: signup
  type: community
  person_source: website
  source_info: community.example.com
transport:
  read_timeout: 3s
  max_conns_per_route: 4
queue:
  backend: redis
redis:
  addr: redis:6379
  key: leads
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://community.example.com", cfg.ServerURL)
	assert.Equal(t, "signup", cfg.Capture.Method)
	assert.Equal(t, "website", cfg.Capture.PersonSource)
	assert.Equal(t, 3*time.Second, cfg.Transport.ReadTimeout)
	assert.Equal(t, 4, cfg.Transport.MaxConnsPerRoute)
	assert.Equal(t, 30*time.Second, cfg.Transport.RequestTimeout, "unset keys keep their defaults")
	assert.Equal(t, config.BackendRedis, cfg.Queue.Backend)
	assert.Equal(t, "leads", cfg.Redis.Key)

	relay := cfg.Relay()
	assert.Equal(t, "https://community.example.com"+leadcapture.APIPath, relay.Endpoint())
	assert.NoError(t, relay.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "token: file-token\ncapture:\n  method: signup\n")

	t.Setenv("LEADCAPTURE_TOKEN", "env-token")
	t.Setenv("LEADCAPTURE_CAPTURE_TYPE", "trial")
	t.Setenv("LEADCAPTURE_TRANSPORT_CONNECT_TIMEOUT", "2s")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, "signup", cfg.Capture.Method)
	assert.Equal(t, "trial", cfg.Capture.Type)
	assert.Equal(t, 2*time.Second, cfg.Transport.ConnectTimeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"queue backend":  "queue:\n  backend: kafka\n",
		"logging format": "logging:\n  format: xml\n",
		"workers":        "dispatch:\n  workers: 0\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
