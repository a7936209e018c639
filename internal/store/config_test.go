package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"SBISEC_USER_ID", "SBISEC_PASSWORD", "SBISEC_TRADE_PASSWORD", "SBISEC_BACKEND"} {
		t.Setenv(k, "")
	}
}

func TestParseConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := ParseConfig([]byte("user_name: alice\npassword: pw\n"))
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Login())
	assert.Equal(t, "pw", cfg.LoginPassword())
	assert.Equal(t, BackendHTTP, cfg.Backend)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, 300*time.Millisecond, cfg.RequestDelay())
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, DefaultEntryURL, cfg.Endpoints.EntryURL)
	assert.Equal(t, DefaultTradeHost, cfg.Endpoints.TradeHost)
	assert.Equal(t, DefaultTradeURL, cfg.Endpoints.TradeURL)
	assert.Equal(t, DefaultHoldingClass, cfg.Browser.HoldingClass)
	assert.True(t, cfg.Headless())
	assert.Equal(t, "logs", cfg.Journal.Dir)
}

func TestParseConfigSiteFieldNamesWin(t *testing.T) {
	clearEnv(t)
	cfg, err := ParseConfig([]byte(`
user_name: old
user_id: new
password: old-pw
user_password: new-pw
browser:
  headless: false
`))
	require.NoError(t, err)
	assert.Equal(t, "new", cfg.Login())
	assert.Equal(t, "new-pw", cfg.LoginPassword())
	assert.False(t, cfg.Headless())
}

func TestParseConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SBISEC_USER_ID", "env-user")
	t.Setenv("SBISEC_PASSWORD", "env-pw")
	t.Setenv("SBISEC_TRADE_PASSWORD", "env-trade")
	t.Setenv("SBISEC_BACKEND", BackendBrowser)

	cfg, err := ParseConfig([]byte("user_name: file-user\npassword: file-pw\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.Login())
	assert.Equal(t, "env-pw", cfg.LoginPassword())
	assert.Equal(t, "env-trade", cfg.TradePassword)
	assert.Equal(t, BackendBrowser, cfg.Backend)
}

func TestParseConfigValidation(t *testing.T) {
	clearEnv(t)
	tests := map[string]string{
		"missing user":     "password: pw\n",
		"missing password": "user_name: a\n",
		"bad backend":      "user_name: a\npassword: pw\nbackend: curl\n",
		"negative delay":   "user_name: a\npassword: pw\nrequest_delay_ms: -1\n",
		"relative url":     "user_name: a\npassword: pw\nendpoints:\n  trade_host: /site2\n",
	}
	for name, yml := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_id: u\nuser_password: p\ntimeout_seconds: 5\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeout())

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
