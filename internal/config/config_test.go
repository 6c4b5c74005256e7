package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "nillion", cfg.Asset.CoinID)
	assert.Equal(t, "usd", cfg.Asset.VsCurrency)
	assert.Equal(t, "chart_data/daily.json", cfg.Ledger.Path)
	assert.Equal(t, 30, cfg.Ledger.MaxRecords)
	assert.Equal(t, 3*time.Second, cfg.Provider.CushionDelay)
	assert.Equal(t, 4, cfg.Provider.Retry.MaxAttempts)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
asset:
  coin_id: bitcoin
  vs_currency: eur
provider:
  cushion_delay: 500ms
  retry:
    max_attempts: 2
ledger:
  path: /tmp/btc.json
  max_records: 7
telegram:
  bot_token: tok
  chat_id: "42"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bitcoin", cfg.Asset.CoinID)
	assert.Equal(t, "eur", cfg.Asset.VsCurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Provider.CushionDelay)
	assert.Equal(t, 2, cfg.Provider.Retry.MaxAttempts)
	assert.Equal(t, "/tmp/btc.json", cfg.Ledger.Path)
	assert.Equal(t, 7, cfg.Ledger.MaxRecords)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "asset:\n  coin_id: bitcoin\n")
	t.Setenv("COIN_ID", "ethereum")
	t.Setenv("LEDGER_MAX_RECORDS", "12")
	t.Setenv("CUSHION_DELAY", "1s")
	t.Setenv("LEDGER_PATH", "/data/eth.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ethereum", cfg.Asset.CoinID)
	assert.Equal(t, 12, cfg.Ledger.MaxRecords)
	assert.Equal(t, time.Second, cfg.Provider.CushionDelay)
	assert.Equal(t, "/data/eth.json", cfg.Ledger.Path)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("LEDGER_MAX_RECORDS", "many")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "asset: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative cap", func(c *Config) { c.Ledger.MaxRecords = -1 }},
		{"empty coin", func(c *Config) { c.Asset.CoinID = "" }},
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "tok" }},
		{"no attempts", func(c *Config) { c.Provider.Retry.MaxAttempts = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
