package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  name: hotdesk
  environment: test
telegram:
  bot_token: "123456:test-token"
database:
  path: /tmp/hotdesk-test.db
escalation:
  timeout: 15m
  tier2_id: 200
  tier3_id: 300
  alert_chat_id: -100500
ledger:
  spreadsheet_id: sheet-id
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hotdesk", cfg.App.Name)
	assert.Equal(t, "123456:test-token", cfg.Telegram.BotToken)
	assert.Equal(t, 15*time.Minute, cfg.Escalation.Timeout)
	assert.Equal(t, int64(200), cfg.Escalation.Tier2ID)
	assert.Equal(t, int64(-100500), cfg.Escalation.AlertChatID)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123456:test-token"
database:
  path: /tmp/hotdesk-test.db
escalation:
  tier2_id: 200
  tier3_id: 300
  alert_chat_id: -100500
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Escalation.Timeout)
	assert.Equal(t, "Seats", cfg.Ledger.SheetName)
	assert.Equal(t, 1, cfg.Ledger.ReconcileAfterDays)
	assert.Equal(t, "06:00", cfg.Ledger.ReconcileTime)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.True(t, cfg.API.Auth.Enabled)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("HOTDESK_TEST_TOKEN", "999:env-token")

	path := writeConfig(t, `
telegram:
  bot_token: "${HOTDESK_TEST_TOKEN}"
database:
  path: /tmp/hotdesk-test.db
escalation:
  tier2_id: 200
  tier3_id: 300
  alert_chat_id: -100500
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "999:env-token", cfg.Telegram.BotToken)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Telegram.BotToken = "" },
			wantErr: "telegram bot token is required",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database path is required",
		},
		{
			name:    "missing tier contacts",
			mutate:  func(c *Config) { c.Escalation.Tier2ID = 0 },
			wantErr: "escalation tier2_id and tier3_id are required",
		},
		{
			name:    "missing alert chat",
			mutate:  func(c *Config) { c.Escalation.AlertChatID = 0 },
			wantErr: "escalation alert_chat_id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Telegram: TelegramConfig{BotToken: "123456:test-token"},
				Database: DatabaseConfig{Path: "/tmp/test.db"},
				Escalation: EscalationConfig{
					Tier2ID:     200,
					Tier3ID:     300,
					AlertChatID: -100500,
				},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
