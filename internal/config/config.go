package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Escalation EscalationConfig `yaml:"escalation"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// EscalationConfig describes the fixed responder chain: tier 1 is the
// request's own assignee, tiers 2 and 3 are organization contacts, and the
// alert chat receives the terminal organization-wide notice.
type EscalationConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Tier2ID     int64         `yaml:"tier2_id"`
	Tier3ID     int64         `yaml:"tier3_id"`
	AlertChatID int64         `yaml:"alert_chat_id"`
}

type LedgerConfig struct {
	CredentialsFile    string `yaml:"credentials_file"`
	SpreadsheetID      string `yaml:"spreadsheet_id"`
	SheetName          string `yaml:"sheet_name"`
	ReconcileAfterDays int    `yaml:"reconcile_after_days"`
	ReconcileTime      string `yaml:"reconcile_time"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path     string `yaml:"path"`
	Schedule string `yaml:"schedule"`
}

func Load(configPath string) (*Config, error) {
	// .env, если есть, подхватывается до разворачивания переменных
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Escalation.Tier2ID == 0 || c.Escalation.Tier3ID == 0 {
		return errors.New("escalation tier2_id and tier3_id are required")
	}

	if c.Escalation.AlertChatID == 0 {
		return errors.New("escalation alert_chat_id is required")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Escalation.Timeout <= 0 {
		c.Escalation.Timeout = 30 * time.Minute
	}
	if c.Ledger.SheetName == "" {
		c.Ledger.SheetName = "Seats"
	}
	if c.Ledger.ReconcileAfterDays <= 0 {
		c.Ledger.ReconcileAfterDays = 1
	}
	if c.Ledger.ReconcileTime == "" {
		c.Ledger.ReconcileTime = "06:00"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth enabled by default when API is enabled
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
