package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"stolik/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Logging       LoggingConfig       `yaml:"logging"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	API           APIConfig           `yaml:"api"`
	Engine        EngineConfig        `yaml:"engine"`
	Hours         HoursConfig         `yaml:"hours"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Backup        BackupConfig        `yaml:"backup"`
	Exports       ExportConfig        `yaml:"exports"`
	Tables        []models.Table      `yaml:"tables"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	CacheTTL string `yaml:"cache_ttl"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// EngineConfig tunes the reservation coordinator's contention
// behavior.
type EngineConfig struct {
	LockTimeout   string `yaml:"lock_timeout"`
	CancelRetries int    `yaml:"cancel_retries"`
}

// HoursConfig is the operating-hours policy. Empty strings disable
// the check; bookings then only need to fit inside one day.
type HoursConfig struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

type NotificationsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	GatewayURL string `yaml:"gateway_url"`
	APIKey     string `yaml:"api_key"`
	Timeout    string `yaml:"timeout"`
}

// BackupConfig schedules periodic snapshots of the sqlite file.
// Schedule is a Go duration; RetentionDays <= 0 keeps backups forever.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	StoragePath   string `yaml:"storage_path"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
}

// ExportConfig points at the directory where generated reports are
// archived alongside the HTTP download.
type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен: в контейнере значения приходят из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
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
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if _, err := c.OperatingHours(); err != nil {
		return err
	}
	if _, err := c.LockTimeout(); err != nil {
		return err
	}
	return ValidateTables(c.Tables)
}

// ValidateTables rejects duplicate numbers and non-positive
// capacities before anything reaches the store.
func ValidateTables(tables []models.Table) error {
	numbers := make(map[int]bool)
	for _, t := range tables {
		if t.Number <= 0 {
			return fmt.Errorf("table %q has invalid number %d", t.Location, t.Number)
		}
		if numbers[t.Number] {
			return fmt.Errorf("duplicate table number found: %d", t.Number)
		}
		if t.Capacity <= 0 {
			return fmt.Errorf("table %d has invalid capacity %d", t.Number, t.Capacity)
		}
		numbers[t.Number] = true
	}
	return nil
}

// OperatingHours parses the hours policy into an interval, or nil
// when the policy is not configured.
func (c *Config) OperatingHours() (*models.Interval, error) {
	if c.Hours.Open == "" && c.Hours.Close == "" {
		return nil, nil
	}
	window, err := models.ParseInterval(c.Hours.Open, c.Hours.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid operating hours: %w", err)
	}
	if !window.Valid() {
		return nil, fmt.Errorf("invalid operating hours: open %s must precede close %s", c.Hours.Open, c.Hours.Close)
	}
	return &window, nil
}

// LockTimeout parses the engine lock timeout.
func (c *Config) LockTimeout() (time.Duration, error) {
	if c.Engine.LockTimeout == "" {
		return models.DefaultLockTimeout, nil
	}
	d, err := time.ParseDuration(c.Engine.LockTimeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid engine.lock_timeout %q", c.Engine.LockTimeout)
	}
	return d, nil
}

// SlotCacheTTL parses the redis cache TTL.
func (c *Config) SlotCacheTTL() time.Duration {
	if c.Redis.CacheTTL == "" {
		return models.DefaultSlotCacheTTL
	}
	d, err := time.ParseDuration(c.Redis.CacheTTL)
	if err != nil || d <= 0 {
		return models.DefaultSlotCacheTTL
	}
	return d
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "stolik"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 20
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 5
	}
	if c.Engine.CancelRetries == 0 {
		c.Engine.CancelRetries = models.DefaultCancelRetries
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
}
