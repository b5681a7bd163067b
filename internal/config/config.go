package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
)

const (
	EnvAPIBaseURL      = "STOREFRONT_API_BASE_URL"
	EnvRedisAddr       = "STOREFRONT_REDIS_ADDR"
	EnvDatabaseDSN     = "STOREFRONT_DATABASE_DSN"
	EnvDefaultCurrency = "STOREFRONT_DEFAULT_CURRENCY"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Gateway  GatewayConfig  `json:"gateway"`
	Redis    RedisConfig    `json:"redis"`
	Database DatabaseConfig `json:"database"`
	Storage  StorageConfig  `json:"storage"`
	Sessions SessionsConfig `json:"sessions"`
	LogLevel string         `json:"log_level"`
}

type ServerConfig struct {
	Host         string   `json:"host"`
	Port         int      `json:"port"`
	MetricsAddr  string   `json:"metrics_addr"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
}

type GatewayConfig struct {
	BaseURL         string        `json:"base_url"`
	Timeout         Duration      `json:"timeout"`
	DefaultCurrency string        `json:"default_currency"`
	Breaker         BreakerConfig `json:"breaker"`
}

type BreakerConfig struct {
	MaxRequests         uint32   `json:"max_requests"`
	Interval            Duration `json:"interval"`
	OpenTimeout         Duration `json:"open_timeout"`
	ConsecutiveFailures uint32   `json:"consecutive_failures"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type DatabaseConfig struct {
	Enabled        bool   `json:"enabled"`
	DSN            string `json:"dsn"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	User           string `json:"user"`
	Password       string `json:"password"`
	DBName         string `json:"dbname"`
	SSLMode        string `json:"sslmode"`
	MigrationsPath string `json:"migrations_path"`
}

type StorageConfig struct {
	DataDir string `json:"data_dir"`
}

type SessionsConfig struct {
	IdleTTL       Duration `json:"idle_ttl"`
	SweepInterval Duration `json:"sweep_interval"`
}

// Duration reads "30s" style strings or plain nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// LoadConfig reads the JSON file at path, applies defaults and environment
// overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	config.ApplyEnv(os.LookupEnv)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		Gateway: GatewayConfig{
			Timeout:         Duration{15 * time.Second},
			DefaultCurrency: "COP",
			Breaker: BreakerConfig{
				MaxRequests:         1,
				Interval:            Duration{time.Minute},
				OpenTimeout:         Duration{30 * time.Second},
				ConsecutiveFailures: 5,
			},
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			SSLMode:        "disable",
			MigrationsPath: "migrations",
		},
		Storage: StorageConfig{
			DataDir: ".storefront",
		},
		Sessions: SessionsConfig{
			IdleTTL:       Duration{30 * time.Minute},
			SweepInterval: Duration{time.Minute},
		},
		LogLevel: "info",
	}
}

// ApplyEnv overlays environment variables. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIBaseURL); ok && strings.TrimSpace(v) != "" {
		c.Gateway.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v, ok := lookup(EnvDatabaseDSN); ok && v != "" {
		c.Database.DSN = v
		c.Database.Enabled = true
	}
	if v, ok := lookup(EnvDefaultCurrency); ok && v != "" {
		c.Gateway.DefaultCurrency = strings.ToUpper(v)
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Gateway.BaseURL) == "" {
		return domainErrors.ErrMissingBaseURL
	}
	if c.Gateway.DefaultCurrency == "" {
		return fmt.Errorf("gateway.default_currency must not be empty")
	}
	if c.Sessions.IdleTTL.Duration <= 0 || c.Sessions.SweepInterval.Duration <= 0 {
		return fmt.Errorf("sessions.idle_ttl and sessions.sweep_interval must be positive")
	}
	return nil
}

func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *RedisConfig) Address() string {
	if c.Addr != "" {
		return c.Addr
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *DatabaseConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}
