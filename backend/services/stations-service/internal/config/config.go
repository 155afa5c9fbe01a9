package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "evmap/backend/libs/config"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

// VendorConfig holds one vendor's endpoint and credentials. Credentials only
// come from the environment or the config file; there are no built-in values.
type VendorConfig struct {
	// BaseURL overrides the production host when set.
	BaseURL  string `yaml:"baseUrl"`
	Phone    string `yaml:"phone"`
	Password string `yaml:"password"`
}

// Configured reports whether credentials are present.
func (v VendorConfig) Configured() bool {
	return strings.TrimSpace(v.Phone) != "" && v.Password != ""
}

// Config defines stations service configuration.
type Config struct {
	HTTP struct {
		Port         string        `yaml:"port" env:"PORT"`
		WriteTimeout time.Duration `yaml:"writeTimeout" env:"HTTP_WRITE_TIMEOUT"`
		CORSOrigins  []string      `yaml:"corsOrigins" env:"CORS_ORIGINS"`
	} `yaml:"http"`
	DataDir string `yaml:"dataDir" env:"DATA_DIR"`
	Vendors struct {
		TeamEnergy VendorConfig  `yaml:"teamEnergy" env:"TEAM_ENERGY"`
		EvanCharge VendorConfig  `yaml:"evanCharge" env:"EVAN_CHARGE"`
		PageLimit  int           `yaml:"pageLimit" env:"EVAN_CHARGE_PAGE_LIMIT"`
		Timeout    time.Duration `yaml:"timeout" env:"VENDOR_TIMEOUT"`
	} `yaml:"vendors"`
	Cache struct {
		Backend string `yaml:"backend" env:"CACHE_BACKEND"`
		Redis   struct {
			Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
			Password string        `yaml:"password" env:"REDIS_PASSWORD"`
			DB       int           `yaml:"db" env:"REDIS_DB"`
			Prefix   string        `yaml:"prefix" env:"REDIS_PREFIX"`
			TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Database struct {
		DSN string `yaml:"dsn" env:"STATIONS_POSTGRES_DSN"`
	} `yaml:"database"`
	Map struct {
		Token string `yaml:"token" env:"MAPBOX_TOKEN"`
	} `yaml:"map"`
	Schedule struct {
		Enabled  bool     `yaml:"enabled" env:"SCHEDULE_ENABLED"`
		Times    []string `yaml:"times" env:"SCHEDULE_TIMES"`
		Timezone string   `yaml:"timezone" env:"SCHEDULE_TIMEZONE"`
	} `yaml:"schedule"`
	Admin struct {
		User         string `yaml:"user" env:"ADMIN_USER"`
		PasswordHash string `yaml:"passwordHash" env:"ADMIN_PASSWORD_HASH"`
	} `yaml:"admin"`
	WebSocket struct {
		PingInterval time.Duration `yaml:"pingInterval" env:"WS_PING_INTERVAL"`
		WriteTimeout time.Duration `yaml:"writeTimeout" env:"WS_WRITE_TIMEOUT"`
	} `yaml:"websocket"`
}

// Defaults returns the configuration used before file and env overrides.
func Defaults() *Config {
	cfg := &Config{DataDir: "./data"}
	cfg.HTTP.Port = "3001"
	cfg.HTTP.WriteTimeout = 90 * time.Second
	cfg.Vendors.PageLimit = 1000
	cfg.Vendors.Timeout = 30 * time.Second
	cfg.Cache.Backend = CacheFile
	cfg.Cache.Redis.Addr = "localhost:6379"
	cfg.Cache.Redis.Prefix = "stations"
	cfg.Schedule.Enabled = true
	cfg.Schedule.Times = []string{"10:00", "22:00"}
	cfg.Schedule.Timezone = "Asia/Yerevan"
	cfg.Admin.User = "admin"
	cfg.WebSocket.PingInterval = 30 * time.Second
	cfg.WebSocket.WriteTimeout = 10 * time.Second
	return cfg
}

// Load reads configuration via shared helper and validates it.
func Load() (*Config, error) {
	cfg := Defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" && c.Cache.Backend != CacheRedis {
		return errors.New("config: data dir is required for the file cache")
	}
	switch c.Cache.Backend {
	case CacheFile:
	case CacheRedis:
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return errors.New("config: redis addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	if c.Vendors.Timeout < 0 {
		return errors.New("config: vendor timeout must not be negative")
	}
	if c.Vendors.PageLimit <= 0 {
		return errors.New("config: vendor page limit must be positive")
	}
	if c.Schedule.Enabled && len(c.Schedule.Times) == 0 {
		return errors.New("config: schedule enabled without times")
	}
	if c.Admin.PasswordHash != "" && strings.TrimSpace(c.Admin.User) == "" {
		return errors.New("config: admin user is required with a password hash")
	}
	return nil
}

// HTTPAddress returns :port style address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "3001"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// HistoryEnabled reports whether refresh runs go to Postgres.
func (c *Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.Database.DSN) != ""
}

// AdminEnabled reports whether /api/refresh requires credentials.
func (c *Config) AdminEnabled() bool {
	return c.Admin.PasswordHash != ""
}
