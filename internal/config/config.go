package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Redis     RedisConfig     `yaml:"redis" json:"redis"`
	Auth      AuthConfig      `yaml:"auth" json:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Reminders ReminderConfig  `yaml:"reminders" json:"reminders"`
}

type ServerConfig struct {
	Host         string        `yaml:"host" json:"host"`
	Port         string        `yaml:"port" json:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	Environment  string        `yaml:"environment" json:"environment"`
}

type DatabaseConfig struct {
	// Driver selects the store: "sqlite" (default) or "postgres".
	Driver string `yaml:"driver" json:"driver"`
	// Path is the sqlite database file.
	Path string `yaml:"path" json:"path"`

	Host            string        `yaml:"host" json:"host"`
	Port            string        `yaml:"port" json:"port"`
	User            string        `yaml:"user" json:"user"`
	Password        string        `yaml:"password" json:"password"`
	Name            string        `yaml:"name" json:"name"`
	SSLMode         string        `yaml:"ssl_mode" json:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	Host         string        `yaml:"host" json:"host"`
	Port         string        `yaml:"port" json:"port"`
	Password     string        `yaml:"password" json:"password"`
	DB           int           `yaml:"db" json:"db"`
	PoolSize     int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" json:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	// NotifyQueue is the list the outbound notification envelopes are pushed to.
	NotifyQueue string `yaml:"notify_queue" json:"notify_queue"`
}

type AuthConfig struct {
	// BotToken signs the chat platform's web-app init data; the auth
	// middleware refuses every request when it is empty in production.
	BotToken   string `yaml:"bot_token" json:"-"`
	AdminToken string `yaml:"admin_token" json:"-"`
	// WhitelistedIDs are external IDs promoted to WHITELISTED on sight.
	WhitelistedIDs []int64 `yaml:"whitelisted_ids" json:"whitelisted_ids"`
}

type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMin int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize      int           `yaml:"burst_size" json:"burst_size"`
	CleanupAfter   time.Duration `yaml:"cleanup_after" json:"cleanup_after"`
}

type ReminderConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval" json:"poll_interval"`
	DefaultLeadTime time.Duration `yaml:"default_lead_time" json:"default_lead_time"`
}

// LoadConfig builds the configuration in precedence order: built-in defaults,
// then the optional YAML file named by TASKBOT_CONFIG, then the environment.
// The environment always wins.
func LoadConfig() (*Config, error) {
	config := defaultConfig()

	if path := os.Getenv("TASKBOT_CONFIG"); path != "" {
		if err := mergeFile(config, path); err != nil {
			return nil, err
		}
	}

	applyEnv(config)

	if config.Database.Driver == "postgres" && config.Database.Password == "" && config.IsProduction() {
		return nil, fmt.Errorf("database password is required in production")
	}

	if config.Auth.BotToken == "" && config.IsProduction() {
		return nil, fmt.Errorf("bot token must be set in production")
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			Environment:  "development",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			Path:            "taskbot.db",
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "taskbot",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         "6379",
			PoolSize:     10,
			MinIdleConns: 5,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			NotifyQueue:  "taskbot:notifications",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 100,
			BurstSize:      10,
			CleanupAfter:   10 * time.Minute,
		},
		Reminders: ReminderConfig{
			PollInterval:    time.Minute,
			DefaultLeadTime: time.Hour,
		},
	}
}

// applyEnv overrides every key a set environment variable names. Unset
// variables leave the current (default or file-supplied) value alone.
func applyEnv(config *Config) {
	config.Server.Host = getEnv("HOST", config.Server.Host)
	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Server.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", config.Server.ReadTimeout)
	config.Server.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", config.Server.WriteTimeout)
	config.Server.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", config.Server.IdleTimeout)
	config.Server.Environment = getEnv("ENVIRONMENT", config.Server.Environment)

	config.Database.Driver = getEnv("DB_DRIVER", config.Database.Driver)
	config.Database.Path = getEnv("DB_PATH", config.Database.Path)
	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnv("DB_PORT", config.Database.Port)
	config.Database.User = getEnv("DB_USER", config.Database.User)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.Name = getEnv("DB_NAME", config.Database.Name)
	config.Database.SSLMode = getEnv("DB_SSL_MODE", config.Database.SSLMode)
	config.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", config.Database.MaxOpenConns)
	config.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", config.Database.MaxIdleConns)
	config.Database.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", config.Database.ConnMaxLifetime)
	config.Database.ConnMaxIdleTime = getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", config.Database.ConnMaxIdleTime)

	config.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", config.Redis.Enabled)
	config.Redis.Host = getEnv("REDIS_HOST", config.Redis.Host)
	config.Redis.Port = getEnv("REDIS_PORT", config.Redis.Port)
	config.Redis.Password = getEnv("REDIS_PASSWORD", config.Redis.Password)
	config.Redis.DB = getEnvAsInt("REDIS_DB", config.Redis.DB)
	config.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", config.Redis.PoolSize)
	config.Redis.MinIdleConns = getEnvAsInt("REDIS_MIN_IDLE_CONNS", config.Redis.MinIdleConns)
	config.Redis.DialTimeout = getEnvAsDuration("REDIS_DIAL_TIMEOUT", config.Redis.DialTimeout)
	config.Redis.ReadTimeout = getEnvAsDuration("REDIS_READ_TIMEOUT", config.Redis.ReadTimeout)
	config.Redis.WriteTimeout = getEnvAsDuration("REDIS_WRITE_TIMEOUT", config.Redis.WriteTimeout)
	config.Redis.NotifyQueue = getEnv("REDIS_NOTIFY_QUEUE", config.Redis.NotifyQueue)

	config.Auth.BotToken = getEnv("BOT_TOKEN", config.Auth.BotToken)
	config.Auth.AdminToken = getEnv("ADMIN_TOKEN", config.Auth.AdminToken)
	if ids := getEnvAsInt64List("WHITELISTED_IDS"); ids != nil {
		config.Auth.WhitelistedIDs = ids
	}

	config.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", config.RateLimit.Enabled)
	config.RateLimit.RequestsPerMin = getEnvAsInt("RATE_LIMIT_RPM", config.RateLimit.RequestsPerMin)
	config.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", config.RateLimit.BurstSize)
	config.RateLimit.CleanupAfter = getEnvAsDuration("RATE_LIMIT_CLEANUP", config.RateLimit.CleanupAfter)

	config.Reminders.PollInterval = getEnvAsDuration("REMINDER_POLL_INTERVAL", config.Reminders.PollInterval)
	config.Reminders.DefaultLeadTime = getEnvAsDuration("REMINDER_DEFAULT_LEAD", config.Reminders.DefaultLeadTime)
}

// mergeFile overlays the YAML file on top of the defaults. Environment
// variables are applied afterward, so a set variable beats any file key.
func mergeFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsInt64List(key string) []int64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
