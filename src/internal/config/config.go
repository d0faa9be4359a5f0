package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigPath = "src/internal/config/cfg.yml"

// Database drivers
const (
	DriverMongoDB = "mongodb"
	DriverMemory  = "memory"
)

type Configuration struct {
	Logs     LogsSettings     `mapstructure:"logs"`
	App      Application      `mapstructure:"app"`
	Database Database         `mapstructure:"database"`
	Queue    QueueConfig      `mapstructure:"queue"`
	Redis    Redis            `mapstructure:"redis"`
	Security SecuritySettings `mapstructure:"security"`
	Server   ServerSettings   `mapstructure:"server"`
	Rules    RulesSettings    `mapstructure:"rules"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
}

type Database struct {
	Driver          string `mapstructure:"driver"`
	Url             string `mapstructure:"url"`
	DbName          string `mapstructure:"dbname"`
	EventCollection string `mapstructure:"event-collection"`
	Timeout         int    `mapstructure:"timeout"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	RoutingKey   string `mapstructure:"routing-key"`
	Timeout      int    `mapstructure:"timeout"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Enabled     bool   `mapstructure:"enabled"`
	Url         string `mapstructure:"url"`
	Password    string `mapstructure:"password"`
	Db          int    `mapstructure:"db"`
	LockTTLMs   int    `mapstructure:"lock-ttl-ms"`
	LockRetryMs int    `mapstructure:"lock-retry-ms"`
}

type SecuritySettings struct {
	JwtKey string `mapstructure:"jwt-key"`
}

type ServerSettings struct {
	Port           string              `mapstructure:"port"`
	Mode           string              `mapstructure:"mode"`
	ReadTimeout    int                 `mapstructure:"read-timeout"`
	WriteTimeout   int                 `mapstructure:"write-timeout"`
	IdleTimeout    int                 `mapstructure:"idle-timeout"`
	AllowedOrigins map[string][]string `mapstructure:"allowed-origins"`
}

// RulesSettings holds alert thresholds as read from the config file. Amounts
// are decimal strings so they never pass through float64. They are parsed and
// checked by alert.RulesFromConfig when the dependencies are wired.
type RulesSettings struct {
	SingleWithdrawLimit       string `mapstructure:"single-withdraw-limit"`
	ConsecutiveWithdrawCount  int    `mapstructure:"consecutive-withdraw-count"`
	ConsecutiveDepositCount   int    `mapstructure:"consecutive-deposit-count"`
	AccumulativeDepositWindow int    `mapstructure:"accumulative-deposit-window-seconds"`
	AccumulativeDepositLimit  string `mapstructure:"accumulative-deposit-limit"`
}

func Load() *Configuration {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := read(path)
	if err != nil {
		logrus.WithError(err).Panic("Error reading config file")
	}
	logrus.Info("Configuration loaded")

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Panic("Invalid configuration")
	}

	return cfg
}

func read(path string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", path, err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "activity-alerts-svc")
	v.SetDefault("app.timeout", 10)
	v.SetDefault("app.env", "development")
	v.SetDefault("logs.level", "info")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read-timeout", 15)
	v.SetDefault("server.write-timeout", 15)
	v.SetDefault("server.idle-timeout", 60)
	v.SetDefault("database.driver", DriverMongoDB)
	v.SetDefault("database.event-collection", "activity_events")
	v.SetDefault("database.timeout", 10)
	v.SetDefault("redis.lock-ttl-ms", 15000)
	v.SetDefault("redis.lock-retry-ms", 25)
	v.SetDefault("queue.rabbitmq.exchange-type", "topic")
	v.SetDefault("queue.rabbitmq.routing-key", "activity.alert.raised")
	v.SetDefault("rules.single-withdraw-limit", "100.00")
	v.SetDefault("rules.consecutive-withdraw-count", 3)
	v.SetDefault("rules.consecutive-deposit-count", 3)
	v.SetDefault("rules.accumulative-deposit-window-seconds", 30)
	v.SetDefault("rules.accumulative-deposit-limit", "200.00")
}

func applyEnvOverrides(cfg *Configuration) {
	if mongoUri := os.Getenv("MONGODB_URL"); mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.DbName = dbName
	}

	if redisUrl := os.Getenv("REDIS_URL"); redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	if rabbitmqUrl := os.Getenv("RABBITMQ_URL"); rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	if jwtKey := os.Getenv("JWT_KEY"); jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	if env := os.Getenv("SERVICE_ENV"); env != "" {
		cfg.App.Env = env
	}

	if debug := os.Getenv("APP_DEBUG"); debug != "" {
		if b, err := strconv.ParseBool(debug); err == nil {
			cfg.App.Debug = b
		}
	}
}

func (c *Configuration) Validate() error {
	switch c.Database.Driver {
	case DriverMongoDB:
		if c.Database.Url == "" || c.Database.DbName == "" {
			return errors.New("database url and dbname are required for the mongodb driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Redis.Enabled && c.Redis.Url == "" {
		return errors.New("redis url is required when redis is enabled")
	}

	// A user lock must outlive the request holding it.
	if c.Redis.Enabled && time.Duration(c.Redis.LockTTLMs)*time.Millisecond <= c.RequestTimeout() {
		return fmt.Errorf("redis lock-ttl-ms (%d) must exceed app timeout (%s)", c.Redis.LockTTLMs, c.RequestTimeout())
	}

	if c.Queue.RabbitMQ.Enabled && (c.Queue.RabbitMQ.Url == "" || c.Queue.RabbitMQ.Exchange == "") {
		return errors.New("rabbitmq url and exchange are required when the queue is enabled")
	}

	if c.App.Timeout <= 0 {
		return errors.New("app timeout must be positive")
	}

	return nil
}

// RequestTimeout bounds a single request, including time spent waiting for the user lock.
func (c *Configuration) RequestTimeout() time.Duration {
	return time.Duration(c.App.Timeout) * time.Second
}

// Origins returns the CORS allow-list for the configured environment.
func (c *Configuration) Origins() []string {
	return c.Server.AllowedOrigins[c.App.Env]
}
