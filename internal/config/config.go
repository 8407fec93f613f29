package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix префикс переменных окружения, переопределяющих файл конфигурации
const EnvPrefix = "APP"

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	PaymentProviderStripe    = "stripe"
	PaymentProviderIntaSend  = "intasend"
	PaymentProviderSimulated = "simulated"
)

// Config конфигурация сервиса
type Config struct {
	Server    ServerConfig    `toml:"server" envconfig:"SERVER"`
	Storage   StorageConfig   `toml:"storage" envconfig:"STORAGE"`
	Database  DatabaseConfig  `toml:"database" envconfig:"DATABASE"`
	Logs      LogsConfig      `toml:"logs" envconfig:"LOGS"`
	Metrics   MetricsConfig   `toml:"metrics" envconfig:"METRICS"`
	Booking   BookingConfig   `toml:"booking" envconfig:"BOOKING"`
	Payments  PaymentsConfig  `toml:"payments" envconfig:"PAYMENTS"`
	Stripe    StripeConfig    `toml:"stripe" envconfig:"STRIPE"`
	IntaSend  IntaSendConfig  `toml:"intasend" envconfig:"INTASEND"`
	Redis     RedisConfig     `toml:"redis" envconfig:"REDIS"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq" envconfig:"RABBITMQ"`
	RateLimit RateLimitConfig `toml:"ratelimit" envconfig:"RATELIMIT"`
}

// ServerConfig параметры HTTP сервера, таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port" split_words:"true"`
	ReadTimeout     int `toml:"read_timeout" split_words:"true"`
	WriteTimeout    int `toml:"write_timeout" split_words:"true"`
	IdleTimeout     int `toml:"idle_timeout" split_words:"true"`
	ShutdownTimeout int `toml:"shutdown_timeout" split_words:"true"`
}

// StorageConfig выбор хранилища: postgres или memory (для локального запуска).
// SeedProviders заводит провайдеров с графиком по умолчанию, только для memory.
type StorageConfig struct {
	Driver        string  `toml:"driver"`
	SeedProviders []int64 `toml:"seed_providers" split_words:"true"`
}

// DatabaseConfig параметры подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns" split_words:"true"`
	MaxIdleConns    int    `toml:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" split_words:"true"` // секунды
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogsConfig параметры логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig параметры Prometheus метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name" split_words:"true"`
	Path        string `toml:"path"`
}

// BookingConfig правила жизненного цикла бронирований
type BookingConfig struct {
	Timezone                 string `toml:"timezone"`
	CancellationGraceMinutes int    `toml:"cancellation_grace_minutes" split_words:"true"`
	DefaultDurationMinutes   int    `toml:"default_duration_minutes" split_words:"true"`
	MinNoticeMinutes         int    `toml:"min_notice_minutes" split_words:"true"`
}

// Location часовой пояс расписания провайдеров
func (c BookingConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// CancellationGrace окно, внутри которого отмена запрещена
func (c BookingConfig) CancellationGrace() time.Duration {
	return time.Duration(c.CancellationGraceMinutes) * time.Minute
}

// PaymentsConfig параметры сверки платежей.
// GatewayTimeout, SettleAfter, RedriveInterval и NotificationCacheTTL в секундах.
// SettleAfter и SimulatedRedirectURL используются только шлюзом simulated.
type PaymentsConfig struct {
	Provider              string `toml:"provider"`
	Currency              string `toml:"currency"`
	GatewayTimeout        int    `toml:"gateway_timeout" split_words:"true"`
	SettleAfter           int    `toml:"settle_after" split_words:"true"`
	SimulatedRedirectURL  string `toml:"simulated_redirect_url" split_words:"true"`
	RedriveInterval       int    `toml:"redrive_interval" split_words:"true"`
	RedriveBatch          int    `toml:"redrive_batch" split_words:"true"`
	NotificationCacheTTL  int    `toml:"notification_cache_ttl" split_words:"true"`
	SettlementConcurrency int    `toml:"settlement_concurrency" split_words:"true"`
}

// StripeConfig ключи Stripe
type StripeConfig struct {
	SecretKey     string `toml:"secret_key" split_words:"true"`
	WebhookSecret string `toml:"webhook_secret" split_words:"true"`
}

// IntaSendConfig параметры HTTP шлюза IntaSend
type IntaSendConfig struct {
	BaseURL     string `toml:"base_url" split_words:"true"`
	APIKey      string `toml:"api_key" envconfig:"API_KEY"`
	CallbackURL string `toml:"callback_url" split_words:"true"`
	SuccessURL  string `toml:"success_url" split_words:"true"`
	FailURL     string `toml:"fail_url" split_words:"true"`
	Challenge   string `toml:"challenge"`
	Timeout     int    `toml:"timeout"` // секунды
}

// RedisConfig параметры Redis: очередь отложенных задач и кэш уведомлений
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Queue    string `toml:"queue"`
}

// RabbitMQConfig параметры брокера событий и очереди уведомлений
type RabbitMQConfig struct {
	Enabled           bool   `toml:"enabled"`
	URL               string `toml:"url"`
	Exchange          string `toml:"exchange"`
	NotificationQueue string `toml:"notification_queue" split_words:"true"`
	Prefetch          int    `toml:"prefetch"`
}

// RateLimitConfig ограничение частоты запросов к вебхукам
type RateLimitConfig struct {
	Enabled bool    `toml:"enabled"`
	RPS     float64 `toml:"rps"`
	Burst   int     `toml:"burst"`
}

// Load читает .env (если есть), затем TOML файл и переменные окружения с префиксом APP_
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: apply env overrides: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default значения по умолчанию, поверх которых накладывается файл
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			ServiceName: "appointment_service",
			Path:        "/metrics",
		},
		Booking: BookingConfig{
			Timezone:                 "UTC",
			CancellationGraceMinutes: 120,
			DefaultDurationMinutes:   30,
		},
		Payments: PaymentsConfig{
			Provider:              PaymentProviderSimulated,
			Currency:              "USD",
			GatewayTimeout:        10,
			SettleAfter:           5,
			RedriveInterval:       60,
			RedriveBatch:          100,
			NotificationCacheTTL:  86400,
			SettlementConcurrency: 5,
		},
		IntaSend: IntaSendConfig{Timeout: 10},
		Redis: RedisConfig{
			Addr:  "localhost:6379",
			Queue: "settlements",
		},
		RabbitMQ: RabbitMQConfig{
			Exchange:          "appointments",
			NotificationQueue: "appointments.payment-notifications",
			Prefetch:          10,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     20,
			Burst:   40,
		},
	}
}

func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Payments.Provider = strings.ToLower(strings.TrimSpace(c.Payments.Provider))
	c.Payments.Currency = strings.ToUpper(strings.TrimSpace(c.Payments.Currency))
}

// Validate проверяет обязательные поля для выбранного хранилища и шлюза
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("config: server.http_port must be in 1..65535, got %d", c.Server.HTTPPort)
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return errors.New("config: database.host, database.dbname and database.user are required for postgres storage")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("config: booking.timezone: %w", err)
	}
	if c.Booking.CancellationGraceMinutes < 0 {
		return errors.New("config: booking.cancellation_grace_minutes must not be negative")
	}
	if c.Booking.DefaultDurationMinutes <= 0 {
		return errors.New("config: booking.default_duration_minutes must be positive")
	}

	if len(c.Payments.Currency) != 3 {
		return fmt.Errorf("config: payments.currency must be a 3-letter code, got %q", c.Payments.Currency)
	}
	if c.Payments.GatewayTimeout <= 0 {
		return errors.New("config: payments.gateway_timeout must be positive")
	}

	switch c.Payments.Provider {
	case PaymentProviderStripe:
		if c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "" {
			return errors.New("config: stripe.secret_key and stripe.webhook_secret are required for the stripe provider")
		}
	case PaymentProviderIntaSend:
		if c.IntaSend.BaseURL == "" || c.IntaSend.APIKey == "" || c.IntaSend.Challenge == "" {
			return errors.New("config: intasend.base_url, intasend.api_key and intasend.challenge are required for the intasend provider")
		}
	case PaymentProviderSimulated:
		if c.Payments.SettleAfter <= 0 {
			return errors.New("config: payments.settle_after must be positive for the simulated provider")
		}
	default:
		return fmt.Errorf("config: unknown payments.provider %q", c.Payments.Provider)
	}
	if c.Payments.RedriveInterval <= 0 || c.Payments.RedriveBatch <= 0 {
		return errors.New("config: payments.redrive_interval and payments.redrive_batch must be positive")
	}
	if c.Payments.SettlementConcurrency <= 0 {
		return errors.New("config: payments.settlement_concurrency must be positive")
	}

	if c.Redis.Addr == "" || c.Redis.Queue == "" {
		return errors.New("config: redis.addr and redis.queue are required")
	}

	if c.RabbitMQ.Enabled && (c.RabbitMQ.URL == "" || c.RabbitMQ.Exchange == "" || c.RabbitMQ.NotificationQueue == "") {
		return errors.New("config: rabbitmq.url, rabbitmq.exchange and rabbitmq.notification_queue are required when rabbitmq is enabled")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("config: ratelimit.rps and ratelimit.burst must be positive when rate limiting is enabled")
	}

	return nil
}
