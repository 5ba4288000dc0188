package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Booking     BookingConfig
	RateLimit   RateLimitConfig
	Transaction TransactionConfig
	AMQP        AMQPConfig
	Admin       AdminConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type BookingConfig struct {
	MaxPerUser              int
	CancellationWindowHours int
}

func (c BookingConfig) CancellationWindow() time.Duration {
	return time.Duration(c.CancellationWindowHours) * time.Hour
}

type RateLimitConfig struct {
	MaxAttempts   int
	WindowSeconds int
}

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

type TransactionConfig struct {
	WriteTimeoutSeconds  int
	ReadTimeoutSeconds   int
	MaxRetries           int
	RetryBaseDelayMillis int
	RetryMaxDelayMillis  int
}

func (c TransactionConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c TransactionConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c TransactionConfig) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMillis) * time.Millisecond
}

func (c TransactionConfig) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMillis) * time.Millisecond
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type AdminConfig struct {
	// Bcrypt hash of the admin API key; the key itself is never stored.
	KeyHash string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("BOOKING_MAX_PER_USER", 3)
	viper.SetDefault("BOOKING_CANCEL_WINDOW_HOURS", 24)
	viper.SetDefault("RATE_LIMIT_MAX_ATTEMPTS", 3)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 10)
	viper.SetDefault("TX_WRITE_TIMEOUT_SECONDS", 30)
	viper.SetDefault("TX_READ_TIMEOUT_SECONDS", 10)
	viper.SetDefault("TX_MAX_RETRIES", 3)
	viper.SetDefault("TX_RETRY_BASE_DELAY_MS", 50)
	viper.SetDefault("TX_RETRY_MAX_DELAY_MS", 1000)
	viper.SetDefault("AMQP_EXCHANGE", "booking.events")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Booking: BookingConfig{
			MaxPerUser:              viper.GetInt("BOOKING_MAX_PER_USER"),
			CancellationWindowHours: viper.GetInt("BOOKING_CANCEL_WINDOW_HOURS"),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:   viper.GetInt("RATE_LIMIT_MAX_ATTEMPTS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Transaction: TransactionConfig{
			WriteTimeoutSeconds:  viper.GetInt("TX_WRITE_TIMEOUT_SECONDS"),
			ReadTimeoutSeconds:   viper.GetInt("TX_READ_TIMEOUT_SECONDS"),
			MaxRetries:           viper.GetInt("TX_MAX_RETRIES"),
			RetryBaseDelayMillis: viper.GetInt("TX_RETRY_BASE_DELAY_MS"),
			RetryMaxDelayMillis:  viper.GetInt("TX_RETRY_MAX_DELAY_MS"),
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
		},
		Admin: AdminConfig{
			KeyHash: viper.GetString("ADMIN_KEY_HASH"),
		},
	}

	return config, nil
}
