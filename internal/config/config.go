package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	VTEX        VTEXConfig
	TikTok      TikTokConfig
	Orders      OrdersConfig
	Dispatch    DispatchConfig
	Telemetry   TelemetryConfig
	API         APIConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// RedisConfig is optional; an empty Addr selects the in-memory shop cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type VTEXConfig struct {
	Environment string
	Timeout     time.Duration
	RateLimit   float64
}

type TikTokConfig struct {
	BaseURL        string
	AppKey         string
	AppSecret      string
	Timeout        time.Duration
	RateLimit      float64
	VerifyWebhooks bool
}

type OrdersConfig struct {
	SettleDelay            time.Duration
	DefaultPostalCode      string
	DefaultPhone           string
	AllowSyntheticDocument bool
	ShopConfigTTL          time.Duration
	PublicBaseURL          string
}

type DispatchConfig struct {
	QueueSize int
	Workers   int
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

type APIConfig struct {
	AdminKeyHash string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:        getEnvOrViper("DB_HOST", "localhost"),
			Port:        getEnvOrViper("DB_PORT", "5432"),
			User:        getEnvOrViper("DB_USER", "postgres"),
			Password:    getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:      getEnvOrViper("DB_NAME", "ttsbridge"),
			SSLMode:     getEnvOrViper("DB_SSLMODE", "disable"),
			AutoMigrate: getBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", ""),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		VTEX: VTEXConfig{
			Environment: getEnvOrViper("VTEX_ENVIRONMENT", "vtexcommercestable"),
			Timeout:     getDuration("VTEX_TIMEOUT", 30*time.Second),
			RateLimit:   getFloat("VTEX_RATE_LIMIT", 10),
		},
		TikTok: TikTokConfig{
			BaseURL:        getEnvOrViper("TIKTOK_BASE_URL", "https://open-api.tiktokglobalshop.com"),
			AppKey:         getEnvOrViper("TIKTOK_APP_KEY", ""),
			AppSecret:      getEnvOrViper("TIKTOK_APP_SECRET", ""),
			Timeout:        getDuration("TIKTOK_TIMEOUT", 30*time.Second),
			RateLimit:      getFloat("TIKTOK_RATE_LIMIT", 10),
			VerifyWebhooks: getBool("TIKTOK_VERIFY_WEBHOOKS", false),
		},
		Orders: OrdersConfig{
			SettleDelay:            getDuration("ORDER_SETTLE_DELAY", 12*time.Second),
			DefaultPostalCode:      getEnvOrViper("ORDER_DEFAULT_POSTAL_CODE", "01001000"),
			DefaultPhone:           getEnvOrViper("ORDER_DEFAULT_PHONE", "11999999999"),
			AllowSyntheticDocument: getBool("ORDER_ALLOW_SYNTHETIC_DOCUMENT", true),
			ShopConfigTTL:          getDuration("SHOP_CONFIG_TTL", 5*time.Minute),
			PublicBaseURL:          strings.TrimSuffix(getEnvOrViper("PUBLIC_BASE_URL", ""), "/"),
		},
		Dispatch: DispatchConfig{
			QueueSize: getInt("DISPATCH_QUEUE_SIZE", 256),
			Workers:   getInt("DISPATCH_WORKERS", 2),
		},
		Telemetry: TelemetryConfig{
			Enabled:     getBool("OTEL_ENABLED", false),
			Endpoint:    getEnvOrViper("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnvOrViper("OTEL_SERVICE_NAME", "ttsbridge"),
		},
		API: APIConfig{
			AdminKeyHash: getEnvOrViper("ADMIN_API_KEY_HASH", ""),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	if c.TikTok.AppKey == "" {
		return fmt.Errorf("TIKTOK_APP_KEY is required")
	}
	if c.TikTok.AppSecret == "" {
		return fmt.Errorf("TIKTOK_APP_SECRET is required")
	}
	if c.Orders.SettleDelay < 0 {
		return fmt.Errorf("ORDER_SETTLE_DELAY must be >= 0")
	}
	if digits := onlyDigits(c.Orders.DefaultPostalCode); len(digits) != 8 {
		return fmt.Errorf("ORDER_DEFAULT_POSTAL_CODE must have 8 digits")
	}
	if c.Orders.ShopConfigTTL <= 0 {
		return fmt.Errorf("SHOP_CONFIG_TTL must be > 0")
	}
	if c.Dispatch.QueueSize < 1 || c.Dispatch.Workers < 1 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE and DISPATCH_WORKERS must be >= 1")
	}
	if c.VTEX.RateLimit < 0 || c.TikTok.RateLimit < 0 {
		return fmt.Errorf("rate limits must be >= 0")
	}
	return nil
}

// DSN builds the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnvOrViper(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnvOrViper(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnvOrViper(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnvOrViper(key, defaultValue.String()))
	if err != nil {
		return defaultValue
	}
	return v
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
