package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Security     SecurityConfig
	SMTP         SMTPConfig
	MQTT         MQTTConfig
	Notification NotificationConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	AdminSeed    AdminSeedConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	MaxBodyBytes int64
}

type DatabaseConfig struct {
	Driver   string // postgres or memory
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
	Issuer      string
}

type SecurityConfig struct {
	BcryptCost       int
	LockoutThreshold int
	LockoutDuration  time.Duration
	SetupTokenTTL    time.Duration
	TokenCleanup     time.Duration
	AppBaseURL       string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	NotifyTopic string
}

type NotificationConfig struct {
	Driver  string // log, smtp or mqtt
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints

	LoginLimit     int
	LoginWindow    time.Duration
	RegisterLimit  int
	RegisterWindow time.Duration
	ResetLimit     int
	ResetWindow    time.Duration
	ResendLimit    int
	ResendWindow   time.Duration
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type AdminSeedConfig struct {
	Email       string
	Password    string
	DisplayName string
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("SERVER_MAX_BODY_BYTES", 1<<20)

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("JWT_ISSUER", "consultant-access")

	viper.SetDefault("BCRYPT_COST", 12)
	viper.SetDefault("LOCKOUT_THRESHOLD", 5)
	viper.SetDefault("LOCKOUT_DURATION", "2h")
	viper.SetDefault("SETUP_TOKEN_TTL", "24h")
	viper.SetDefault("SETUP_TOKEN_CLEANUP_INTERVAL", "1h")
	viper.SetDefault("APP_BASE_URL", "http://localhost:3000")

	viper.SetDefault("SMTP_PORT", 465)

	viper.SetDefault("MQTT_CLIENT_ID", "consultant-access")
	viper.SetDefault("MQTT_NOTIFY_TOPIC", "consultant-access/notifications")

	viper.SetDefault("NOTIFY_DRIVER", "log")
	viper.SetDefault("NOTIFY_TIMEOUT", "10s")

	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 20.0)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
	viper.SetDefault("RATE_LIMIT_LOGIN_LIMIT", 5)
	viper.SetDefault("RATE_LIMIT_LOGIN_WINDOW", "15m")
	viper.SetDefault("RATE_LIMIT_REGISTER_LIMIT", 5)
	viper.SetDefault("RATE_LIMIT_REGISTER_WINDOW", "1h")
	viper.SetDefault("RATE_LIMIT_RESET_LIMIT", 3)
	viper.SetDefault("RATE_LIMIT_RESET_WINDOW", "1h")
	viper.SetDefault("RATE_LIMIT_RESEND_LIMIT", 20)
	viper.SetDefault("RATE_LIMIT_RESEND_WINDOW", "1h")

	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	viper.SetDefault("CORS_ALLOWED_HEADERS", "Origin,Content-Type,Accept,Authorization,X-Request-ID")
	viper.SetDefault("CORS_EXPOSED_HEADERS", "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,Retry-After")
	viper.SetDefault("CORS_MAX_AGE", 43200)

	viper.SetDefault("ADMIN_SEED_DISPLAY_NAME", "Platform Admin")
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("ENVIRONMENT"),
			MaxBodyBytes: viper.GetInt64("SERVER_MAX_BODY_BYTES"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(viper.GetString("DB_DRIVER")),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
			Issuer:      viper.GetString("JWT_ISSUER"),
		},
		Security: SecurityConfig{
			BcryptCost:       viper.GetInt("BCRYPT_COST"),
			LockoutThreshold: viper.GetInt("LOCKOUT_THRESHOLD"),
			LockoutDuration:  viper.GetDuration("LOCKOUT_DURATION"),
			SetupTokenTTL:    viper.GetDuration("SETUP_TOKEN_TTL"),
			TokenCleanup:     viper.GetDuration("SETUP_TOKEN_CLEANUP_INTERVAL"),
			AppBaseURL:       strings.TrimRight(viper.GetString("APP_BASE_URL"), "/"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		MQTT: MQTTConfig{
			Broker:      viper.GetString("MQTT_BROKER"),
			ClientID:    viper.GetString("MQTT_CLIENT_ID"),
			Username:    viper.GetString("MQTT_USERNAME"),
			Password:    viper.GetString("MQTT_PASSWORD"),
			NotifyTopic: viper.GetString("MQTT_NOTIFY_TOPIC"),
		},
		Notification: NotificationConfig{
			Driver:  strings.ToLower(viper.GetString("NOTIFY_DRIVER")),
			Timeout: viper.GetDuration("NOTIFY_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:     viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst:   viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
			LoginLimit:     viper.GetInt("RATE_LIMIT_LOGIN_LIMIT"),
			LoginWindow:    viper.GetDuration("RATE_LIMIT_LOGIN_WINDOW"),
			RegisterLimit:  viper.GetInt("RATE_LIMIT_REGISTER_LIMIT"),
			RegisterWindow: viper.GetDuration("RATE_LIMIT_REGISTER_WINDOW"),
			ResetLimit:     viper.GetInt("RATE_LIMIT_RESET_LIMIT"),
			ResetWindow:    viper.GetDuration("RATE_LIMIT_RESET_WINDOW"),
			ResendLimit:    viper.GetInt("RATE_LIMIT_RESEND_LIMIT"),
			ResendWindow:   viper.GetDuration("RATE_LIMIT_RESEND_WINDOW"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods:   splitList(viper.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders:   splitList(viper.GetString("CORS_ALLOWED_HEADERS")),
			ExposedHeaders:   splitList(viper.GetString("CORS_EXPOSED_HEADERS")),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
		AdminSeed: AdminSeedConfig{
			Email:       strings.ToLower(strings.TrimSpace(viper.GetString("ADMIN_SEED_EMAIL"))),
			Password:    viper.GetString("ADMIN_SEED_PASSWORD"),
			DisplayName: viper.GetString("ADMIN_SEED_DISPLAY_NAME"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.ExpiryHours <= 0 {
		return errors.New("JWT_EXPIRY_HOURS must be positive")
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Notification.Driver {
	case "log":
	case "smtp":
		if c.SMTP.Host == "" || c.SMTP.From == "" {
			return errors.New("SMTP_HOST and SMTP_FROM are required for the smtp notifier")
		}
	case "mqtt":
		if c.MQTT.Broker == "" {
			return errors.New("MQTT_BROKER is required for the mqtt notifier")
		}
	default:
		return fmt.Errorf("unsupported NOTIFY_DRIVER %q", c.Notification.Driver)
	}

	if c.Security.LockoutThreshold <= 0 || c.Security.LockoutDuration <= 0 {
		return errors.New("lockout threshold and duration must be positive")
	}
	if c.Security.SetupTokenTTL <= 0 {
		return errors.New("SETUP_TOKEN_TTL must be positive")
	}

	return nil
}

func (c *JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
