package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database:     DatabaseConfig{Driver: "memory"},
		JWT:          JWTConfig{Secret: "s3cret", ExpiryHours: 24},
		Notification: NotificationConfig{Driver: "log"},
		Security: SecurityConfig{
			LockoutThreshold: 5,
			LockoutDuration:  2 * time.Hour,
			SetupTokenTTL:    24 * time.Hour,
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"smtp without host", func(c *Config) { c.Notification.Driver = "smtp" }},
		{"mqtt without broker", func(c *Config) { c.Notification.Driver = "mqtt" }},
		{"zero lockout", func(c *Config) { c.Security.LockoutThreshold = 0 }},
		{"zero token ttl", func(c *Config) { c.Security.SetupTokenTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("LOCKOUT_DURATION", "30m")
	t.Setenv("ADMIN_SEED_EMAIL", " Root@Example.com ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Security.LockoutDuration)
	assert.Equal(t, time.Hour, cfg.Security.TokenCleanup)
	assert.Equal(t, 5, cfg.Security.LockoutThreshold)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry())
	assert.Equal(t, "root@example.com", cfg.AdminSeed.Email)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", db.DSN())
}
