package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "tourguide-auth", cfg.AppName)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 90*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 10*time.Minute, cfg.PasswordResetTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, MailDirect, cfg.MailTransport)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("PASSWORD_RESET_TTL", "5m")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("MAIL_TRANSPORT", "queue")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 5*time.Minute, cfg.PasswordResetTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, MailQueue, cfg.MailTransport)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "ninety days")
	t.Setenv("BCRYPT_COST", "twelve")
	t.Setenv("RATE_LIMIT_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 90*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.RateLimitEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "empty secret", mutate: func(c *Config) { c.JWTSecret = " " }, wantErr: "JWT_SECRET must not be empty"},
		{name: "default secret in production", mutate: func(c *Config) { c.Env = "production" }, wantErr: "JWT_SECRET must be set in production"},
		{name: "zero token ttl", mutate: func(c *Config) { c.JWTExpiresIn = 0 }, wantErr: "JWT_EXPIRES_IN"},
		{name: "negative reset ttl", mutate: func(c *Config) { c.PasswordResetTTL = -time.Minute }, wantErr: "PASSWORD_RESET_TTL"},
		{name: "unknown store", mutate: func(c *Config) { c.StoreDriver = "mongo" }, wantErr: "STORE_DRIVER"},
		{name: "unknown transport", mutate: func(c *Config) { c.MailTransport = "smtp" }, wantErr: "MAIL_TRANSPORT"},
		{name: "production without reset url", mutate: func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "prod-secret"
		}, wantErr: "RESET_PASSWORD_URL must be set in production"},
		{name: "relative reset url", mutate: func(c *Config) { c.ResetPasswordURL = "/users/resetPassword" }, wantErr: "absolute http(s) URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ProductionWithResetURL(t *testing.T) {
	cfg := Load()
	cfg.Env = "production"
	cfg.JWTSecret = "prod-secret"
	cfg.ResetPasswordURL = "https://tours.example.com/api/v1/users/resetPassword"
	assert.NoError(t, cfg.Validate())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5433", DBName: "tours", DBSSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/tours?sslmode=require", cfg.PostgresDSN())
}
