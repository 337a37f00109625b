package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8081",
			AppEnv:         "development",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{Driver: StoreDriverMemory},
		Auth:     AuthConfig{JWTSecret: "dev-secret"},
		Booking:  BookingConfig{ReminderLeadHours: 24, MatchLimitDefault: 10, MatchLimitMax: 50},
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{
			name:     "development environment",
			config:   &Config{Server: ServerConfig{AppEnv: "development"}},
			expected: true,
		},
		{
			name:     "debug gin mode",
			config:   &Config{Server: ServerConfig{GinMode: "debug"}},
			expected: true,
		},
		{
			name:     "production environment",
			config:   &Config{Server: ServerConfig{AppEnv: "production"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsDevelopment())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid memory config",
			mutate: func(c *Config) {},
		},
		{
			name: "postgres without url",
			mutate: func(c *Config) {
				c.Database.Driver = StoreDriverPostgres
			},
			wantErr: "DATABASE_URL",
		},
		{
			name: "mongo without url",
			mutate: func(c *Config) {
				c.Database.Driver = StoreDriverMongo
			},
			wantErr: "MONGO_URL",
		},
		{
			name: "unknown driver",
			mutate: func(c *Config) {
				c.Database.Driver = "sqlite"
			},
			wantErr: "unsupported STORE_DRIVER",
		},
		{
			name: "memory store in production",
			mutate: func(c *Config) {
				c.Server.AppEnv = "production"
			},
			wantErr: "not allowed in production",
		},
		{
			name: "missing jwt secret",
			mutate: func(c *Config) {
				c.Auth.JWTSecret = ""
			},
			wantErr: "JWT_SECRET",
		},
		{
			name: "short jwt secret in production",
			mutate: func(c *Config) {
				c.Server.AppEnv = "production"
				c.Database = DatabaseConfig{Driver: StoreDriverPostgres, URL: "postgres://db/x"}
			},
			wantErr: "at least 32 characters",
		},
		{
			name: "match limit above max",
			mutate: func(c *Config) {
				c.Booking.MatchLimitDefault = 100
			},
			wantErr: "MATCH_LIMIT_DEFAULT",
		},
		{
			name: "profiling without endpoint",
			mutate: func(c *Config) {
				c.Profiling.Enabled = true
			},
			wantErr: "O11Y_PROFILING_ENDPOINT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("JWT_SECRET", "local-secret")
	t.Setenv("ALLOWED_CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MATCH_LIMIT_MAX", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, StoreDriverMemory, cfg.Database.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 1, cfg.Redis.QueueDB)
	assert.Equal(t, 10, cfg.Booking.MatchLimitDefault)
	assert.Equal(t, 20, cfg.Booking.MatchLimitMax)
	assert.Equal(t, 24, cfg.Booking.ReminderLeadHours)
	assert.False(t, cfg.Storage.Enabled())
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "local-secret")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
