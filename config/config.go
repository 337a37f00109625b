package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	Storage       StorageConfig
	Auth          AuthConfig
	EventTriggers EventTriggersConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
	Cache         CacheConfig
	Booking       BookingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver     string
	URL        string
	MaxConns   int32
	MinConns   int32
	CACertPath string

	TLSServerName string
}

type MongoConfig struct {
	URL      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	QueueDB  int
}

// Enabled reports whether a Redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type StorageConfig struct {
	AccessKeyID       string
	SecretAccessKey   string
	BucketName        string
	Endpoint          string
	Region            string
	PresignTTLSeconds int
}

// Enabled reports whether payment slip storage is configured
func (s StorageConfig) Enabled() bool {
	return s.BucketName != "" && s.AccessKeyID != "" && s.SecretAccessKey != ""
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	SessionTTLHours int
	CookieDomain    string
	CookieSecure    bool

	// Guards /api/internal operator endpoints. Empty disables them.
	InternalAPIToken string
}

type EventTriggersConfig struct {
	BookingCreatedTriggerURL   string
	BookingCancelledTriggerURL string
	ReminderTriggerURL         string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

type CacheConfig struct {
	CandidateTTLSeconds int  // active mentors + sessions snapshot
	MatchTTLSeconds     int  // per-student ranked results in Redis
	DisableCandidates   bool // read candidates from the store on every request
}

type BookingConfig struct {
	ReminderLeadHours int
	MatchLimitDefault int
	MatchLimitMax     int
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://mentorhub.app")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MONGO_DATABASE", "mentorhub")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_PRESIGN_TTL_SECONDS", 900)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_BE_SERVICE_NAME", "mentorhub-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "mentorhub")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "mentorhub-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,goroutines,mutex")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)
	v.SetDefault("CANDIDATE_CACHE_TTL", 300)
	v.SetDefault("MATCH_CACHE_TTL", 60)
	v.SetDefault("DISABLE_CANDIDATE_CACHE", false)
	v.SetDefault("REMINDER_LEAD_HOURS", 24)
	v.SetDefault("MATCH_LIMIT_DEFAULT", 10)
	v.SetDefault("MATCH_LIMIT_MAX", 50)
	v.SetDefault("JWT_ISSUER", "mentorhub-api")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // .env is optional

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
			URL:        v.GetString("DATABASE_URL"),
			MaxConns:   v.GetInt32("DB_MAX_CONNS"),
			MinConns:   v.GetInt32("DB_MIN_CONNS"),
			CACertPath: v.GetString("DATABASE_CA_CERT"),

			TLSServerName: v.GetString("DATABASE_TLS_SERVER_NAME"),
		},
		Mongo: MongoConfig{
			URL:      v.GetString("MONGO_URL"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			QueueDB:  v.GetInt("REDIS_QUEUE_DB"),
		},
		Storage: StorageConfig{
			AccessKeyID:       v.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey:   v.GetString("STORAGE_SECRET_ACCESS_KEY"),
			BucketName:        v.GetString("STORAGE_BUCKET_NAME"),
			Endpoint:          v.GetString("STORAGE_ENDPOINT"),
			Region:            v.GetString("STORAGE_REGION"),
			PresignTTLSeconds: v.GetInt("STORAGE_PRESIGN_TTL_SECONDS"),
		},
		Auth: AuthConfig{
			JWTSecret:       v.GetString("JWT_SECRET"),
			JWTIssuer:       v.GetString("JWT_ISSUER"),
			SessionTTLHours: v.GetInt("SESSION_TTL_HOURS"),
			CookieDomain:    v.GetString("COOKIE_DOMAIN"),
			CookieSecure:    v.GetBool("COOKIE_SECURE"),

			InternalAPIToken: v.GetString("INTERNAL_API_TOKEN"),
		},
		EventTriggers: EventTriggersConfig{
			BookingCreatedTriggerURL:   v.GetString("BOOKING_CREATED_TRIGGER_URL"),
			BookingCancelledTriggerURL: v.GetString("BOOKING_CANCELLED_TRIGGER_URL"),
			ReminderTriggerURL:         v.GetString("REMINDER_TRIGGER_URL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		Cache: CacheConfig{
			CandidateTTLSeconds: v.GetInt("CANDIDATE_CACHE_TTL"),
			MatchTTLSeconds:     v.GetInt("MATCH_CACHE_TTL"),
			DisableCandidates:   v.GetBool("DISABLE_CANDIDATE_CACHE"),
		},
		Booking: BookingConfig{
			ReminderLeadHours: v.GetInt("REMINDER_LEAD_HOURS"),
			MatchLimitDefault: v.GetInt("MATCH_LIMIT_DEFAULT"),
			MatchLimitMax:     v.GetInt("MATCH_LIMIT_MAX"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreDriverMongo:
		if c.Mongo.URL == "" {
			return fmt.Errorf("MONGO_URL is required for the mongo store")
		}
	case StoreDriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.Booking.MatchLimitDefault <= 0 || c.Booking.MatchLimitMax < c.Booking.MatchLimitDefault {
		return fmt.Errorf("MATCH_LIMIT_DEFAULT must be positive and not exceed MATCH_LIMIT_MAX")
	}
	if c.Booking.ReminderLeadHours < 0 {
		return fmt.Errorf("REMINDER_LEAD_HOURS must not be negative")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}
