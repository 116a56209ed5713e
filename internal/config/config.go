package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/radu9120/ZeroDue-sub000/internal/domain/admission"
	"github.com/radu9120/ZeroDue-sub000/internal/types"
	"github.com/spf13/viper"
)

// The professional monthly allowance has exactly one definition. Every call
// site reads it through AdmissionConfig.ProfessionalMonthlyLimit.
const (
	DefaultProfessionalMonthlyLimit = admission.DefaultProfessionalMonthly
	DefaultFreeLifetimeLimit        = admission.DefaultFreeLifetime
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging" validate:"required"`
	Postgres   PostgresConfig   `mapstructure:"postgres" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Admission  AdmissionConfig  `mapstructure:"admission" validate:"required"`
	Backend    BackendConfig    `mapstructure:"backend" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Pyroscope  PyroscopeConfig  `mapstructure:"pyroscope"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Event      EventConfig      `mapstructure:"event"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	// Secret is the HMAC secret the identity provider signs JWTs with
	Secret      string `mapstructure:"secret"`
	AdminAPIKey string `mapstructure:"admin_api_key"`
}

type AdmissionConfig struct {
	FreeLifetimeLimit        int                  `mapstructure:"free_lifetime_limit" validate:"gte=0"`
	ProfessionalMonthlyLimit int                  `mapstructure:"professional_monthly_limit" validate:"gte=0"`
	ProfessionalScope        types.UsageScopeKind `mapstructure:"professional_scope" validate:"required,oneof=business owner"`
	Timezone                 string               `mapstructure:"timezone" validate:"required"`
	SequenceMaxAttempts      int                  `mapstructure:"sequence_max_attempts" validate:"gte=1"`
}

// Limits returns the plan policy thresholds
func (c AdmissionConfig) Limits() admission.Limits {
	return admission.NewLimits(c.FreeLifetimeLimit, c.ProfessionalMonthlyLimit, c.ProfessionalScope)
}

// Location resolves the time zone the monthly window is evaluated in
func (c AdmissionConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type BackendConfig struct {
	Timeout              time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RetryMaxAttempts     int           `mapstructure:"retry_max_attempts" validate:"gte=1"`
	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
}

type CacheConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	UsageSnapshotTTL time.Duration `mapstructure:"usage_snapshot_ttl"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type PyroscopeConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	ServerAddress   string   `mapstructure:"server_address"`
	ApplicationName string   `mapstructure:"application_name"`
	BasicAuthUser   string   `mapstructure:"basic_auth_user"`
	BasicAuthPass   string   `mapstructure:"basic_auth_pass"`
	SampleRate      uint32   `mapstructure:"sample_rate"`
	ProfileTypes    []string `mapstructure:"profile_types"`
	DisableGCRuns   bool     `mapstructure:"disable_gc_runs"`
}

type StripeConfig struct {
	WebhookSecret string             `mapstructure:"webhook_secret"`
	PricePlans    []PricePlanMapping `mapstructure:"price_plans"`
}

// PricePlanMapping maps a Stripe price to the plan tier it grants.
// It is a list rather than a map because viper lowercases map keys.
type PricePlanMapping struct {
	PriceID string         `mapstructure:"price_id"`
	Plan    types.PlanTier `mapstructure:"plan"`
}

// PlanForPrice returns the plan tier configured for a Stripe price id
func (c StripeConfig) PlanForPrice(priceID string) (types.PlanTier, bool) {
	for _, m := range c.PricePlans {
		if m.PriceID == priceID {
			return m.Plan, true
		}
	}
	return "", false
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/zerodue")

	v.SetEnvPrefix("ZERODUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "zerodue")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "zerodue")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("postgres.auto_migrate", false)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.admin_api_key", "")

	v.SetDefault("admission.free_lifetime_limit", DefaultFreeLifetimeLimit)
	v.SetDefault("admission.professional_monthly_limit", DefaultProfessionalMonthlyLimit)
	v.SetDefault("admission.professional_scope", types.UsageScopeBusiness)
	v.SetDefault("admission.timezone", "UTC")
	v.SetDefault("admission.sequence_max_attempts", 3)

	v.SetDefault("backend.timeout", 5*time.Second)
	v.SetDefault("backend.retry_max_attempts", 3)
	v.SetDefault("backend.retry_initial_interval", 100*time.Millisecond)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.usage_snapshot_ttl", 10*time.Second)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.sample_rate", 0.1)
	v.SetDefault("pyroscope.enabled", false)
	v.SetDefault("pyroscope.application_name", "zerodue")
	v.SetDefault("pyroscope.sample_rate", 100)

	v.SetDefault("stripe.webhook_secret", "")

	v.SetDefault("event.backend", types.PubSubMemory)
	v.SetDefault("event.topic", "zerodue.events")
	v.SetDefault("kafka.client_id", "zerodue")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Admission.Location(); err != nil {
		return fmt.Errorf("invalid admission timezone %q: %w", c.Admission.Timezone, err)
	}
	if c.Deployment.Mode != types.ModeLocal && c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("stripe.webhook_secret is required in %s mode", c.Deployment.Mode)
	}
	for _, m := range c.Stripe.PricePlans {
		if err := m.Plan.Validate(); err != nil {
			return fmt.Errorf("invalid plan for stripe price %s: %w", m.PriceID, err)
		}
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts, tests or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Admission: AdmissionConfig{
			FreeLifetimeLimit:        DefaultFreeLifetimeLimit,
			ProfessionalMonthlyLimit: DefaultProfessionalMonthlyLimit,
			ProfessionalScope:        types.UsageScopeBusiness,
			Timezone:                 "UTC",
			SequenceMaxAttempts:      3,
		},
		Backend: BackendConfig{
			Timeout:              5 * time.Second,
			RetryMaxAttempts:     3,
			RetryInitialInterval: 100 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled:          true,
			UsageSnapshotTTL: 10 * time.Second,
		},
		Event: EventConfig{
			Backend: types.PubSubMemory,
			Topic:   "zerodue.events",
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
