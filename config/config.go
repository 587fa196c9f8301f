package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"carwash-backend/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env         string
	Port        string
	TimeZone    string
	CORSOrigins []string

	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	Redis     RedisConfig
	Twilio    TwilioConfig
	Reminders ReminderConfig
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

type RedisConfig struct {
	Addr     string // empty disables the dashboard cache
	Password string
	DB       int
	TTL      time.Duration
}

// TwilioConfig holds the reminder sender credentials. DefaultCountryCode
// prefixes local numbers before they are sent.
type TwilioConfig struct {
	AccountSID         string
	AuthToken          string
	PhoneNumber        string
	WhatsAppNumber     string
	DefaultCountryCode string
}

func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != ""
}

type ReminderConfig struct {
	Enabled bool
	Cron    string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TokenTTL is the lifetime of issued bearer tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.ExpiryHours) * time.Hour
}

// env names kept compatible with existing deployments
var envBindings = map[string]string{
	"env":                    "APP_ENV",
	"port":                   "PORT",
	"timezone":               "TIMEZONE",
	"cors_origins":           "CORS_ORIGINS",
	"database.driver":        "DB_DRIVER",
	"database.url":           "DB_URL",
	"database.max_open":      "DB_MAX_OPEN_CONNS",
	"database.max_idle":      "DB_MAX_IDLE_CONNS",
	"jwt.secret":             "JWT_SECRET",
	"jwt.expiry_hours":       "JWT_EXPIRY_HOURS",
	"log.level":              "LOG_LEVEL",
	"log.format":             "LOG_FORMAT",
	"redis.addr":             "REDIS_ADDR",
	"redis.password":         "REDIS_PASSWORD",
	"redis.db":               "REDIS_DB",
	"redis.ttl":              "REDIS_TTL",
	"twilio.account_sid":     "TWILIO_ACCOUNT_SID",
	"twilio.auth_token":      "TWILIO_AUTH_TOKEN",
	"twilio.phone_number":    "TWILIO_PHONE_NUMBER",
	"twilio.whatsapp_number": "TWILIO_WHATSAPP_NUMBER",
	"twilio.country_code":    "TWILIO_DEFAULT_COUNTRY_CODE",
	"reminders.enabled":      "REMINDERS_ENABLED",
	"reminders.cron":         "REMINDERS_CRON",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open", 25)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("redis.ttl", 2*time.Minute)
	v.SetDefault("twilio.country_code", "+91")
	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.cron", "0 18 * * *")
}

// Load reads .env, then an optional config.yaml, then the environment.
// Environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Env:         v.GetString("env"),
		Port:        v.GetString("port"),
		TimeZone:    v.GetString("timezone"),
		CORSOrigins: splitList(v.GetStringSlice("cors_origins")),
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("database.driver")),
			URL:          v.GetString("database.url"),
			MaxOpenConns: v.GetInt("database.max_open"),
			MaxIdleConns: v.GetInt("database.max_idle"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("jwt.secret"),
			ExpiryHours: v.GetInt("jwt.expiry_hours"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		Twilio: TwilioConfig{
			AccountSID:         v.GetString("twilio.account_sid"),
			AuthToken:          v.GetString("twilio.auth_token"),
			PhoneNumber:        v.GetString("twilio.phone_number"),
			WhatsAppNumber:     v.GetString("twilio.whatsapp_number"),
			DefaultCountryCode: v.GetString("twilio.country_code"),
		},
		Reminders: ReminderConfig{
			Enabled: v.GetBool("reminders.enabled"),
			Cron:    v.GetString("reminders.cron"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		// throwaway secret: tokens do not survive a restart
		c.JWT.Secret = utils.GenerateJWTSecret()
	}
	if c.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive, got %d", c.JWT.ExpiryHours)
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("DB_URL is required for the postgres driver")
		}
	case "sqlite":
		if c.Database.URL == "" {
			c.Database.URL = "carwash.db"
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

// splitList accepts both YAML lists and a single comma-separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
