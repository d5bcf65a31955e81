package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
	"github.com/Freeeeeet/speaking_scheduler/internal/service"
)

type Config struct {
	Environment      string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	DBDSN            string        `mapstructure:"DB_DSN"`
	HTTPPort         string        `mapstructure:"HTTP_PORT"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	JWTTTL           time.Duration `mapstructure:"JWT_TTL"`
	CORSAllowOrigins []string      `mapstructure:"CORS_ALLOW_ORIGINS"`
	TelegramToken    string        `mapstructure:"TELEGRAM_TOKEN"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	Autogen AutogenConfig `mapstructure:",squash"`
}

// AutogenConfig drives the background slot generation job
type AutogenConfig struct {
	Enabled     bool          `mapstructure:"AUTOGEN_ENABLED"`
	Interval    time.Duration `mapstructure:"AUTOGEN_INTERVAL"`
	DaysAhead   int           `mapstructure:"AUTOGEN_DAYS_AHEAD"`
	WindowStart string        `mapstructure:"AUTOGEN_WINDOW_START"`
	WindowEnd   string        `mapstructure:"AUTOGEN_WINDOW_END"`
	SlotMinutes int           `mapstructure:"AUTOGEN_SLOT_MINUTES"`
}

var defaults = map[string]any{
	"ENV":                  "development",
	"LOG_LEVEL":            "info",
	"HTTP_PORT":            "8080",
	"JWT_TTL":              "24h",
	"CORS_ALLOW_ORIGINS":   "*",
	"REDIS_DB":             0,
	"AUTOGEN_ENABLED":      true,
	"AUTOGEN_INTERVAL":     "24h",
	"AUTOGEN_DAYS_AHEAD":   3,
	"AUTOGEN_WINDOW_START": "13:00",
	"AUTOGEN_WINDOW_END":   "16:00",
	"AUTOGEN_SLOT_MINUTES": 15,
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// .env is optional, the environment wins
	_ = godotenv.Load(".env")

	return FromViper(viper.New())
}

// FromViper binds every known key on v and decodes the result.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range []string{"DB_DSN", "JWT_SECRET", "TELEGRAM_TOKEN", "REDIS_ADDR", "REDIS_PASSWORD"} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSAllowOrigins = splitList(cfg.CORSAllowOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required but not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required but not set"))
	}
	if c.Autogen.Enabled {
		if _, err := c.Autogen.Options(); err != nil {
			errs = append(errs, err)
		}
		if c.Autogen.Interval <= 0 {
			errs = append(errs, errors.New("AUTOGEN_INTERVAL must be positive"))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return ":" + c.HTTPPort
}

// Options converts the job settings into service options.
func (a AutogenConfig) Options() (service.AutoGenerateOptions, error) {
	start, err := model.ParseClockTime(a.WindowStart)
	if err != nil {
		return service.AutoGenerateOptions{}, fmt.Errorf("AUTOGEN_WINDOW_START: %w", err)
	}
	end, err := model.ParseClockTime(a.WindowEnd)
	if err != nil {
		return service.AutoGenerateOptions{}, fmt.Errorf("AUTOGEN_WINDOW_END: %w", err)
	}
	if end <= start {
		return service.AutoGenerateOptions{}, errors.New("AUTOGEN_WINDOW_END must be after AUTOGEN_WINDOW_START")
	}
	if a.DaysAhead <= 0 || a.SlotMinutes <= 0 {
		return service.AutoGenerateOptions{}, errors.New("AUTOGEN_DAYS_AHEAD and AUTOGEN_SLOT_MINUTES must be positive")
	}

	return service.AutoGenerateOptions{
		DaysAhead:    a.DaysAhead,
		WindowStart:  start,
		WindowEnd:    end,
		SlotDuration: a.SlotMinutes,
	}, nil
}

// splitList accepts both a real list and a single comma separated value.
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
