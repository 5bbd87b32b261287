package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/i474232898/weather-agent/internal/decision"
	"github.com/i474232898/weather-agent/internal/llm"
	"github.com/i474232898/weather-agent/internal/weather"
)

const (
	defaultCity      = "Chennai"
	defaultCountry   = "India"
	defaultLatitude  = 13.0827
	defaultLongitude = 80.2707
	defaultTimezone  = "Asia/Kolkata"
	defaultModel     = "gpt-4o-mini"
)

var validate = validator.New()

type AppConfig struct {
	City      string  `validate:"required"`
	Country   string
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
	Timezone  string  `validate:"required,timezone"`

	// HasCoordinates is false when neither AGENT_LATITUDE nor
	// AGENT_LONGITUDE was set, so the location may be geocoded.
	HasCoordinates bool
	GeocoderAPIKey string

	OpenAIModel    string        `validate:"required"`
	OpenAIAPIKey   string
	OpenAIBaseURL  string        `validate:"required,url"`
	LLMTimeout     time.Duration `validate:"gt=0"`
	LLMTemperature float64       `validate:"gte=0,lte=2"`

	WeatherTimeout time.Duration `validate:"gt=0"`

	Iterations int           `validate:"min=1"`
	Sleep      time.Duration `validate:"gte=0"`

	// Schedule is an optional standard 5-field cron expression.
	Schedule string
	// HTTPAddr enables the read-only memory API when set.
	HTTPAddr string

	ValidateDecision bool
}

// Load reads configuration from environment (and an optional .env file)
// with defaults for the Chennai demo location.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	cfg := &AppConfig{}

	cfg.City = getenvDefault("AGENT_CITY", defaultCity)
	cfg.Country = getenvDefault("AGENT_COUNTRY", defaultCountry)
	cfg.Timezone = getenvDefault("AGENT_TIMEZONE", defaultTimezone)
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	latStr, lonStr := os.Getenv("AGENT_LATITUDE"), os.Getenv("AGENT_LONGITUDE")
	cfg.HasCoordinates = latStr != "" || lonStr != ""
	var err error
	if cfg.Latitude, err = getenvFloat("AGENT_LATITUDE", defaultLatitude); err != nil {
		return nil, err
	}
	if cfg.Longitude, err = getenvFloat("AGENT_LONGITUDE", defaultLongitude); err != nil {
		return nil, err
	}

	cfg.OpenAIModel = getenvDefault("OPENAI_MODEL", defaultModel)
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIBaseURL = getenvDefault("OPENAI_BASE_URL", llm.DefaultOpenAIBaseURL)
	if cfg.LLMTimeout, err = getenvDuration("LLM_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.LLMTemperature, err = getenvFloat("LLM_TEMPERATURE", 0.2); err != nil {
		return nil, err
	}
	if cfg.WeatherTimeout, err = getenvDuration("WEATHER_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	if cfg.Iterations, err = getenvInt("AGENT_ITERATIONS", 1); err != nil {
		return nil, err
	}
	if cfg.Sleep, err = getenvDuration("AGENT_SLEEP", "0s"); err != nil {
		return nil, err
	}
	cfg.Schedule = os.Getenv("AGENT_SCHEDULE")
	cfg.HTTPAddr = os.Getenv("AGENT_HTTP_ADDR")
	cfg.ValidateDecision = getenvBool("AGENT_VALIDATE_DECISION", decision.DefaultValidate)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the cron schedule.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid AGENT_SCHEDULE: %w", err)
		}
	}
	return nil
}

// Location returns the watched location.
func (c *AppConfig) Location() weather.Location {
	return weather.Location{
		City:      c.City,
		Country:   c.Country,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Timezone:  c.Timezone,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
