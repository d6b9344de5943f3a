package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envAPIKey            = "PLACETOUR_API_KEY"
	envSearchRadius      = "PLACETOUR_SEARCH_RADIUS_M"
	envPhotoMaxWidth     = "PLACETOUR_PHOTO_MAX_WIDTH"
	envPhotoConcurrency  = "PLACETOUR_PHOTO_CONCURRENCY"
	envHTTPMinIntervalMS = "PLACETOUR_HTTP_MIN_INTERVAL_MS"
	envLanguage          = "PLACETOUR_LANGUAGE"
	envLogLevel          = "PLACETOUR_LOG_LEVEL"
	envLogFormat         = "PLACETOUR_LOG_FORMAT"
	envNearbyURL         = "PLACETOUR_NEARBY_URL"
	envPhotoURL          = "PLACETOUR_PHOTO_URL"
	envGeocoderURL       = "PLACETOUR_GEOCODER_URL"

	defaultHTTPMinInterval = 100 * time.Millisecond
	defaultLogLevel        = "warn"
	defaultLogFormat       = "text"
)

// Defaults applied when the environment leaves a setting unset or invalid.
const (
	DefaultSearchRadiusMeters = 1000.0
	DefaultPhotoMaxWidth      = 200
	DefaultPhotoConcurrency   = 4
)

// ErrMissingAPIKey is returned when no provider credential is configured.
var ErrMissingAPIKey = errors.New(envAPIKey + " is not set")

// Settings stores process-wide settings read at startup.
type Settings struct {
	APIKey             string
	SearchRadiusMeters float64
	PhotoMaxWidth      int
	PhotoConcurrency   int
	HTTPMinInterval    time.Duration
	Language           string
	LogLevel           string
	LogFormat          string
	NearbyURL          string
	PhotoURL           string
	GeocoderURL        string
}

// LoadSettings reads an optional .env file and then the environment.
func LoadSettings() Settings {
	_ = godotenv.Load()
	return settingsFromEnv()
}

func settingsFromEnv() Settings {
	return Settings{
		APIKey:             strings.TrimSpace(os.Getenv(envAPIKey)),
		SearchRadiusMeters: positiveFloat(getEnv(envSearchRadius, ""), DefaultSearchRadiusMeters),
		PhotoMaxWidth:      positiveInt(getEnv(envPhotoMaxWidth, ""), DefaultPhotoMaxWidth),
		PhotoConcurrency:   positiveInt(getEnv(envPhotoConcurrency, ""), DefaultPhotoConcurrency),
		HTTPMinInterval:    millis(getEnv(envHTTPMinIntervalMS, ""), defaultHTTPMinInterval),
		Language:           getEnv(envLanguage, ""),
		LogLevel:           getEnv(envLogLevel, defaultLogLevel),
		LogFormat:          getEnv(envLogFormat, defaultLogFormat),
		NearbyURL:          getEnv(envNearbyURL, ""),
		PhotoURL:           getEnv(envPhotoURL, ""),
		GeocoderURL:        getEnv(envGeocoderURL, ""),
	}
}

// Validate reports settings that make provider calls impossible.
func (s Settings) Validate() error {
	if s.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func positiveFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func positiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func millis(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
