package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds gateway settings.
type Config struct {
	Port              string
	NATSURL           string // empty disables NATS publishing
	NATSSubjectPrefix string
	ScheduleFile      string
	LogLevel          zerolog.Level
}

// Load reads a .env file if present and then builds the Config from the
// environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}
	return NewConfigFromEnv()
}

// NewConfigFromEnv reads environment variables (with defaults).
func NewConfigFromEnv() Config {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return Config{
		Port:              getEnv("GATEWAY_PORT", "8081"),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "live.events"),
		ScheduleFile:      getEnv("SCHEDULE_FILE", "schedule.yaml"),
		LogLevel:          level,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

