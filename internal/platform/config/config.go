package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more
// paths to load from specific files (e.g. ".env"); with no paths, ".env"
// is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or
// fallback if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by
// key, or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvSeconds returns the value of the environment variable named by key
// interpreted as a whole number of seconds, or fallback if the variable is
// unset, empty, or not a valid integer.
func GetEnvSeconds(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

// StreamSettings carries the process-wide broadcast defaults, read once at
// startup. Per-tenant overrides take precedence at resolve time.
type StreamSettings struct {
	DefaultStreamKey string
	DefaultEndpoint  string
	VideoBitrate     string
	Resolution       string
	FPS              string
	AudioBitrate     string
}

// LoadStreamSettings reads the broadcast defaults from the environment.
func LoadStreamSettings() StreamSettings {
	return StreamSettings{
		DefaultStreamKey: GetEnv("YOUTUBE_STREAM_KEY", ""),
		DefaultEndpoint:  GetEnv("YOUTUBE_RTMP_URL", ""),
		VideoBitrate:     GetEnv("VIDEO_BITRATE", "2500k"),
		Resolution:       GetEnv("VIDEO_RESOLUTION", "1920x1080"),
		FPS:              GetEnv("FPS", "30"),
		AudioBitrate:     GetEnv("AUDIO_BITRATE", "128k"),
	}
}
