// Package config loads broadcaster/admin-surface settings from the
// environment.
package config

import (
	"os"
	"strconv"
)

// Config holds every tunable the broadcast binary needs. CLI flags (see
// internal/cli) override these when explicitly set; env vars supply the
// defaults so the binary is container-friendly out of the box.
type Config struct {
	StationName string
	StationDesc string

	// Source selects what C1 decodes. Exactly one of MusicFile / InputDevice
	// is honored at a time; MusicFile wins if both are set.
	MusicFile   string
	InputDevice string

	Bitrate    string // nominal, reported only — e.g. "128000"
	SampleRate int    // target encoder rate, e.g. 44100
	Channels   int    // target channel count, 1 or 2

	QUICAddr    string // host:port the broadcaster's QUIC listener binds
	AdminAddr   string // host:port the admin HTTP surface binds, "" disables it
	MaxClients  int
	StallAfter  int // seconds with no network-write progress before a listener is dropped
	BusCapacity int // K in the PCM/chat fan-out bus

	AdminUsername string
	AdminPassword string
	JWTSecret     string
}

func Load() *Config {
	return &Config{
		StationName:   getEnv("STATION_NAME", "ZelFM"),
		StationDesc:   getEnv("STATION_DESC", ""),
		MusicFile:     getEnv("MUSIC_FILE", ""),
		InputDevice:   getEnv("INPUT_DEVICE", ""),
		Bitrate:       getEnv("BITRATE", "128000"),
		SampleRate:    getEnvAsInt("SAMPLE_RATE", 44100),
		Channels:      getEnvAsInt("CHANNELS", 2),
		QUICAddr:      getEnv("QUIC_ADDR", ":4433"),
		AdminAddr:     getEnv("ADMIN_ADDR", ":8080"),
		MaxClients:    getEnvAsInt("MAX_CLIENTS", 200),
		StallAfter:    getEnvAsInt("STALL_AFTER_SECONDS", 30),
		BusCapacity:   getEnvAsInt("BUS_CAPACITY", 100),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "zelfm"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production-please"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}
