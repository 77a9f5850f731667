package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel string

	DBDriver   string
	SQLitePath string
	Postgres   DBConfig

	FrameSource    string
	DevicePath     string
	MQTTBrokerURL  string
	MQTTFrameTopic string
	MQTTClientID   string

	ReadInterval time.Duration
}

type DBConfig struct {
	User     string
	Password string
	DBName   string
	Host     string
	Port     string
	SSLMode  string
}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("TELEMETRYD_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		SQLitePath: getEnv("SQLITE_PATH", "rdp.db"),
		Postgres: DBConfig{
			User:     strings.TrimSpace(os.Getenv("POSTGRES_USER")),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   strings.TrimSpace(os.Getenv("POSTGRES_DB")),
			Host:     strings.TrimSpace(os.Getenv("POSTGRES_HOST")),
			Port:     strings.TrimSpace(os.Getenv("POSTGRES_PORT")),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},

		FrameSource:    strings.ToLower(getEnv("FRAME_SOURCE", "device")),
		DevicePath:     getEnv("SENSOR_DEVICE_PATH", "/dev/rdp_cdev"),
		MQTTBrokerURL:  strings.TrimSpace(os.Getenv("MQTT_BROKER_URL")),
		MQTTFrameTopic: getEnv("MQTT_FRAME_TOPIC", "telemetryd/frames"),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", ""),

		ReadInterval: time.Duration(getEnvInt("READ_INTERVAL_MS", 100)) * time.Millisecond,
	}

	slog.Info("telemetryd config loaded", "port", cfg.Port, "db_driver", cfg.DBDriver, "frame_source", cfg.FrameSource)
	return cfg
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env, using default", "key", k, "value", v, "default", def)
		return def
	}
	return n
}
