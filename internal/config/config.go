package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AMQPURL       string

	AuthSecret            string
	AccessTokenTTLMinutes int

	RowCacheTTLSeconds     int
	CatalogCacheTTLSeconds int
	FetchMinIntervalMillis int
	BreakerThreshold       int
	BreakerCooldownSeconds int

	NosCeiling int
	KgCeiling  float64

	NotifyMaxAttempts    int
	NotifyBaseDelayMilli int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		AMQPURL:       os.Getenv("AMQP_URL"),

		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 480),

		RowCacheTTLSeconds:     getEnvInt("ROW_CACHE_TTL_SECONDS", 30),
		CatalogCacheTTLSeconds: getEnvInt("CATALOG_CACHE_TTL_SECONDS", 600),
		FetchMinIntervalMillis: getEnvInt("FETCH_MIN_INTERVAL_MILLIS", 4000),
		BreakerThreshold:       getEnvInt("BREAKER_THRESHOLD", 3),
		BreakerCooldownSeconds: getEnvInt("BREAKER_COOLDOWN_SECONDS", 300),

		NosCeiling: getEnvInt("NOS_CEILING", 20),
		KgCeiling:  getEnvFloat("KG_CEILING", 10.0),

		NotifyMaxAttempts:    getEnvInt("NOTIFY_MAX_ATTEMPTS", 5),
		NotifyBaseDelayMilli: getEnvInt("NOTIFY_BASE_DELAY_MILLIS", 500),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) RowCacheTTL() time.Duration {
	return time.Duration(c.RowCacheTTLSeconds) * time.Second
}

func (c Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLSeconds) * time.Second
}

func (c Config) FetchMinInterval() time.Duration {
	return time.Duration(c.FetchMinIntervalMillis) * time.Millisecond
}

func (c Config) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSeconds) * time.Second
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || val < 1 {
		return fallback
	}
	return val
}

func getEnvFloat(key string, fallback float64) float64 {
	val, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}
