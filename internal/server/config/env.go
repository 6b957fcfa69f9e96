package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/projecthub/projecthub/internal/flagx"
)

// parseEnv loads a dotenv file and overlays environment variables onto config.
//
// The file named by -env is mandatory once given and a failure to read it
// panics; otherwise ./.env is loaded if present. Variables already set in the
// process environment win over the file.
//
// Recognised variables: HTTP_ADDR, GRPC_ADDR, DATABASE_DSN, SECRET_KEY,
// SESSION_VALIDITY, COOKIE_NAME, COOKIE_SECURE, CORS_ORIGINS,
// RATE_LIMIT_ENABLED, RATE_LIMIT_RPS, RATE_LIMIT_BURST, LOG_LEVEL.
func parseEnv(config *Config) {
	if path := flagx.ConfigFileFlags().Env; path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	config.EndpointAddrHTTP = getEnv("HTTP_ADDR", config.EndpointAddrHTTP)
	config.EndpointAddrGRPC = getEnv("GRPC_ADDR", config.EndpointAddrGRPC)
	config.DatabaseDSN = getEnv("DATABASE_DSN", config.DatabaseDSN)
	config.SecretKey = getEnv("SECRET_KEY", config.SecretKey)
	config.SessionValidityDuration = getEnvAsDuration("SESSION_VALIDITY", config.SessionValidityDuration)
	config.CookieName = getEnv("COOKIE_NAME", config.CookieName)
	config.CookieSecure = getEnvAsBool("COOKIE_SECURE", config.CookieSecure)
	config.CORSOrigins = getEnvAsList("CORS_ORIGINS", config.CORSOrigins)
	config.RateLimitEnabled = getEnvAsBool("RATE_LIMIT_ENABLED", config.RateLimitEnabled)
	config.RateLimitRPS = getEnvAsFloat("RATE_LIMIT_RPS", config.RateLimitRPS)
	config.RateLimitBurst = getEnvAsInt("RATE_LIMIT_BURST", config.RateLimitBurst)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return duration
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blanks and trailing
// slashes from origins.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	return splitList(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if v := strings.TrimRight(strings.TrimSpace(p), "/"); v != "" {
			out = append(out, v)
		}
	}
	return out
}
