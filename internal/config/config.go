package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	MongoURI       string
	MongoDatabase  string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	KafkaBrokers []string

	BreakerFailures    int
	BreakerOpenTimeout time.Duration
	ConflictRetries    int

	ServiceVersion   string
	TraceExport      bool
	TraceEndpoint    string
	TraceInsecure    bool
	TraceHeaders     map[string]string
	TraceSampleRatio float64
}

func Load() Config {
	return Config{
		AppEnv:             getEnv("APP_ENV", "dev"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)), // 1MB
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DB", "store"),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "internal/repository/migrations"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		SessionTTL:         getEnvDuration("SESSION_TTL", 24*time.Hour),
		KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
		BreakerFailures:    getEnvInt("BREAKER_FAILURES", 5),
		BreakerOpenTimeout: getEnvDuration("BREAKER_OPEN_TIMEOUT", 10*time.Second),
		ConflictRetries:    getEnvInt("CART_CONFLICT_RETRIES", 3),
		ServiceVersion:     getEnv("SERVICE_VERSION", "dev"),
		TraceExport:        getEnvBool("OTEL_ENABLED", false),
		TraceEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceInsecure:      getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceHeaders:       getEnvMap("OTEL_EXPORTER_OTLP_HEADERS"),
		TraceSampleRatio:   getEnvFloat("OTEL_SAMPLER_RATIO", 0.1),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// getEnvMap parses key=value pairs separated by commas.
func getEnvMap(key string) map[string]string {
	var out map[string]string
	for _, part := range getEnvList(key) {
		k, v, ok := strings.Cut(part, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[k] = v
	}
	return out
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
