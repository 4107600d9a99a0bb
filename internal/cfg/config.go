package cfg

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string

	// Ingestion limits.
	MaxFiles          int
	MaxTotalSizeBytes int64
	MaxDirectoryDepth int
	TempDir           string
	CloneTimeout      time.Duration

	// GitHub access.
	GitHubPAT string
	StarRepo  string

	// Object storage for digest uploads. Upload is disabled when Bucket is empty.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3Bucket    string
	S3UseSSL    bool
	S3PublicURL string

	// Rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RedisAddr         string
	RedisPassword     string

	// Ingest event stream. Disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Ingest history store. Disabled when DatabaseURL is empty.
	DatabaseURL string

	AllowedHosts []string

	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func Load() Config {
	_ = godotenv.Load(".env")

	return Config{
		HTTPPort: getEnv("HTTP_PORT", "8000"),

		MaxFiles:          getEnvInt("GITTODOC_MAX_FILES", 1000),
		MaxTotalSizeBytes: int64(getEnvInt("GITTODOC_MAX_TOTAL_SIZE_MB", 50)) * 1024 * 1024,
		MaxDirectoryDepth: getEnvInt("GITTODOC_MAX_DIRECTORY_DEPTH", 10),
		TempDir:           getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "gittodoc")),
		CloneTimeout:      getEnvDuration("CLONE_TIMEOUT", 60*time.Second),

		GitHubPAT: os.Getenv("GITHUB_PAT"),
		StarRepo:  getEnv("STAR_REPO", "filiksyos/gittodoc"),

		S3Endpoint:  getEnv("S3_ENDPOINT", "s3.amazonaws.com"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    os.Getenv("GITTODOC_S3_BUCKET"),
		S3UseSSL:    getEnvBool("S3_USE_SSL", true),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers: parseCSVEnv("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "gittodoc.ingests"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AllowedHosts: parseCSVEnv("ALLOWED_HOSTS"),

		ReadTimeout:         getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:        getEnvDuration("WRITE_TIMEOUT", 2*time.Minute),
		IdleTimeout:         getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownGracePeriod: getEnvDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.TrimSpace(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseCSVEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
