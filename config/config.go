package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/croftbox/vidpipe/internal/domain"
	"github.com/croftbox/vidpipe/internal/validation"
)

type Config struct {
	Port            int
	DataDir         string
	MaxUploadSizeMB int
	AllowedOrigins  []string

	// Pipeline
	AllowedMIMETypes  []string
	Profiles          []domain.TranscodeProfile
	WorkerPoolSize    int
	RetryMaxAttempts  int
	RetryBaseDelay    time.Duration
	RetryMaxDelay     time.Duration
	ScanTimeout       time.Duration
	CallerWaitTimeout time.Duration
	MaxProcessingTime time.Duration
	ProgressRetention time.Duration

	// Collaborators
	ClamdAddr       string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3UseSSL        bool
	S3PublicBaseURL string
	RedisAddr       string
	RedisPassword   string
	RedisChannel    string
	RedisDB         int
}

func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	maxUploadSizeMB, err := intEnv("MAX_UPLOAD_SIZE_MB", 500)
	if err != nil {
		return nil, err
	}
	workers, err := intEnv("TRANSCODE_WORKERS", 2)
	if err != nil {
		return nil, err
	}
	retryAttempts, err := intEnv("RETRY_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	retryBase, err := durationEnv("RETRY_BASE_DELAY", time.Second)
	if err != nil {
		return nil, err
	}
	retryMax, err := durationEnv("RETRY_MAX_DELAY", 30*time.Second)
	if err != nil {
		return nil, err
	}
	scanTimeout, err := durationEnv("SCAN_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	callerWait, err := durationEnv("CALLER_WAIT_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	maxProcessing, err := durationEnv("MAX_PROCESSING_TIME", time.Hour)
	if err != nil {
		return nil, err
	}
	progressRetention, err := durationEnv("PROGRESS_RETENTION", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	profiles, err := ParseProfiles(os.Getenv("TRANSCODE_PROFILES"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:            port,
		DataDir:         getEnv("DATA_DIR", "/data"),
		MaxUploadSizeMB: maxUploadSizeMB,
		AllowedOrigins:  splitEnv("ALLOWED_ORIGINS", "*"),

		AllowedMIMETypes:  splitEnv("ALLOWED_MIME_TYPES", strings.Join(validation.DefaultAllowedMIMETypes, ",")),
		Profiles:          profiles,
		WorkerPoolSize:    workers,
		RetryMaxAttempts:  retryAttempts,
		RetryBaseDelay:    retryBase,
		RetryMaxDelay:     retryMax,
		ScanTimeout:       scanTimeout,
		CallerWaitTimeout: callerWait,
		MaxProcessingTime: maxProcessing,
		ProgressRetention: progressRetention,

		ClamdAddr:       getEnv("CLAMD_ADDR", "localhost:3310"),
		S3Endpoint:      getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3Bucket:        getEnv("S3_BUCKET", "vidpipe"),
		S3UseSSL:        getEnv("S3_USE_SSL", "false") == "true",
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisChannel:    getEnv("REDIS_CHANNEL", "vidpipe:progress"),
		RedisDB:         redisDB,
	}, nil
}

// ParseProfiles reads a profile list of the form
// "hd:1920:1080:5000k:30,sd:1280:720:2500k:30". Empty input yields the
// default profile set.
func ParseProfiles(raw string) ([]domain.TranscodeProfile, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.DefaultProfiles(), nil
	}

	var profiles []domain.TranscodeProfile
	seen := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 5 {
			return nil, fmt.Errorf("invalid TRANSCODE_PROFILES entry %q: want quality:width:height:bitrate:fps", entry)
		}
		width, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid width in %q: %w", entry, err)
		}
		height, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid height in %q: %w", entry, err)
		}
		fps, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, fmt.Errorf("invalid fps in %q: %w", entry, err)
		}
		if seen[parts[0]] {
			return nil, fmt.Errorf("duplicate profile quality %q", parts[0])
		}
		seen[parts[0]] = true
		profiles = append(profiles, domain.TranscodeProfile{
			Quality: parts[0],
			Width:   width,
			Height:  height,
			Bitrate: parts[3],
			Fps:     fps,
			Codec:   "h264",
		})
	}
	return profiles, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
