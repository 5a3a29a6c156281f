package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          int
	PublicURL     string
	NatsURL       string
	NatsToken     string
	DatabaseURL   string
	LogLevel      string
	APIToken      string
	MaxUploadMB   int
	SignedURLTTL  time.Duration
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKeyID string
	S3SecretKey   string
}

func Load() Config {
	return Config{
		Port:          envInt("MEMOAI_PORT", 8760),
		PublicURL:     envStr("MEMOAI_PUBLIC_URL", "http://localhost:8760"),
		NatsURL:       envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:     envStr("NATS_TOKEN", ""),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		APIToken:      envStr("MEMOAI_API_TOKEN", ""),
		MaxUploadMB:   envInt("MEMOAI_MAX_UPLOAD_MB", 64),
		SignedURLTTL:  time.Duration(envInt("MEMOAI_SIGNED_URL_TTL", 300)) * time.Second,
		S3Bucket:      envStr("S3_BUCKET", "memoai-conversations"),
		S3Region:      envStr("S3_REGION", "us-east-1"),
		S3Endpoint:    envStr("S3_ENDPOINT", ""),
		S3AccessKeyID: envStr("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:   envStr("S3_SECRET_ACCESS_KEY", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
