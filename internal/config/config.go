package config

import (
	"os"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port      string
	ClientURL string

	MongoURI string
	MongoDB  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MediaBaseURL   string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func Load() *Config {
	return &Config{
		Port:      getenv("PORT", "8080"),
		ClientURL: getenv("CLIENT_URL", "http://localhost:5173"),

		MongoURI: getenv("MONGO_URI", ""),
		MongoDB:  getenv("MONGO_DB", "clipstream"),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "clipstream-media"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
		MediaBaseURL:   getenv("MEDIA_BASE_URL", ""),

		AccessTokenSecret:  getenv("ACCESS_TOKEN_SECRET", ""),
		RefreshTokenSecret: getenv("REFRESH_TOKEN_SECRET", ""),
		AccessTokenTTL:     getdur("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getdur("REFRESH_TOKEN_TTL", 7*24*time.Hour),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getdur parses a duration env var, keeping the fallback on empty or bad input.
func getdur(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
