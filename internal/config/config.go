package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	BackendURL   string // PLOTD_BACKEND_URL (required)
	BackendToken string // PLOTD_BACKEND_TOKEN (optional)
	HTTPAddr     string // PLOTD_HTTP_ADDR (default ":8080")
	NATSURL      string // PLOTD_NATS_URL (optional, empty = no events)
	AuthToken    string // PLOTD_AUTH_TOKEN (optional, empty = auth disabled)

	// GitHub integration cache
	CacheTTL time.Duration // PLOTD_CACHE_TTL (default 5m)

	// Export upload settings
	ExportS3Bucket   string // PLOTD_EXPORT_S3_BUCKET (enables S3 upload when set)
	ExportS3Endpoint string // PLOTD_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string // PLOTD_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Prefix   string // PLOTD_EXPORT_S3_PREFIX (default "diagrams/")
}

func Load() (*Config, error) {
	c := &Config{
		BackendURL:       os.Getenv("PLOTD_BACKEND_URL"),
		BackendToken:     os.Getenv("PLOTD_BACKEND_TOKEN"),
		HTTPAddr:         envOrDefault("PLOTD_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("PLOTD_NATS_URL"),
		AuthToken:        os.Getenv("PLOTD_AUTH_TOKEN"),
		ExportS3Bucket:   os.Getenv("PLOTD_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("PLOTD_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("PLOTD_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Prefix:   envOrDefault("PLOTD_EXPORT_S3_PREFIX", "diagrams/"),
	}
	if c.BackendURL == "" {
		return nil, fmt.Errorf("PLOTD_BACKEND_URL is required")
	}

	ttlStr := envOrDefault("PLOTD_CACHE_TTL", "5m")
	d, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("PLOTD_CACHE_TTL: %w", err)
	}
	c.CacheTTL = d

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
