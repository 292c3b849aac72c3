package config

import (
	"testing"
	"time"
)

// exportEnvVars lists all export-related env vars that must be cleared between tests.
var exportEnvVars = []string{
	"PLOTD_EXPORT_S3_BUCKET", "PLOTD_EXPORT_S3_ENDPOINT",
	"PLOTD_EXPORT_S3_REGION", "PLOTD_EXPORT_S3_PREFIX",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PLOTD_BACKEND_URL", "PLOTD_BACKEND_TOKEN", "PLOTD_HTTP_ADDR",
		"PLOTD_NATS_URL", "PLOTD_AUTH_TOKEN", "PLOTD_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
	for _, key := range exportEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantHTTPAddr string
		wantNATSURL  string
	}{
		{
			name:    "MissingBackendURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "Defaults",
			env:          map[string]string{"PLOTD_BACKEND_URL": "http://localhost:3000"},
			wantHTTPAddr: ":8080",
		},
		{
			name: "CustomAddresses",
			env: map[string]string{
				"PLOTD_BACKEND_URL": "http://backend:3000",
				"PLOTD_HTTP_ADDR":   ":3000",
				"PLOTD_NATS_URL":    "nats://localhost:4222",
			},
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.BackendURL != tc.env["PLOTD_BACKEND_URL"] {
				t.Errorf("BackendURL = %q, want %q", cfg.BackendURL, tc.env["PLOTD_BACKEND_URL"])
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
		})
	}
}

func TestLoadCacheTTLDefault(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("PLOTD_BACKEND_URL", "http://localhost:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
}

func TestLoadCacheTTLInvalid(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("PLOTD_BACKEND_URL", "http://localhost:3000")
	t.Setenv("PLOTD_CACHE_TTL", "not-a-duration")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid PLOTD_CACHE_TTL")
	}
}

func TestLoadExportDefaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("PLOTD_BACKEND_URL", "http://localhost:3000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExportS3Region != "us-east-1" {
		t.Errorf("ExportS3Region = %q, want %q", cfg.ExportS3Region, "us-east-1")
	}
	if cfg.ExportS3Prefix != "diagrams/" {
		t.Errorf("ExportS3Prefix = %q, want %q", cfg.ExportS3Prefix, "diagrams/")
	}
}

func TestLoadExportCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("PLOTD_BACKEND_URL", "http://localhost:3000")
	t.Setenv("PLOTD_EXPORT_S3_BUCKET", "my-bucket")
	t.Setenv("PLOTD_EXPORT_S3_ENDPOINT", "http://minio:9000")
	t.Setenv("PLOTD_EXPORT_S3_REGION", "eu-west-1")
	t.Setenv("PLOTD_EXPORT_S3_PREFIX", "exports/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ExportS3Bucket != "my-bucket" {
		t.Errorf("ExportS3Bucket = %q", cfg.ExportS3Bucket)
	}
	if cfg.ExportS3Endpoint != "http://minio:9000" {
		t.Errorf("ExportS3Endpoint = %q", cfg.ExportS3Endpoint)
	}
	if cfg.ExportS3Region != "eu-west-1" {
		t.Errorf("ExportS3Region = %q", cfg.ExportS3Region)
	}
	if cfg.ExportS3Prefix != "exports/" {
		t.Errorf("ExportS3Prefix = %q", cfg.ExportS3Prefix)
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
