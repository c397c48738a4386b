package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SPOTIFY_ID", "")
	t.Setenv("SPOTIFY_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %q, want 127.0.0.1:8080", cfg.Addr)
	}
	if cfg.ImageCacheTTL != time.Hour {
		t.Errorf("ImageCacheTTL = %v, want 1h", cfg.ImageCacheTTL)
	}
	if cfg.ImageCacheSize != 10000 {
		t.Errorf("ImageCacheSize = %d, want 10000", cfg.ImageCacheSize)
	}
	if cfg.HasSpotifyCredentials() {
		t.Error("HasSpotifyCredentials() = true with empty env")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SPOTIFY_ID", "client-id")
	t.Setenv("SPOTIFY_SECRET", "client-secret")
	t.Setenv("CATALOG_RPS", "2.5")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.HasSpotifyCredentials() {
		t.Error("HasSpotifyCredentials() = false, want true")
	}
	if cfg.CatalogRPS != 2.5 {
		t.Errorf("CatalogRPS = %v, want 2.5", cfg.CatalogRPS)
	}
	if cfg.LogFormat != "console" {
		t.Errorf("LogFormat = %q, want console", cfg.LogFormat)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("IMAGE_CACHE_SIZE", "lots")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}
