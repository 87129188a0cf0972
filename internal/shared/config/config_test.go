package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "ENV", "OBJECT_STORE", "LLM_PROVIDER", "RENDER_SCALE", "LOG_FORMAT", "CORS_ALLOW_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local object store, got %q", cfg.ObjectStoreType)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected openai provider, got %q", cfg.LLMProvider)
	}
	if cfg.RenderScale != 4 {
		t.Fatalf("expected render scale 4, got %v", cfg.RenderScale)
	}
	if len(cfg.CORSAllowOrigin) != 1 || cfg.CORSAllowOrigin[0] != "http://localhost:5173" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadNormalizesValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", " S3 ")
	t.Setenv("LLM_PROVIDER", "Claude")
	t.Setenv("RENDER_SCALE", "-2")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3, got %q", cfg.ObjectStoreType)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Fatalf("expected anthropic, got %q", cfg.LLMProvider)
	}
	if cfg.RenderScale != 4 {
		t.Fatalf("expected invalid scale to fall back to 4, got %v", cfg.RenderScale)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOCAL_STORE_DIR=\"/tmp/from-dotenv\"\n# comment\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("LOCAL_STORE_DIR", "")
	os.Unsetenv("LOCAL_STORE_DIR")

	cfg := Load()
	if cfg.LocalStoreDir != "/tmp/from-dotenv" {
		t.Fatalf("expected dotenv value, got %q", cfg.LocalStoreDir)
	}
}
