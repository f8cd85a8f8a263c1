package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.Exec.Timeout != 10*time.Second || cfg.Exec.MaxOutput != 64*1024 {
		t.Errorf("unexpected exec defaults %+v", cfg.Exec)
	}
	if cfg.Exec.Toolchain.Python != "python3" || cfg.Exec.Toolchain.Java != "java" {
		t.Errorf("unexpected toolchain %+v", cfg.Exec.Toolchain)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("unexpected db driver %s", cfg.Database.Driver)
	}
	if len(cfg.ICEServers) != 1 || len(cfg.ICEServers[0].URLs) != 1 {
		t.Errorf("unexpected ice servers %+v", cfg.ICEServers)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := []byte(`
port: 6000
exec:
  timeout: 3s
  python: /usr/bin/python3.12
redis:
  address: localhost:6379
ice_servers:
  - urls: ["turn:turn.example.com:3478"]
    username: u
    credential: p
`)
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CODEROOM_PORT", "7000")
	t.Setenv("CODEROOM_EXEC_MAX_OUTPUT", "1024")
	t.Setenv("CODEROOM_AI_API_KEY", "secret-key")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("env should override file, got port %d", cfg.Port)
	}
	if cfg.Exec.Timeout != 3*time.Second || cfg.Exec.MaxOutput != 1024 {
		t.Errorf("unexpected exec config %+v", cfg.Exec)
	}
	if cfg.Exec.Toolchain.Python != "/usr/bin/python3.12" {
		t.Errorf("toolchain override lost: %+v", cfg.Exec.Toolchain)
	}
	if cfg.AI.APIKey != "secret-key" {
		t.Errorf("expected api key from env")
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Errorf("unexpected redis address %s", cfg.Redis.Address)
	}
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].Username != "u" {
		t.Errorf("unexpected ice servers %+v", cfg.ICEServers)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("CODEROOM_PORT", "70000")
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadReleaseRequiresSecret(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	cfg, err := LoadFile(missing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "debug" || cfg.Secret != DevSecret {
		t.Errorf("unexpected defaults mode=%s secret=%s", cfg.Mode, cfg.Secret)
	}

	t.Setenv("CODEROOM_MODE", "release")
	if _, err := LoadFile(missing); err == nil {
		t.Error("release mode with the development secret must be rejected")
	}

	t.Setenv("CODEROOM_SECRET", "a-real-secret")
	cfg, err = LoadFile(missing)
	if err != nil {
		t.Fatalf("release with own secret: %v", err)
	}
	if cfg.Secret != "a-real-secret" {
		t.Errorf("expected secret from env, got %s", cfg.Secret)
	}
}
