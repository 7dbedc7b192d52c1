package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"miso/internal/platform/config"
)

func TestNewReadsFileAndDerivesDBPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := "api_base_url: https://api.example.com/\nroom_url: wss://rooms.example.com\ndata_dir: " + dir + "\nagent_timeout: 5s\nmicrophone: allow\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.New(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.AgentTimeout != 5*time.Second {
		t.Fatalf("expected 5s agent timeout, got %s", cfg.AgentTimeout)
	}
	if cfg.PageSize != 10 || cfg.RequestTimeout != 0 {
		t.Fatalf("expected defaults for page size and request timeout, got %+v", cfg)
	}
	if cfg.DBPath != filepath.Join(dir, "miso.db") {
		t.Fatalf("unexpected db path %s", cfg.DBPath)
	}
}

func TestNewEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: "+dir+"\nroom_url: wss://file\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MISO_ROOM_URL", "wss://env")

	cfg, err := config.New(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RoomURL != "wss://env" {
		t.Fatalf("expected env override, got %q", cfg.RoomURL)
	}
}

func TestNewRejectsUnknownMicrophoneMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: "+dir+"\nmicrophone: maybe\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.New(path); err == nil {
		t.Fatalf("expected invalid microphone mode to fail")
	}
}
