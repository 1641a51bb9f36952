package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadServer_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadServer(context.Background())
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.Port != "8585" {
		t.Errorf("expected default port 8585, got %q", cfg.Port)
	}
	if cfg.Storage != StorageMemory {
		t.Errorf("expected memory storage, got %q", cfg.Storage)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %v", cfg.TokenTTL)
	}
	if cfg.Mongo.Database != "reimbursement" {
		t.Errorf("unexpected mongo db %q", cfg.Mongo.Database)
	}
}

func TestLoadServer_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	if _, err := LoadServer(context.Background()); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadServer_UnknownStorage(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE", "sqlite")

	_, err := LoadServer(context.Background())
	if err == nil || !strings.Contains(err.Error(), "sqlite") {
		t.Fatalf("expected unknown storage error, got %v", err)
	}
}

func TestLoadClient_DefaultSessionFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("REIMBURSE_SESSION_FILE", "")

	cfg, err := LoadClient(context.Background())
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.APIURL != "http://localhost:8585/api/v1" {
		t.Errorf("unexpected api url %q", cfg.APIURL)
	}
	if filepath.Base(cfg.SessionFile) != "session.json" {
		t.Errorf("unexpected session file %q", cfg.SessionFile)
	}
}
