package config

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/lumiere/internal/funnel"
	"github.com/erazemk/lumiere/internal/live"
	"github.com/erazemk/lumiere/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "lumiere.sqlite3" || cfg.Addr != ":8080" || cfg.LogPath != "" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Location != time.Local {
		t.Errorf("expected local time zone, got %v", cfg.Location)
	}
	if cfg.AlertFor != live.DefaultAlertDuration {
		t.Errorf("expected default alert duration, got %v", cfg.AlertFor)
	}
	if cfg.Funnel.String() != funnel.Default().String() {
		t.Errorf("expected default funnel, got %s", cfg.Funnel)
	}
	if len(cfg.PINs) != 0 {
		t.Errorf("expected no configured PINs, got %v", cfg.PINs)
	}
	if cfg.Cloudinary.Folder != "menu-images" || cfg.Cloudinary.Signed() || cfg.Cloudinary.Unsigned() {
		t.Errorf("unexpected cloudinary defaults %+v", cfg.Cloudinary)
	}
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"-d", "/tmp/cafe.db",
		"-addr", "127.0.0.1:9000",
		"-tz", "UTC",
		"-alert", "5s",
		"-transitions", "new>preparing=kitchen;preparing>ready=kitchen;ready>paid=cashier;new>paid=cashier",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/cafe.db" || cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Location != time.UTC {
		t.Errorf("expected UTC, got %v", cfg.Location)
	}
	if cfg.AlertFor != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.AlertFor)
	}
	if err := cfg.Funnel.Allow(model.StatusNew, model.StatusPaid, model.RoleCashier); err != nil {
		t.Errorf("expected configured shortcut: %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("LUMIERE_ADDR", ":7000")
	t.Setenv("LUMIERE_PIN_KITCHEN", "2468")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_UPLOAD_PRESET", "unsigned_menu")
	t.Setenv("LUMIERE_S3_BUCKET", "menu")
	t.Setenv("LUMIERE_S3_PATH_STYLE", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://cafe.example, https://admin.cafe.example")
	t.Setenv("LUMIERE_ALERT", "2s")

	cfg, err := Load(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("expected env addr, got %q", cfg.Addr)
	}
	if cfg.PINs[model.RoleKitchen] != "2468" {
		t.Errorf("expected kitchen PIN from env, got %v", cfg.PINs)
	}
	if !cfg.Cloudinary.Unsigned() || cfg.Cloudinary.Signed() {
		t.Errorf("expected unsigned-only cloudinary, got %+v", cfg.Cloudinary)
	}
	if cfg.S3.Bucket != "menu" || !cfg.S3.UsePathStyle {
		t.Errorf("unexpected s3 config %+v", cfg.S3)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.cafe.example" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.AlertFor != 2*time.Second {
		t.Errorf("expected 2s alert, got %v", cfg.AlertFor)
	}

	// Flags win over the environment.
	cfg, _ = Load([]string{"-a", ":7100"}, &bytes.Buffer{})
	if cfg.Addr != ":7100" {
		t.Errorf("expected flag to win, got %q", cfg.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := [][]string{
		{"-tz", "Mars/Olympus"},
		{"-transitions", "paid>new=cashier"},
		{"-alert", "0s"},
		{"extra"},
		{"-nope"},
	}
	for _, args := range tests {
		if _, err := Load(args, &bytes.Buffer{}); err == nil {
			t.Errorf("Load(%v) expected error", args)
		}
	}
}

func TestLoadHelp(t *testing.T) {
	var out bytes.Buffer
	_, err := Load([]string{"-h"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "Usage: lumiere") {
		t.Errorf("expected usage text, got %q", out.String())
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("LUMIERE_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("LUMIERE_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("LUMIERE_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
