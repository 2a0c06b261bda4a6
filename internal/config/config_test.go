package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	cfg, err := load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != ":8080" || cfg.OCRPollInterval != 500*time.Millisecond || cfg.OCRMaxAttempts != 60 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.LockTTL != 2*time.Minute || cfg.DBPort != 5432 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/vendors")
	t.Setenv("DOC_WORKERS", "4")
	t.Setenv("OCR_POLL_INTERVAL", "250ms")
	t.Setenv("S3_USE_SSL", "true")
	cfg, err := load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DocWorkers != 4 || cfg.OCRPollInterval != 250*time.Millisecond || !cfg.S3UseSSL {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadMissingDatabaseIsWarning(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_SECRET_FILE", "")
	cfg, err := load()
	if !errors.Is(err, ErrNoDatabase) {
		t.Fatalf("err = %v", err)
	}
	if cfg.ListenAddr == "" {
		t.Fatal("config should still be populated")
	}
}

func TestLoadUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	if _, err := load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("STORE_DRIVER=memory\nJWT_SECRET=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Setenv restores the originals; godotenv skips keys already present.
	t.Setenv("STORE_DRIVER", "")
	os.Unsetenv("STORE_DRIVER")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	cfg, err := load(path, filepath.Join(t.TempDir(), "absent.env"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StoreDriver != DriverMemory || cfg.JWTSecret != "from-file" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Env: "production", LogLevel: "debug"}, &buf)
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("formatter = %T", l.Formatter)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v", l.GetLevel())
	}
	dev := NewLogger(Config{Env: "development", LogLevel: "bogus"}, &buf)
	if _, ok := dev.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("formatter = %T", dev.Formatter)
	}
	if dev.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v", dev.GetLevel())
	}
}
