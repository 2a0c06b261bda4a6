package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ErrNoDatabase is returned alongside a usable Config when the postgres driver
// is selected but no connection source is configured.
var ErrNoDatabase = errors.New("DATABASE_URL not set")

type Config struct {
	Env             string
	ListenAddr      string
	StoreDriver     string
	DatabaseURL     string
	DocWorkers      int
	JobPollInterval time.Duration

	OCRBaseURL      string
	OCRAPIKey       string
	OCRPollInterval time.Duration
	OCRMaxAttempts  int

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool

	RedisAddress  string
	RedisPassword string
	LockTTL       time.Duration

	JWTSecret      string
	RiskPolicyFile string

	DBSecretFile string
	DBHost       string
	DBPort       int
	DBName       string
	DBUser       string
	DBPassword   string

	LogLevel  string
	LogFormat string
}

func (c Config) Development() bool { return c.Env == "development" }

var defaults = map[string]any{
	"APP_ENV":           "development",
	"LISTEN_ADDR":       ":8080",
	"STORE_DRIVER":      DriverPostgres,
	"DOC_WORKERS":       0,
	"JOB_POLL_INTERVAL": "500ms",
	"OCR_POLL_INTERVAL": "500ms",
	"OCR_MAX_ATTEMPTS":  60,
	"S3_USE_SSL":        false,
	"LOCK_TTL":          "2m",
	"DB_PORT":           5432,
	"LOG_LEVEL":         "info",
}

// Load reads an optional .env file, then the process environment. Env vars
// already set win over .env entries.
func Load() (Config, error) {
	return load(".env")
}

func load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	cfg := Config{
		Env:             v.GetString("APP_ENV"),
		ListenAddr:      v.GetString("LISTEN_ADDR"),
		StoreDriver:     strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		DocWorkers:      v.GetInt("DOC_WORKERS"),
		JobPollInterval: v.GetDuration("JOB_POLL_INTERVAL"),
		OCRBaseURL:      v.GetString("OCR_BASE_URL"),
		OCRAPIKey:       v.GetString("OCR_API_KEY"),
		OCRPollInterval: v.GetDuration("OCR_POLL_INTERVAL"),
		OCRMaxAttempts:  v.GetInt("OCR_MAX_ATTEMPTS"),
		S3Endpoint:      v.GetString("S3_ENDPOINT"),
		S3AccessKey:     v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:     v.GetString("S3_SECRET_KEY"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3UseSSL:        v.GetBool("S3_USE_SSL"),
		RedisAddress:    v.GetString("REDIS_ADDRESS"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		LockTTL:         v.GetDuration("LOCK_TTL"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		RiskPolicyFile:  v.GetString("RISK_POLICY_FILE"),
		DBSecretFile:    v.GetString("DB_SECRET_FILE"),
		DBHost:          v.GetString("DB_HOST"),
		DBPort:          v.GetInt("DB_PORT"),
		DBName:          v.GetString("DB_NAME"),
		DBUser:          v.GetString("DB_USER"),
		DBPassword:      v.GetString("DB_PASSWORD"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == DriverPostgres && cfg.DatabaseURL == "" && cfg.DBSecretFile == "" && cfg.DBHost == "" {
		// Not fatal for early local runs; callers decide.
		return cfg, ErrNoDatabase
	}
	return cfg, nil
}

// NewLogger builds the process logger. JSON output unless LOG_FORMAT=text or
// the environment is development.
func NewLogger(cfg Config, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	if cfg.LogFormat == "text" || (cfg.LogFormat == "" && cfg.Development()) {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		l.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
	}
	l.SetLevel(level)
	return l
}
