// Package app assembles adapters and services from configuration. Both the
// server and the operator CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	httpadapter "onboardhub/internal/adapters/http"
	"onboardhub/internal/adapters/memory"
	"onboardhub/internal/adapters/objectstore"
	"onboardhub/internal/adapters/ocrhttp"
	pg "onboardhub/internal/adapters/postgres"
	"onboardhub/internal/adapters/redislock"
	"onboardhub/internal/adapters/sanctions"
	"onboardhub/internal/adapters/secrets"
	"onboardhub/internal/config"
	"onboardhub/internal/ocr"
	"onboardhub/internal/ports"
	"onboardhub/internal/risk"
	"onboardhub/internal/services/documents"
	"onboardhub/internal/services/scoring"
	"onboardhub/internal/services/vendors"
)

// ErrOCRNotConfigured is recorded as the failure of every document processed
// while OCR_BASE_URL is unset.
var ErrOCRNotConfigured = errors.New("ocr service not configured")

type store interface {
	ports.Store
	ports.JobRepository
}

type App struct {
	Config config.Config
	Log    logrus.FieldLogger

	Store ports.Store
	Jobs  ports.JobRepository
	// DB is nil unless the postgres driver is selected.
	DB *pg.DB

	Vendors   *vendors.Service
	Documents *documents.Service
	Scoring   *scoring.Service

	// ocrBudget is the driver's poll budget; zero when OCR is not configured.
	ocrBudget time.Duration
	closers   []func()
}

// New connects every configured backend. Optional backends that are not
// configured fall back to in-process implementations.
func New(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (_ *App, err error) {
	a := &App{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store, a.Jobs = st, st

	policy := risk.DefaultPolicy()
	if cfg.RiskPolicyFile != "" {
		if policy, err = risk.LoadPolicy(cfg.RiskPolicyFile); err != nil {
			return nil, err
		}
		log.WithField("path", cfg.RiskPolicyFile).Info("risk policy loaded")
	}

	runner, err := a.ocrRunner()
	if err != nil {
		return nil, err
	}

	opts := []documents.Option{}
	if cfg.S3Endpoint != "" {
		objects, err := objectstore.New(objectstore.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, documents.WithObjectStore(objects))
	}
	locker, err := a.locker(ctx)
	if err != nil {
		return nil, err
	}
	opts = append(opts, documents.WithLocker(locker, cfg.LockTTL))

	a.Vendors = vendors.New(a.Store, log.WithField("service", "vendors"))
	a.Documents = documents.New(a.Store, runner, log.WithField("service", "documents"), opts...)
	a.Scoring = scoring.New(a.Store, sanctions.NewStub(log), risk.NewEngine(policy), log.WithField("service", "scoring"))
	return a, nil
}

func (a *App) openStore(ctx context.Context) (store, error) {
	cfg := a.Config
	if cfg.StoreDriver == config.DriverMemory {
		a.Log.Warn("using in-memory store; data is not persisted")
		return memory.NewStore(), nil
	}

	var db *pg.DB
	var err error
	switch {
	case cfg.DatabaseURL != "":
		db, err = pg.Connect(ctx, cfg.DatabaseURL)
	case cfg.DBSecretFile != "":
		db, err = pg.ConnectWithCredentials(ctx, &secrets.File{Path: cfg.DBSecretFile})
	default:
		db, err = pg.ConnectWithCredentials(ctx, secrets.Static{
			Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName, User: cfg.DBUser, Password: cfg.DBPassword,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	return db, nil
}

func (a *App) ocrRunner() (documents.OCRRunner, error) {
	cfg := a.Config
	if cfg.OCRBaseURL == "" {
		a.Log.Warn("OCR_BASE_URL not set; document processing will fail")
		return unconfiguredOCR{}, nil
	}
	client, err := ocrhttp.New(cfg.OCRBaseURL, ocrhttp.WithAPIKey(cfg.OCRAPIKey), ocrhttp.WithLogger(a.Log))
	if err != nil {
		return nil, err
	}
	d := ocr.NewDriver(client,
		ocr.WithPollInterval(cfg.OCRPollInterval),
		ocr.WithMaxAttempts(cfg.OCRMaxAttempts),
		ocr.WithLogger(a.Log.WithField("component", "ocr")),
	)
	a.ocrBudget = d.Budget()
	return d, nil
}

func (a *App) locker(ctx context.Context) (ports.Locker, error) {
	if a.Config.RedisAddress == "" {
		return memory.NewLocker(), nil
	}
	l, err := redislock.Connect(ctx, a.Config.RedisAddress, a.Config.RedisPassword)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = l.Close() })
	return l, nil
}

// HTTP builds the API server over the wired services.
func (a *App) HTTP() *httpadapter.Server {
	var wait time.Duration
	if a.ocrBudget > 0 {
		wait = httpadapter.InlineWaitTimeout(a.ocrBudget)
	}
	return httpadapter.New(httpadapter.Deps{
		Vendors:     a.Vendors,
		Documents:   a.Documents,
		Scoring:     a.Scoring,
		Jobs:        a.Jobs,
		Processor:   a.Documents,
		JWTSecret:   a.Config.JWTSecret,
		WaitTimeout: wait,
		Log:         a.Log,
	})
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

type unconfiguredOCR struct{}

func (unconfiguredOCR) Run(context.Context, ocr.Location) (ocr.Result, error) {
	return ocr.Result{}, ErrOCRNotConfigured
}
