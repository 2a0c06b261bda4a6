package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"onboardhub/internal/app"
	"onboardhub/internal/config"
	docworker "onboardhub/internal/workers/docrunner"
)

func main() {
	cfg, err := config.Load()
	log := config.NewLogger(cfg, os.Stdout)
	if err != nil {
		if !errors.Is(err, config.ErrNoDatabase) {
			log.WithError(err).Fatal("config")
		}
		log.Warnf("warning: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup")
	}
	defer a.Close()

	if a.DB != nil {
		if err := a.DB.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("migrate")
		}
	}

	r := chi.NewRouter()
	r.Mount("/", a.HTTP().Routes())

	// Optional background job workers
	var workers sync.WaitGroup
	if cfg.DocWorkers > 0 {
		workers.Add(1)
		go func() {
			defer workers.Done()
			docworker.Run(ctx, a.Jobs, a.Documents, cfg.DocWorkers, cfg.JobPollInterval, log.WithField("component", "docrunner"))
		}()
		log.Infof("document workers started: %d", cfg.DocWorkers)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Infof("listening on %s", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Infof("shutting down on %s", sig)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server error")
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	cancel()
	workers.Wait()
}
