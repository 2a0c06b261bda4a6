package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"onboardhub/internal/ports"
)

type DB struct {
	Pool *pgxpool.Pool
	repos
}

var (
	_ ports.Store         = (*DB)(nil)
	_ ports.JobRepository = (*DB)(nil)
)

func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool, repos: repos{q: pool}}, nil
}

// ConnectWithCredentials resolves credentials once and connects.
func ConnectWithCredentials(ctx context.Context, provider ports.CredentialProvider) (*DB, error) {
	creds, err := provider.DatabaseCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("database credentials: %w", err)
	}
	return Connect(ctx, DSN(creds))
}

// DSN builds a postgres:// URL from credentials.
func DSN(c ports.Credentials) string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:   "/" + c.Name,
	}
	return u.String()
}

func (db *DB) Close() { db.Pool.Close() }
