// Package db opens PostgreSQL pools and runs schema migrations.
package db

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mentorhub/mentorhub-api/pkg/retry"
)

const applicationName = "mentorhub-api"

// PoolConfig contains database pool configuration parameters
type PoolConfig struct {
	URL        string
	MaxConns   int32
	MinConns   int32
	CACertPath string // optional, used when URL requests TLS verification

	// TLSServerName overrides the verified host when the certificate name
	// differs from the connection host
	TLSServerName string
}

// sslModes that make pgx negotiate TLS and therefore honour a custom CA
var tlsModes = map[string]bool{"require": true, "verify-ca": true, "verify-full": true}

// configureTLS builds a TLS config with a custom CA when the URL asks for TLS
// and a CA path is configured. Returns nil otherwise (pgx defaults apply).
func configureTLS(cfg PoolConfig) (*tls.Config, error) {
	if cfg.CACertPath == "" || !requiresTLS(cfg.URL) {
		return nil, nil
	}

	caPEM, err := os.ReadFile(cfg.CACertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate from %s: %w", cfg.CACertPath, err)
	}
	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates found in %s", cfg.CACertPath)
	}

	return &tls.Config{
		RootCAs:    roots,
		MinVersion: tls.VersionTLS12,
		ServerName: cfg.TLSServerName,
	}, nil
}

func requiresTLS(databaseURL string) bool {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return false
	}
	return tlsModes[u.Query().Get("sslmode")]
}

// NewPool creates a PostgreSQL connection pool and verifies it with a ping.
// Configuration errors are marked permanent so startup retries stop early.
//
// Pool settings:
//   - MaxConns / MinConns from config
//   - HealthCheckPeriod: 30s
//   - MaxConnLifetime: 1h
//   - MaxConnIdleTime: 30m
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to parse database URL: %w", err))
	}

	tlsConfig, err := configureTLS(cfg)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to configure TLS: %w", err))
	}
	if tlsConfig != nil {
		poolConfig.ConnConfig.TLSConfig = tlsConfig
	}
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.HealthCheckPeriod = 30 * time.Second
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
