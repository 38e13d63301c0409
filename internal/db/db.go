package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"advisor-finder/internal/config"
)

const (
	applicationName  = "advisor-finder"
	connectRetryStep = time.Second
)

// poolConfig traduce la configuracion del servicio a la del pool.
// Cada sesion lleva statement_timeout para que una consulta del directorio no bloquee conexiones.
func poolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	maxConns := cfg.DBMaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	params := poolCfg.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok {
		params["application_name"] = applicationName
	}
	if cfg.DBStatementTimeoutMS > 0 {
		params["statement_timeout"] = strconv.Itoa(cfg.DBStatementTimeoutMS)
	}
	return poolCfg, nil
}

// NewPool construye el pool sin verificar la conexion.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Open construye el pool y espera a que Postgres responda, con espera lineal entre intentos.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	attempts := cfg.DBConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err = Ping(ctx, pool)
		if err == nil {
			return pool, nil
		}
		if attempt >= attempts {
			break
		}
		wait := time.Duration(attempt) * connectRetryStep
		logger.Warn("database not ready", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("retry_in", wait))
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	pool.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}
