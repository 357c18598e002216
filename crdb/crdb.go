package crdb

import (
	"context"
	"fmt"
	"time"

	"github.com/danthegoodman1/splitread/gologger"
	"github.com/danthegoodman1/splitread/utils"
	"github.com/jackc/pgx/v4/pgxpool"
)

var (
	// StandardContextTimeout bounds each metastore statement, retries included
	StandardContextTimeout = 10 * time.Second

	logger = gologger.NewLogger()
)

// Connect opens the metastore pool and pings it
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	logger.Debug().Msg("connecting to CRDB...")
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("error in pgxpool.ParseConfig: %w", err)
	}

	config.MaxConns = int32(utils.GetEnvOrDefaultInt("CRDB_MAX_CONNS", 10))
	config.MinConns = 1
	config.HealthCheckPeriod = time.Second * 5
	config.MaxConnLifetime = time.Minute * 30
	config.MaxConnIdleTime = time.Minute * 30

	ctx, cancel := context.WithTimeout(ctx, StandardContextTimeout)
	defer cancel()
	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error in pgxpool.ConnectConfig: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging CRDB: %w", err)
	}
	logger.Debug().Int32("maxConns", config.MaxConns).Msg("connected to CRDB")
	return pool, nil
}
