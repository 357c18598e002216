package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danthegoodman1/splitread/gologger"
	"github.com/danthegoodman1/splitread/http_server"
	"github.com/danthegoodman1/splitread/metrics"
	"github.com/danthegoodman1/splitread/migrations"
	"github.com/danthegoodman1/splitread/pipeline"
	"github.com/danthegoodman1/splitread/s3_helper"
	"github.com/danthegoodman1/splitread/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var logger = gologger.NewLogger()

func main() {
	logger.Debug().Msg("starting splitread")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		n, err := migrations.RunMigrations(utils.CRDB_DSN)
		if err != nil {
			logger.Error().Err(err).Msg("error running migrations")
			os.Exit(1)
		}
		logger.Info().Int("applied", n).Msg("ran migrations")
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	reader := pipeline.NewReader(pipeline.Config{
		MaxPartitions:  int(utils.NPARTITIONS),
		Workers:        int(utils.READ_WORKERS),
		MinColumnBlock: int(utils.MIN_COLUMN_BLOCK),
	}, nil, metrics.NewMetrics(reg)).WithRemote(s3_helper.OpenObject)

	stores, err := NewStores(logger.WithContext(context.Background()))
	if err != nil {
		logger.Error().Err(err).Msg("error setting up stores")
		os.Exit(1)
	}

	httpServer := http_server.StartHTTPServer(reader, stores.DataStore, stores.MetaStore, reg)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Warn().Msg("received shutdown signal!")

	// For AWS ALB needing some time to de-register pod
	// Convert the time to seconds
	sleepTime := utils.GetEnvOrDefaultInt("SHUTDOWN_SLEEP_SEC", 0)
	logger.Info().Msg(fmt.Sprintf("sleeping for %ds before exiting", sleepTime))

	time.Sleep(time.Second * time.Duration(sleepTime))
	logger.Info().Msg(fmt.Sprintf("slept for %ds, exiting", sleepTime))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown HTTP server")
	} else {
		logger.Info().Msg("successfully shutdown HTTP server")
	}
	stores.Shutdown(ctx)
}
