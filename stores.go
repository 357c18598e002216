package main

import (
	"context"
	"fmt"

	"github.com/danthegoodman1/splitread/crdb"
	"github.com/danthegoodman1/splitread/datastore"
	"github.com/danthegoodman1/splitread/metastore"
	"github.com/danthegoodman1/splitread/migrations"
	"github.com/danthegoodman1/splitread/utils"
)

type (
	// Stores back the export endpoints. Both are nil when exports are disabled.
	Stores struct {
		MetaStore metastore.MetaStore
		DataStore datastore.DataStore
	}
)

func NewStores(ctx context.Context) (*Stores, error) {
	s := &Stores{}

	switch {
	case utils.CRDB_DSN != "":
		if err := migrations.CheckMigrations(utils.CRDB_DSN); err != nil {
			return nil, fmt.Errorf("error checking migrations: %w", err)
		}
		pool, err := crdb.Connect(ctx, utils.CRDB_DSN)
		if err != nil {
			return nil, fmt.Errorf("error connecting to CRDB: %w", err)
		}
		s.MetaStore = metastore.NewCRDBMetaStore(pool, crdb.StandardContextTimeout)
	case utils.REDIS_ADDR != "":
		rms, err := metastore.NewRedisMetaStore(ctx)
		if err != nil {
			return nil, fmt.Errorf("error in NewRedisMetaStore: %w", err)
		}
		s.MetaStore = rms
	default:
		logger.Warn().Msg("no metastore configured, exports disabled")
		return s, nil
	}

	switch {
	case utils.EXPORT_DIR != "":
		dds, err := datastore.NewDiskDataStore(utils.EXPORT_DIR)
		if err != nil {
			return nil, fmt.Errorf("error in NewDiskDataStore: %w", err)
		}
		s.DataStore = dds
	case utils.S3_BUCKET_NAME != "":
		s.DataStore = datastore.NewS3DataStore(utils.GetEnvOrDefault("S3_EXPORT_PREFIX", "exports/"))
	default:
		logger.Warn().Msg("no datastore configured, exports disabled")
	}

	return s, nil
}

func (s *Stores) Shutdown(ctx context.Context) {
	if s.MetaStore != nil {
		if err := s.MetaStore.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown metastore")
		}
	}
	if s.DataStore != nil {
		if err := s.DataStore.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown datastore")
		}
	}
}
