package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/danthegoodman1/splitread/gologger"
	// ensure "pgx" driver is loaded
	_ "github.com/jackc/pgx/v4/stdlib"
	migrate "github.com/rubenv/sql-migrate"
)

const migrationsTable = "splitread_migrations"

var (
	//go:embed *.sql
	migrations embed.FS

	ErrMigrationsNotRun = errors.New("parts metastore schema is behind, run `splitread migrate`")

	logger = gologger.NewLogger()
)

func source() *migrate.EmbedFileSystemMigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       ".",
	}
}

func set() migrate.MigrationSet {
	return migrate.MigrationSet{
		TableName: migrationsTable,
	}
}

func open(crdbDsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", crdbDsn)
	if err != nil {
		return nil, fmt.Errorf("error opening metastore database: %w", err)
	}
	return db, nil
}

// RunMigrations creates or upgrades the parts and column_marks tables, returning how many
// migrations were applied
func RunMigrations(crdbDsn string) (int, error) {
	db, err := open(crdbDsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	ms := set()
	n, err := ms.Exec(db, "postgres", source(), migrate.Up)
	if err != nil {
		return n, fmt.Errorf("error migrating parts metastore: %w", err)
	}
	logger.Info().Int("applied", n).Str("table", migrationsTable).Msg("parts metastore schema up to date")
	return n, nil
}

// CheckMigrations fails with ErrMigrationsNotRun when the parts schema has pending migrations
func CheckMigrations(crdbDsn string) error {
	db, err := open(crdbDsn)
	if err != nil {
		return err
	}
	defer db.Close()
	ms := set()
	pending, _, err := ms.PlanMigration(db, "postgres", source(), migrate.Up, 0)
	if err != nil {
		return fmt.Errorf("error planning parts metastore migrations: %w", err)
	}
	if len(pending) > 0 {
		for _, mig := range pending {
			logger.Warn().Str("migrationID", mig.Id).Msg("parts metastore migration not applied")
		}
		return fmt.Errorf("%d pending: %w", len(pending), ErrMigrationsNotRun)
	}
	return nil
}
