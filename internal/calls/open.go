package calls

import (
	"context"
	"database/sql"

	"call-ingest/internal/config"
	"call-ingest/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to the configured store, retrying for sc.ConnectTimeout, and
// applies the schema when sc.AutoMigrate is set.
func Open(ctx context.Context, sc config.StorageConfig) (*sql.DB, error) {
	dsn, err := sc.DSN()
	if err != nil {
		return nil, err
	}
	db, err := utils.OpenPostgres(ctx, "pgx", dsn, utils.PostgresPoolConfig{ConnectTimeout: sc.ConnectTimeout})
	if err != nil {
		return nil, err
	}
	if sc.AutoMigrate {
		if err := Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
