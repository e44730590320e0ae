package commands

import (
	"context"
	"fmt"

	"github.com/nominaops/staffbulk/internal/logger"
	postgresstore "github.com/nominaops/staffbulk/internal/store/postgres"
)

// MigrateCmd applies all pending database migrations and exits. This is
// the deploy-time alternative to --postgres-auto-migrate.
type MigrateCmd struct {
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	if err := c.PostgresStore.Validate(); err != nil {
		return fmt.Errorf("failed to validate postgres flags: %w", err)
	}

	pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
		ConnString: c.PostgresStore.ConnString,
	})
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	if err := postgresstore.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Migrations complete")
	return nil
}
