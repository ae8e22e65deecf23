package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minepilot/minepilot/internal/config"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// connectionUrls resolves the pool and migrator connection strings
// from one source: a DATABASE_URL override applies to both, so they
// can never target different databases.
func connectionUrls(cfg config.PostgresConfig) (poolUrl, migrateUrl string) {
	if url, ok := os.LookupEnv("DATABASE_URL"); ok {
		return url, url
	}
	return cfg.DbUrl(), cfg.MigrateUrl()
}

func Connect(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	url, _ := connectionUrls(cfg)
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	return pgxpool.NewWithConfig(ctx, poolConfig)
}

func Migrate(url string, migrations fs.FS) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("unable to create migrations iofs: %w", err)
	}
	migrator, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, fmt.Errorf("unable to create migrator: %w", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return migrator, nil
}

func ConnectAndMigrate(
	ctx context.Context, cfg config.PostgresConfig, migrations fs.FS,
) (*pgxpool.Pool, *migrate.Migrate, error) {
	conn, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	_, migrateUrl := connectionUrls(cfg)
	migrator, err := Migrate(migrateUrl, migrations)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, migrator, nil
}
