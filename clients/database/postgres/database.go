package postgres

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/migrate"

	"github.com/kava-labs/bundle-gateway/clients/database"
	"github.com/kava-labs/bundle-gateway/logging"
)

// DatabaseConfig contains values for creating a
// new connection to a postgres database
type DatabaseConfig struct {
	DatabaseName                     string
	DatabaseEndpointURL              string
	DatabaseUsername                 string
	DatabasePassword                 string
	ReadTimeoutSeconds               int64
	DatabaseMaxIdleConnections       int64
	DatabaseConnectionMaxIdleSeconds int64
	DatabaseMaxOpenConnections       int64
	SSLEnabled                       bool
	QueryLoggingEnabled              bool
	Logger                           *logging.ServiceLogger
}

// Client wraps a connection to a postgres database
type Client struct {
	db     *bun.DB
	logger *logging.ServiceLogger
}

var _ database.MetricsDatabase = (*Client)(nil)

// NewClient returns a new connection to the specified
// postgres data and error (if any)
func NewClient(config DatabaseConfig) (*Client, error) {
	if config.DatabaseEndpointURL == "" {
		return nil, fmt.Errorf("database endpoint url must be provided")
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	options := []pgdriver.Option{
		pgdriver.WithAddr(config.DatabaseEndpointURL),
		pgdriver.WithUser(config.DatabaseUsername),
		pgdriver.WithPassword(config.DatabasePassword),
		pgdriver.WithDatabase(config.DatabaseName),
		pgdriver.WithReadTimeout(time.Second * time.Duration(config.ReadTimeoutSeconds)),
	}

	if config.SSLEnabled {
		options = append(options, pgdriver.WithTLSConfig(&tls.Config{InsecureSkipVerify: false}))
	} else {
		options = append(options, pgdriver.WithInsecure(true))
	}

	pgOptions := pgdriver.NewConnector(options...)

	logger.Debug().Msg(fmt.Sprintf("creating database client for %s/%s", config.DatabaseEndpointURL, config.DatabaseName))

	// connect to the database
	sqldb := sql.OpenDB(pgOptions)

	// configure connection limits
	// https://go.dev/doc/database/manage-connections#connection_pool_properties
	sqldb.SetMaxIdleConns(int(config.DatabaseMaxIdleConnections))
	sqldb.SetConnMaxIdleTime(time.Second * time.Duration(config.DatabaseConnectionMaxIdleSeconds))
	sqldb.SetMaxOpenConns(int(config.DatabaseMaxOpenConnections))

	db := bun.NewDB(sqldb, pgdialect.New())

	// set up logging on database if requested
	if config.QueryLoggingEnabled {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &Client{
		db:     db,
		logger: logger,
	}, nil
}

// HealthCheck returns an error if the database can not
// be connected to and queried, nil otherwise
func (c *Client) HealthCheck() error {
	_, err := c.db.Exec(`SELECT 1;`)
	return err
}

// Close closes every connection of the client
func (c *Client) Close() error {
	return c.db.Close()
}

// Migrate sets up and runs all migrations in the migrations model
// that haven't been run on the database being used by the bundle gateway
// returning error (if any) and a list of migrations that have been
// run and any that were not
func (c *Client) Migrate(ctx context.Context, migrations *migrate.Migrations) (*migrate.MigrationSlice, error) {
	if c.db == nil {
		return &migrate.MigrationSlice{}, fmt.Errorf("database client is not connected")
	}

	// set up migration config
	migrator := migrate.NewMigrator(c.db, migrations)

	// create / verify tables used to tack migrations
	err := migrator.Init(ctx)

	if err != nil {
		return &migrate.MigrationSlice{}, err
	}

	// run all un-applied migrations
	group, err := migrator.Migrate(ctx)

	// if migration failed attempt to rollback so migrations can be re-attempted
	if err != nil {
		group, rollbackErr := migrator.Rollback(ctx)

		if rollbackErr != nil {
			return &migrate.MigrationSlice{}, fmt.Errorf("error %s rolling back after original error %s", rollbackErr, err)
		}

		if group.ID == 0 {
			return &migrate.MigrationSlice{}, fmt.Errorf("no groups to rollback after migration error %s", err)
		}

		return &migrate.MigrationSlice{}, fmt.Errorf("rolled back after migration error %s", err)
	}

	// get the status of all run and un-run migrations
	ms, err := migrator.MigrationsWithStatus(ctx)

	if err != nil {
		return &migrate.MigrationSlice{}, err
	}

	if group.ID == 0 {
		c.logger.Debug().Msg("there are no new migrations to run")
	}

	return &ms, nil
}
