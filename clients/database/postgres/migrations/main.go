// when this package is loaded every go migration file in the
// package directory registers itself for the bundle gateway to run
// https://bun.uptrace.dev/guide/migrations.html#go-based-migrations
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
