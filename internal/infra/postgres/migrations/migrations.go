package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema steps; each numbered file registers one.
var Migrations = migrate.NewMigrations()
