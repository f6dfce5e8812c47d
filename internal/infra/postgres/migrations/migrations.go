// Package migrations holds the schema for the question bank and result store.
// Each migration lives in a file named <version>_<name>.go.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
