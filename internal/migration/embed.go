package migration

import "embed"

const migrationsDir = "migrations"

// Only forward migrations are embedded; schema rollbacks are handled
// by restoring from backup.
//
//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS
