package db

import "embed"

// EmbedMigrations contains the goose SQL migrations.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS

// MigrationsDir is the directory of EmbedMigrations that holds the files.
const MigrationsDir = "migrations"
