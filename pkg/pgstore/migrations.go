package pgstore

import "embed"

// Migrations holds the goose migrations for every table in this package.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations to pass to goose.
const MigrationsDir = "migrations"
