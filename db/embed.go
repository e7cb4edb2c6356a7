// Package db provides the embedded goose migrations and seed data.
package db

import "embed"

// MigrationsDir is the directory inside Migrations that holds the goose files.
const MigrationsDir = "migrations"

// Migrations contains the versioned goose migrations for all application tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS
