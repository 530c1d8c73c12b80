// Package db provides the embedded migrations for the Postgres document store.
package db

import "embed"

// Migrations holds golang-migrate files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
