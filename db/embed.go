// Package db embeds the SQL migrations.
package db

import "embed"

// Migrations holds the numbered DDL files, applied in lexical order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
