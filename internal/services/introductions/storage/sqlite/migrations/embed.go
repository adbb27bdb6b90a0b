package migrations

import "embed"

// FS contains embedded SQLite migrations for introductions storage.
//
//go:embed *.sql
var FS embed.FS
