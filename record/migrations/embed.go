package migrations

import "embed"

// FS contains embedded SQLite migrations for frame recordings.
//
//go:embed *.sql
var FS embed.FS
