// Package migrations embeds the gateway's database schema migrations so the
// server binary can apply them without a migrations directory on disk.
package migrations

import "embed"

// FS holds the embedded goose migration files.
//
//go:embed *.sql
var FS embed.FS
