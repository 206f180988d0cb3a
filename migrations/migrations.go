// Package migrations embeds the SQL migration files so they can be applied
// with goose without shipping the files alongside the binary.
package migrations

import "embed"

// FS holds the embedded goose migration files.
//
//go:embed *.sql
var FS embed.FS
