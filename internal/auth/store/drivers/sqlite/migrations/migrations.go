// Package migrations embeds the sqlite schema migration files so drivers can
// apply them without shipping loose SQL alongside the binary.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
