// Package migrations embeds the SQL migration files for the durable
// store. Files follow the NNN_name.up.sql convention and run in order.
package migrations

import "embed"

// FS contains the migration files.
//
//go:embed *.sql
var FS embed.FS
