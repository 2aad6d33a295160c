// Package migrations embeds the SQL migrations for tgscan.db.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
