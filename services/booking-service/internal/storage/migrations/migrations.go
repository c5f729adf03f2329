// Package migrations embeds the booking-service schema for goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Dir is the directory inside FS that holds the migration files.
const Dir = "."
