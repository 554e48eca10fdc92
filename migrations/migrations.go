// Package migrations holds versioned seed data applied with goose after the
// gorm schema migration.
package migrations

import "embed"

//go:embed 0*.go
var FS embed.FS
