// Package scanorch embeds the database migrations so the binary can apply
// them without shipping the SQL files separately.
package scanorch

import "embed"

// Migrations holds the goose SQL migrations under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
