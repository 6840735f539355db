package migrations

import "embed"

// Roots of the per-driver migration sets inside FS.
const (
	PostgresRoot = "postgres"
	SQLiteRoot   = "sqlite"
)

// FS contains the embedded migrations for both storage drivers.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
