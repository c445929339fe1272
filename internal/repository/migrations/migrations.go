package migrations

import "embed"

// FS holds the schema of the property database.
//
//go:embed *.sql
var FS embed.FS
