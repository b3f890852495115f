// Package migrations holds the versioned schema of the sqlite vector store.
package migrations

import "embed"

// FS contains NNN_name.up.sql and NNN_name.down.sql pairs.
//
//go:embed *.sql
var FS embed.FS
