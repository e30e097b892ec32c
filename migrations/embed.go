// Package migrations ships the SQL schema with the binary.
package migrations

import "embed"

// FS holds the *.up.sql / *.down.sql files of this directory
//
//go:embed *.sql
var FS embed.FS
