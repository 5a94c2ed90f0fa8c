package migrations

import "embed"

// Files stores the goose SQL migrations embedded into the binary.
//
//go:embed *.sql
var Files embed.FS
