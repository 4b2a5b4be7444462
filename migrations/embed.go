// Package migrations carries the schema as embedded goose SQL files.
// Both server bootstrap and the integration-test TestMain apply it through
// goose's provider API, so the binary never depends on migration files being
// present on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
