// Package postgres embeds the SQL migrations for the registrar schema.
package postgres

import "embed"

//go:embed *.sql
var FS embed.FS
