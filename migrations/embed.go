// Package migrations embeds the audit and consent schema for tooling and
// integration setups.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
