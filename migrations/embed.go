// Package migrations holds the schema as golang-migrate up/down pairs,
// embedded so binaries and tests do not depend on the working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
