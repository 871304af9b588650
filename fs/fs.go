// Package appfs exposes the static assets (SQL migrations, mail templates)
// embedded into the binary.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
