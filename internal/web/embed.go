// Package web holds the embedded HTML templates and static assets served by
// the HTTP layer.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS

//go:embed static
var Static embed.FS
