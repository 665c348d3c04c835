// Package web holds the HTML templates and static assets, compiled into the
// binary so the server runs from any working directory.
package web

import "embed"

//go:embed templates/*.html static
var FS embed.FS
