// Package web содержит встраиваемые HTML-шаблоны страниц.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
