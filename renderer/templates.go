package renderer

import "embed"

// templates holds the markdown templates, one main template per rendered
// document and its partials named after it ("document_header.md").
//
//go:embed *.md
var templates embed.FS
