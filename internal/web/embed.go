package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

//go:embed static/*
var embeddedStatic embed.FS

// StylesheetName is the file served under /static/.
const StylesheetName = "m5front.css"

func staticFS() fs.FS {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return embeddedStatic
	}
	return sub
}
