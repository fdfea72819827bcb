package webui

import (
	"embed"
	"io/fs"
)

// content holds the default web UI under dist/. A directory configured as
// assets.dir takes precedence over it at runtime.
//
//go:embed dist/*
var content embed.FS

// FS returns the embedded UI rooted at dist/.
func FS() fs.FS {
	sub, err := fs.Sub(content, "dist")
	if err != nil {
		// dist/ is embedded at build time
		panic(err)
	}
	return sub
}
