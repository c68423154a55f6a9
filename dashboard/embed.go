// Package dashboard provides the embedded web UI of healthboard.
//
// The page is compiled into the binary so a single executable serves the
// whole dashboard. A static directory configured at runtime replaces it.
package dashboard

import (
	"embed"
	"io/fs"
)

//go:embed assets/*
var assets embed.FS

// Static returns the dashboard files rooted at the assets directory, so that
// index.html is at the top level.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// "assets" is a valid path; fs.Sub only fails on invalid ones
		panic(err)
	}
	return sub
}
