// Package web provides the embedded browser client for teamtrack.
//
// The dist/ directory is embedded at build time. During development,
// if dist/ exists on the filesystem, it is served instead so edits show up
// without a rebuild.
package web

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

// IndexFile is the client's entry page within the assets filesystem.
const IndexFile = "index.html"

//go:embed dist/*
var assets embed.FS

// GetAssets returns a filesystem containing the web client assets.
// When devPath names an existing directory the live filesystem is returned,
// otherwise the embedded assets.
//
// If devPath is empty, it defaults to "./web/dist" (relative to the working
// directory).
func GetAssets(devPath string) fs.FS {
	if devPath == "" {
		devPath = "./web/dist"
	}

	if stat, err := os.Stat(devPath); err == nil && stat.IsDir() {
		return os.DirFS(devPath)
	}

	subFS, err := fs.Sub(assets, "dist")
	if err != nil {
		// dist/ is embedded above, so Sub cannot fail.
		panic("failed to access embedded web assets: " + err.Error())
	}
	return subFS
}

// GetAssetsWithBase checks for live assets at baseDir/web/dist.
func GetAssetsWithBase(baseDir string) fs.FS {
	return GetAssets(filepath.Join(baseDir, "web", "dist"))
}
