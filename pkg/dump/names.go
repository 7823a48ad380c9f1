package dump

import (
	"path"
	"strings"
)

// DataDir is the archive subdirectory holding dumped route content.
const DataDir = "data"

// RouteFileName maps a route path to its archive file name: leading and
// trailing slashes stripped, interior slashes flattened to underscores.
// "/wp/v2/posts" becomes "wp_v2_posts" plus the extension.
func RouteFileName(route, ext string) string {
	name := strings.Trim(route, "/")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" {
		name = "root"
	}
	return name + ext
}

// RouteFilePath returns the archive-relative path for a route's dump file.
func RouteFilePath(route, ext string) string {
	return path.Join(DataDir, RouteFileName(route, ext))
}
