package filesystem

import (
	"path/filepath"
	"strings"
)

// ResolvePath converts a file:// URI or bare path to a clean local path.
func ResolvePath(uri string) string {
	if uri == "" {
		return ""
	}
	return filepath.Clean(strings.TrimPrefix(uri, "file://"))
}
