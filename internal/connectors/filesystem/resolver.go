package filesystem

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ResolvePath converts a file:// URI or a path given on the command line
// to an absolute local path. Percent-escapes in URIs are decoded.
func ResolvePath(uri string) string {
	path := uri
	if strings.HasPrefix(uri, "file://") {
		path = strings.TrimPrefix(uri, "file://")
		if decoded, err := url.PathUnescape(path); err == nil {
			path = decoded
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
