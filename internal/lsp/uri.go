package lsp

import "strings"

// pathFromURI strips the file:// scheme. Percent-encoding and platform
// path forms are left as-is, so encoded URIs miss the cache.
func pathFromURI(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
