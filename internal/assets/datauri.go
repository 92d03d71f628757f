// Package assets turns exported binary assets into data-URI sidecars and
// rewrites quoted references to them in the exported HTML.
package assets

import (
	"encoding/base64"
	"mime"
	"path/filepath"
	"strings"
)

// SidecarExt is appended to an asset's file name to name its encoded sidecar.
const SidecarExt = ".txt"

// fallbackType is used for extensions the mime table does not know.
const fallbackType = "application/octet-stream"

// webTypes pins the types of common web assets; the system mime database
// disagrees across hosts (application/javascript vs text/javascript).
var webTypes = map[string]string{
	".html":  "text/html",
	".css":   "text/css",
	".js":    "text/javascript",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".avif":  "image/avif",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".ico":   "image/x-icon",
	".map":   "application/json",
	".mjs":   "text/javascript",
}

// MediaType returns the bare media type for name, without parameters.
func MediaType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := webTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return fallbackType
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return fallbackType
}

// DataURI renders data as a base64 data URI of the given media type.
func DataURI(mediaType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mediaType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// DecodeDataURI returns the media type and payload of a base64 data URI.
func DecodeDataURI(uri string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mediaType, data, true
}

// SidecarPath names the encoded sidecar of the asset at p.
func SidecarPath(p string) string {
	return p + SidecarExt
}
