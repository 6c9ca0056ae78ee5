package assets

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensionMimeTypes maps the extensions the pipeline produces to their MIME types.
var extensionMimeTypes = map[string]string{
	"png":   "image/png",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"avif":  "image/avif",
	"webp":  "image/webp",
	"gif":   "image/gif",
	"svg":   "image/svg+xml",
	"ico":   "image/x-icon",
	"mp4":   "video/mp4",
	"webm":  "video/webm",
	"ttf":   "font/ttf",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"css":   "text/css",
	"json":  "application/json",
	"js":    "text/javascript",
	"html":  "text/html",
	"txt":   "text/plain",
}

// MimeForExtension returns the MIME type of an extension, or application/octet-stream when it is unknown.
func MimeForExtension(extension string) string {
	if mime, ok := extensionMimeTypes[normalizeExtension(extension)]; ok {
		return mime
	}
	return "application/octet-stream"
}

// ExtensionForMime returns the extension of a MIME type, or an empty string when it is unknown. Parameters such as
// charset are ignored.
func ExtensionForMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))
	switch mime {
	case "":
		return ""
	case "image/jpeg":
		return "jpg"
	}
	for ext, m := range extensionMimeTypes {
		if m == mime && ext != "jpeg" {
			return ext
		}
	}
	if detected := mimetype.Lookup(mime); detected != nil {
		return strings.TrimPrefix(detected.Extension(), ".")
	}
	return ""
}

// DetectMime determines the MIME type of content. SVG is decided by extension because sniffing reports it as XML or
// plain text. Content sniffing is used before falling back to the extension table.
func DetectMime(extension string, content []byte) string {
	ext := normalizeExtension(extension)
	if ext == "svg" {
		return extensionMimeTypes["svg"]
	}

	detected := mimetype.Detect(content)
	if detected != nil && !detected.Is("application/octet-stream") && !detected.Is("text/plain") {
		return strings.SplitN(detected.String(), ";", 2)[0]
	}
	return MimeForExtension(ext)
}

// DataURI formats content as a base64 data URI.
func DataURI(mime string, content []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content)
}
