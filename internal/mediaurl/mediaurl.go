package mediaurl

import (
	"net/url"
	"strings"
)

const UploadsPrefix = "/uploads/"

// Resolve turns a photo location returned by the API into an absolute URL.
// Absolute URLs pass through; bare file names are placed under /uploads/.
func Resolve(baseURL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if u, err := url.Parse(raw); err == nil && u.IsAbs() {
		return raw
	}

	path := raw
	if !strings.HasPrefix(path, "/") {
		path = UploadsPrefix + path
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return baseURL + path
}

// FileName returns the last path segment of a photo URL, used as the upload
// name when re-sending a photo.
func FileName(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	path := u.Path
	if path == "" {
		path = raw
	}

	name := path[strings.LastIndex(path, "/")+1:]
	if name == "" {
		return "", false
	}
	return name, true
}
