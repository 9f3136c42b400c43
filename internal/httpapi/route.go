package httpapi

import (
	"regexp"
	"strings"
)

// routePattern splits the part of a request path after the prefix into the
// source path, the size argument and the root name, for example
// "/photos/cat.jpg/200x100,C/media_resize/".
var routePattern = regexp.MustCompile(`^(?P<url>.*)/(?P<format>[,\w-]+)/(?P<path_name>[\w_-]*)/?$`)

// Route is a parsed image request.
type Route struct {
	// Path is the source path relative to the root, without a leading slash.
	Path string
	// Spec is a preset name or a size specification.
	Spec string
	// Root names the root directory; empty selects the default root.
	Root string
}

// ParseRoute matches p against the image route. The second result is false
// when p does not have the url/spec/root shape.
func ParseRoute(p string) (Route, bool) {
	m := routePattern.FindStringSubmatch(p)
	if m == nil {
		return Route{}, false
	}
	return Route{
		Path: strings.TrimPrefix(m[routePattern.SubexpIndex("url")], "/"),
		Spec: m[routePattern.SubexpIndex("format")],
		Root: m[routePattern.SubexpIndex("path_name")],
	}, true
}
