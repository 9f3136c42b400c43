// Package httpapi serves rendered images over HTTP with fiber.
//
// Image URLs have the form
//
//	<prefix>/<path>/<size>/[<root>/]
//
// where size is a preset name or a specification such as "200x100,C", and
// root selects one of the configured root directories. Responses carry
// Last-Modified (source modification time), Expires and Cache-Control
// headers, and conditional requests are answered with 304.
//
// Unknown sizes and missing files return 404. Sizes that parse but cannot be
// applied (zero dimensions, bad fill colour) return 400.
package httpapi
