// Package preset turns compact size specifications into sizing directives.
//
// A size specification has the form:
//
//	<width>x<height>[,<mode>[,<fill>]]
//
// where mode "C" selects a center crop, any other mode (even an empty one)
// selects a cropbox (scale to width, then pad), and fill is a hex colour
// without the leading '#'. Without a mode segment the directive is a bounded
// resize that keeps the aspect ratio.
//
// # Examples
//
//	"200x100"          -> 200x100 bounded resize
//	"200x100,C"        -> 200x100 crop
//	"200x100,X,ff0000" -> 200x100 cropbox padded with #ff0000
//
// # Named Presets
//
// Named presets are kept in a Table that is built once from configuration and
// handed to a Resolver. Lookup is by exact key; there is no partial matching.
// A Resolver tries the preset table first and falls back to parsing the
// string as a specification.
package preset
