// Package render is the single entry point that turns a source path and a
// size argument into encoded image bytes.
//
// A render resolves the root directory, checks the cache, resolves the size
// argument through a preset.Resolver, applies the fit strategy, encodes the
// result in the format chosen from the file extension, and writes it through
// to the cache.
//
// Errors:
//   - ErrNotFound: unknown root, missing file, or a path outside its root
//   - ErrInvalidSpec: size argument is not a preset or a specification
//   - preset.ErrDegenerate, preset.ErrConflictingModes, imaging.ErrInvalidFill:
//     the directive cannot be applied
//   - anything else: decode or encode failure
package render
