// Package cache stores rendered images keyed by a value derived from the
// request path and size specification.
//
// The renderer needs only three capabilities from a backend: Contains, Get
// and Set. Backends may also implement Deleter (used when a source image
// changes) and Pruner (used by the Janitor to expire old entries).
//
// Available backends:
//   - Memory: process-local map, safe for concurrent use
//   - Local: one file per key under a base directory
//   - S3: objects in an S3 (or S3-compatible) bucket
//   - SFTP: files on a remote host over SSH
//
// Use Config and New to build a backend from configuration.
package cache
