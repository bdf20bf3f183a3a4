// Package file provides a file-based change cache.
//
// The cache is a single gob-encoded map written atomically through a
// temporary file and rename. Writes go through an afero filesystem so tests
// can run against an in-memory one.
//
// The default location is ~/.cloudmirror/data/cache.gob
package file
