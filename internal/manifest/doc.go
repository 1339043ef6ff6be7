// Package manifest parses and validates the address manifest: the plain-text
// file enumerating the geometry-variant directories of a batch run. Each
// non-blank line is one variant directory, optionally quoted; relative
// entries are resolved against the manifest's own directory so that every
// consumer sees the same canonical absolute path for the same physical
// variant.
package manifest
