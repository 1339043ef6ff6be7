package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/spiralflow/internal/ctxlog"
)

// ReadError reports a manifest file that could not be read at all.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading manifest %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// MissingError reports manifest entries whose directories do not exist on
// disk. The run may only proceed past it when the operator explicitly opts
// to skip the missing variants.
type MissingError struct {
	Missing []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%d variant directories from the manifest are missing: %s",
		len(e.Missing), strings.Join(e.Missing, ", "))
}

// Parse reads the manifest at path and returns its variant directories in
// file order. Lines are trimmed of whitespace and of one layer of
// surrounding single or double quotes; blank lines are skipped. Relative
// entries are resolved against the manifest's parent directory, and every
// entry is canonicalized so two spellings of the same physical directory
// collapse into a single registry entry.
func Parse(ctx context.Context, path string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool)
	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		entry := trimQuotes(strings.TrimSpace(line))
		if entry == "" {
			continue
		}
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(base, entry)
		}
		resolved := canonicalize(entry)
		if seen[resolved] {
			logger.Debug("Skipping duplicate manifest entry.", "entry", line, "resolved", resolved)
			continue
		}
		seen[resolved] = true
		entries = append(entries, resolved)
	}

	logger.Debug("Manifest parsed.", "path", path, "entries", len(entries))
	return entries, nil
}

// Validate returns the subset of entries that do not exist on disk.
// An empty result means every entry is usable.
func Validate(entries []string) []string {
	var missing []string
	for _, entry := range entries {
		if _, err := os.Stat(entry); err != nil {
			missing = append(missing, entry)
		}
	}
	return missing
}

// trimQuotes strips a single layer of matching surrounding quote characters.
func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// canonicalize makes the path absolute and resolves symlinks when the path
// exists. A nonexistent path is still cleaned and absolutized so Validate
// can report it in a stable form.
func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
