package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/spiralflow/internal/ctxlog"
	"github.com/vk/spiralflow/internal/layout"
)

// Definition is one named port: a type tag plus a signs vector over the
// variant's conductors.
type Definition struct {
	Type  string    `json:"type"`
	Signs []float64 `json:"signs"`
}

// Type tags accepted for a port definition.
const (
	TypeSeries   = "series"
	TypeParallel = "parallel"
	TypeCustom   = "custom"
)

// ValidType reports whether t is one of the accepted port type tags.
func ValidType(t string) bool {
	return t == TypeSeries || t == TypeParallel || t == TypeCustom
}

// document is the serialized shape of one variant's port configuration.
type document struct {
	Ports map[string]Definition `json:"ports"`
}

// Counter reports the conductor count of a variant, 0 when unsolved.
type Counter interface {
	Count(variant string) int
}

// Store holds the port configuration of every variant in the current run.
// It is mutated only by the orchestrating goroutine; persistence happens
// only on explicit Persist calls, never implicitly.
type Store struct {
	counts Counter
	loc    layout.Locator
	ports  map[string]map[string]Definition
}

// NewStore creates an empty Store backed by the given conductor counter and
// artifact locator.
func NewStore(counts Counter, loc layout.Locator) *Store {
	return &Store{
		counts: counts,
		loc:    loc,
		ports:  make(map[string]map[string]Definition),
	}
}

// ReadDocument parses a persisted port document. Callers that tolerate a
// missing or malformed document decide that policy themselves.
func ReadDocument(path string) (map[string]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.Ports == nil {
		doc.Ports = make(map[string]Definition)
	}
	return doc.Ports, nil
}

// Load populates the store from the persisted documents of the given
// variants. A variant without a document, or with one that fails to parse,
// starts the session empty; one broken document never blocks the others.
func (s *Store) Load(ctx context.Context, variants []string) {
	logger := ctxlog.FromContext(ctx)
	for _, variant := range variants {
		path := s.loc.PortsConfig(variant)
		defs, err := ReadDocument(path)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("Ignoring unreadable port document.", "variant", variant, "error", err)
			}
			continue
		}
		s.ports[variant] = defs
		logger.Debug("Loaded persisted ports.", "variant", variant, "ports", len(defs))
	}
}

// Define inserts or replaces the named port for one variant. The name must
// be non-blank, and when the variant has been solved the signs vector must
// match its conductor count; an unsolved variant (count 0) accepts any
// length, with validation deferred until the variant is solved.
func (s *Store) Define(variant, name, portType string, signs []float64) error {
	if strings.TrimSpace(name) == "" {
		return &NameError{Name: name}
	}
	if n := s.counts.Count(variant); n != 0 && len(signs) != n {
		return &DimensionError{Variant: variant, Want: n, Got: len(signs)}
	}
	s.set(variant, name, portType, signs)
	return nil
}

// DefineForMany applies one shared definition across many variants as an
// all-or-nothing batch: every target is dimension-checked first, and if any
// fails, no variant is mutated and the full failing set is returned so the
// operator can correct the signs vector once.
func (s *Store) DefineForMany(variants []string, name, portType string, signs []float64) ([]string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &NameError{Name: name}
	}
	var failed []string
	for _, variant := range variants {
		if n := s.counts.Count(variant); n != 0 && len(signs) != n {
			failed = append(failed, variant)
		}
	}
	if len(failed) > 0 {
		return failed, nil
	}
	for _, variant := range variants {
		s.set(variant, name, portType, signs)
	}
	return nil, nil
}

// Remove deletes the named port from a variant. Removing an absent name is
// a no-op, not an error.
func (s *Store) Remove(variant, name string) {
	delete(s.ports[variant], name)
}

// Ports returns a copy of one variant's port mapping.
func (s *Store) Ports(variant string) map[string]Definition {
	out := make(map[string]Definition, len(s.ports[variant]))
	for name, def := range s.ports[variant] {
		out[name] = def
	}
	return out
}

// DefaultSigns suggests an all-+1 signs vector sized to the variant's
// conductor count. It is a pre-fill convenience only and is never
// substituted for operator input during validation.
func (s *Store) DefaultSigns(variant string) []float64 {
	n := s.counts.Count(variant)
	signs := make([]float64, n)
	for i := range signs {
		signs[i] = 1
	}
	return signs
}

// Persist writes one variant's port mapping to its analysis-directory JSON
// document, replacing any prior content. The write goes through a temporary
// file and a rename so an interruption never leaves a half-written document.
func (s *Store) Persist(ctx context.Context, variant string) error {
	logger := ctxlog.FromContext(ctx)

	if err := s.loc.EnsureAnalysisDirs(variant); err != nil {
		return &PersistError{Variant: variant, Err: err}
	}
	data, err := json.MarshalIndent(document{Ports: s.Ports(variant)}, "", "  ")
	if err != nil {
		return &PersistError{Variant: variant, Err: err}
	}

	path := s.loc.PortsConfig(variant)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ports_config-*.json")
	if err != nil {
		return &PersistError{Variant: variant, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &PersistError{Variant: variant, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &PersistError{Variant: variant, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &PersistError{Variant: variant, Err: err}
	}

	logger.Debug("Port document persisted.", "variant", variant, "path", path)
	return nil
}

// PersistAll persists every given variant, attempting the rest of the batch
// even when one fails, and returns the collected failures.
func (s *Store) PersistAll(ctx context.Context, variants []string) []error {
	var errs []error
	for _, variant := range variants {
		if err := s.Persist(ctx, variant); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (s *Store) set(variant, name, portType string, signs []float64) {
	if s.ports[variant] == nil {
		s.ports[variant] = make(map[string]Definition)
	}
	s.ports[variant][name] = Definition{Type: portType, Signs: signs}
}
