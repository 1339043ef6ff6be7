package ports

import "fmt"

// NameError rejects an empty or whitespace-only port name.
type NameError struct {
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid port name %q: must not be empty", e.Name)
}

// DimensionError rejects a signs vector whose length does not match the
// variant's conductor count.
type DimensionError struct {
	Variant string
	Want    int
	Got     int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: expected %d signs entries, got %d", e.Variant, e.Want, e.Got)
}

// PersistError reports a failed write of one variant's port document.
type PersistError struct {
	Variant string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting ports for %s: %v", e.Variant, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
