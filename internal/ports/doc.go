// Package ports holds the in-memory port configuration of a batch run and
// its per-variant JSON persistence. A port is a named linear combination of
// a variant's conductors (a signs vector); its length must match the
// variant's conductor count once the variant has been solved. Mutations are
// validated before any state changes, and batch application across many
// variants is all-or-nothing.
package ports
