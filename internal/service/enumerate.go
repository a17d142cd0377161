package service

import (
	"context"

	"github.com/drforse/match/internal/index"
)

// Enumerator exposes the index contents for pagination and introspection,
// independent of similarity.
type Enumerator struct {
	store index.Store
}

// NewEnumerator creates an Enumerator.
func NewEnumerator(store index.Store) *Enumerator {
	return &Enumerator{store: store}
}

// ListPaths returns up to limit record paths starting at offset in the
// index's native order. Negative arguments are clamped to zero.
func (e *Enumerator) ListPaths(ctx context.Context, offset, limit int) ([]string, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	return e.store.ListPaths(ctx, offset, limit)
}

// Count returns the total number of records currently in the index.
func (e *Enumerator) Count(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}
