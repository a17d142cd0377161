// Package service implements the core of the reverse-image-search system:
// path registry, retrieval, comparison and enumeration on top of the
// signature engine and the similarity index.
package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/drforse/match/internal/errors"
	"github.com/drforse/match/internal/fetch"
	"github.com/drforse/match/internal/index"
	"github.com/drforse/match/internal/signature"
)

// Registry guarantees that each logical path maps to at most one current
// record across add and delete operations.
type Registry struct {
	resolver
	store  index.Store
	logger *zap.Logger
}

// NewRegistry creates a Registry.
func NewRegistry(store index.Store, engine *signature.Engine, fetcher *fetch.Client, logger *zap.Logger) *Registry {
	return &Registry{
		resolver: resolver{engine: engine, fetcher: fetcher},
		store:    store,
		logger:   logger,
	}
}

// Add indexes the image under its path, replacing any records previously
// stored for that path. The new record is inserted before the old ones are
// retired: a failed insert must not leave the path unresolvable, at the cost
// of a short window during which both records are live.
func (r *Registry) Add(ctx context.Context, src ImageSource, metadata json.RawMessage) error {
	path := src.Path()
	if path == "" {
		return errors.NewInvalidInput("add", "filepath must be provided if image is passed as raw bytes")
	}

	oldIDs, err := r.store.IDsWithPath(ctx, path)
	if err != nil {
		return err
	}

	sig, err := r.sign(ctx, src)
	if err != nil {
		return err
	}

	id, err := r.store.Insert(ctx, path, sig, metadata)
	if err != nil {
		return err
	}

	if err := r.retire(ctx, oldIDs); err != nil {
		return err
	}

	r.logger.Info("image added",
		zap.String("filepath", path),
		zap.String("id", id),
		zap.Int("replaced", len(oldIDs)))
	return nil
}

// Delete retires every record stored under path. A path with no records is a
// no-op success.
func (r *Registry) Delete(ctx context.Context, path string) error {
	if path == "" {
		return errors.NewInvalidInput("delete", "filepath is required")
	}

	ids, err := r.store.IDsWithPath(ctx, path)
	if err != nil {
		return err
	}
	if err := r.retire(ctx, ids); err != nil {
		return err
	}

	r.logger.Info("image deleted", zap.String("filepath", path), zap.Int("records", len(ids)))
	return nil
}

// retire deletes each id. Deletion of a nonexistent id is not an error.
func (r *Registry) retire(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := r.store.DeleteByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
