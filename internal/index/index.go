// Package index implements the searchable store of image signature records.
package index

import (
	"context"
	"encoding/json"

	"github.com/drforse/match/internal/signature"
)

// Record is one stored (id, path, signature, metadata) tuple. Records are
// never mutated in place; replacement is delete-old plus insert-new.
type Record struct {
	ID        string
	Path      string
	Signature signature.Signature
	Metadata  json.RawMessage

	// seq orders records by insertion for native listing and tie-breaking.
	seq uint64
}

// Match couples a stored record with its distance to the probe signature.
type Match struct {
	Distance float64
	Path     string
	Metadata json.RawMessage
}

// Store is the similarity index capability. It exposes exactly the
// operations the services consume so another backend can be substituted.
type Store interface {
	// Insert stores a new record and returns its index-assigned id.
	Insert(ctx context.Context, path string, sig signature.Signature, metadata json.RawMessage) (string, error)

	// DeleteByID removes a record. Deleting an unknown id is a no-op.
	DeleteByID(ctx context.Context, id string) error

	// IDsWithPath returns the ids of all records whose path equals path
	// exactly. A point lookup, not a similarity search.
	IDsWithPath(ctx context.Context, path string) ([]string, error)

	// SearchByDistance returns every record within cutoff of any probe,
	// ascending by distance, ties broken by insertion order. A record
	// matched by several probes counts once at its smallest distance.
	SearchByDistance(ctx context.Context, probes []signature.Signature, cutoff float64) ([]Match, error)

	// ListPaths returns up to limit record paths starting at offset in
	// insertion order.
	ListPaths(ctx context.Context, offset, limit int) ([]string, error)

	// Count returns the number of records currently stored.
	Count(ctx context.Context) (int, error)
}
