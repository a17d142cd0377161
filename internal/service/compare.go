package service

import (
	"context"

	"github.com/drforse/match/internal/fetch"
	"github.com/drforse/match/internal/signature"
)

// Comparer computes the similarity of two images directly, without touching
// the index.
type Comparer struct {
	resolver
}

// NewComparer creates a Comparer.
func NewComparer(engine *signature.Engine, fetcher *fetch.Client) *Comparer {
	return &Comparer{resolver: resolver{engine: engine, fetcher: fetcher}}
}

// Compare returns the similarity score of the two images in [0, 100].
func (c *Comparer) Compare(ctx context.Context, a, b ImageSource) (float64, error) {
	sigA, err := c.sign(ctx, a)
	if err != nil {
		return 0, err
	}
	sigB, err := c.sign(ctx, b)
	if err != nil {
		return 0, err
	}

	dist, err := signature.NormalizedDistance(sigA, sigB)
	if err != nil {
		return 0, err
	}
	return ScoreFromDistance(dist), nil
}
