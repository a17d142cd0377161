package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/drforse/match/internal/fetch"
	"github.com/drforse/match/internal/index"
	"github.com/drforse/match/internal/metrics"
	"github.com/drforse/match/internal/signature"
)

// Config carries the process-wide defaults the services consume. It is built
// once at startup and passed in explicitly.
type Config struct {
	// DefaultMinScore is the minimum similarity score applied when a search
	// request does not carry its own threshold.
	DefaultMinScore float64
	// AllOrientations enables rotation/flip matching when a search request
	// does not say otherwise.
	AllOrientations bool
}

// SearchOptions are the per-request knobs of a search. Nil fields fall back
// to the process-wide defaults.
type SearchOptions struct {
	AllOrientations *bool
	MinScore        *float64
}

// Hit is one search result.
type Hit struct {
	Score    float64         `json:"score"`
	Filepath string          `json:"filepath"`
	Metadata json.RawMessage `json:"metadata"`
}

// Searcher translates a similarity search request into a ranked,
// score-filtered, metadata-enriched result list.
type Searcher struct {
	resolver
	store  index.Store
	cfg    Config
	logger *zap.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(store index.Store, engine *signature.Engine, fetcher *fetch.Client, cfg Config, logger *zap.Logger) *Searcher {
	return &Searcher{
		resolver: resolver{engine: engine, fetcher: fetcher},
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search finds indexed images similar to the probe. No results is a success
// with an empty list.
func (s *Searcher) Search(ctx context.Context, src ImageSource, opts SearchOptions) ([]Hit, error) {
	minScore := s.cfg.DefaultMinScore
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}
	allOrientations := s.cfg.AllOrientations
	if opts.AllOrientations != nil {
		allOrientations = *opts.AllOrientations
	}

	cutoff := DistanceFromScore(minScore)

	var probes []signature.Signature
	if allOrientations {
		sigs, err := s.signAll(ctx, src)
		if err != nil {
			return nil, err
		}
		probes = sigs
	} else {
		sig, err := s.sign(ctx, src)
		if err != nil {
			return nil, err
		}
		probes = []signature.Signature{sig}
	}

	matches, err := s.store.SearchByDistance(ctx, probes, cutoff)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(matches))
	for i, m := range matches {
		hits[i] = Hit{
			Score:    ScoreFromDistance(m.Distance),
			Filepath: m.Path,
			Metadata: m.Metadata,
		}
	}

	metrics.SearchHits.Observe(float64(len(hits)))
	s.logger.Debug("search completed",
		zap.Float64("min_score", minScore),
		zap.Bool("all_orientations", allOrientations),
		zap.Int("hits", len(hits)))
	return hits, nil
}
