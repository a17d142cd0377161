package index

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/coder/hnsw"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/drforse/match/internal/metrics"
	"github.com/drforse/match/internal/signature"
)

// Memory is an in-process Store backed by an HNSW graph for nearest-neighbor
// traversal and a record table for exact lookups.
//
// Deleted records are tombstoned: the record leaves the table immediately but
// its node stays in the graph until the graph is rebuilt from a snapshot.
// Search filters tombstones out by consulting the table.
type Memory struct {
	mu       sync.RWMutex
	records  map[string]*Record
	order    []string
	graph    *hnsw.Graph[string]
	graphLen int
	nextSeq  uint64
	logger   *zap.Logger
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory index.
func NewMemory(logger *zap.Logger) *Memory {
	g := hnsw.NewGraph[string]()
	g.Distance = signature.Distance32

	return &Memory{
		records: make(map[string]*Record),
		graph:   g,
		logger:  logger,
	}
}

// Insert implements Store.
func (m *Memory) Insert(ctx context.Context, path string, sig signature.Signature, metadata json.RawMessage) (string, error) {
	id := uuid.NewString()

	vec := make([]float32, len(sig))
	copy(vec, sig)

	m.mu.Lock()
	m.nextSeq++
	m.records[id] = &Record{
		ID:        id,
		Path:      path,
		Signature: sig,
		Metadata:  metadata,
		seq:       m.nextSeq,
	}
	m.order = append(m.order, id)
	m.graph.Add(hnsw.MakeNode(id, vec))
	m.graphLen++
	// EfSearch bounds the traversal frontier; anything outside it is never
	// visited no matter how large k is. Distance-bounded queries must see
	// every node, so the frontier grows with the graph.
	if m.graphLen > m.graph.EfSearch {
		m.graph.EfSearch = m.graphLen
	}
	size := len(m.records)
	m.mu.Unlock()

	metrics.IndexRecords.Set(float64(size))
	m.logger.Debug("record inserted", zap.String("id", id), zap.String("filepath", path))
	return id, nil
}

// DeleteByID implements Store. Unknown ids succeed silently.
func (m *Memory) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.records[id]; ok {
		delete(m.records, id)
		for i, oid := range m.order {
			if oid == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	size := len(m.records)
	m.mu.Unlock()

	metrics.IndexRecords.Set(float64(size))
	return nil
}

// IDsWithPath implements Store.
func (m *Memory) IDsWithPath(ctx context.Context, path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for _, id := range m.order {
		if m.records[id].Path == path {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// SearchByDistance implements Store.
func (m *Memory) SearchByDistance(ctx context.Context, probes []signature.Signature, cutoff float64) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.graphLen == 0 || len(probes) == 0 {
		return nil, nil
	}

	// Graph traversal ranks candidates; exact distances are recomputed from
	// the stored signatures before the cutoff is applied.
	best := make(map[string]float64)
	for _, probe := range probes {
		nodes := m.graph.Search([]float32(probe), m.graphLen)
		for _, node := range nodes {
			rec, ok := m.records[node.Key]
			if !ok {
				continue // tombstoned
			}
			d, err := signature.NormalizedDistance(probe, rec.Signature)
			if err != nil {
				return nil, err
			}
			if prev, seen := best[node.Key]; !seen || d < prev {
				best[node.Key] = d
			}
		}
	}

	type hit struct {
		rec  *Record
		dist float64
	}
	hits := make([]hit, 0, len(best))
	for id, d := range best {
		if d <= cutoff {
			hits = append(hits, hit{rec: m.records[id], dist: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].rec.seq < hits[j].rec.seq
	})

	out := make([]Match, len(hits))
	for i, h := range hits {
		out[i] = Match{Distance: h.dist, Path: h.rec.Path, Metadata: h.rec.Metadata}
	}
	return out, nil
}

// ListPaths implements Store.
func (m *Memory) ListPaths(ctx context.Context, offset, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if offset >= len(m.order) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.order) {
		end = len(m.order)
	}

	paths := make([]string, 0, end-offset)
	for _, id := range m.order[offset:end] {
		paths = append(paths, m.records[id].Path)
	}
	return paths, nil
}

// Count implements Store.
func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}
