package index

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/coder/hnsw"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/drforse/match/internal/metrics"
	"github.com/drforse/match/internal/signature"
)

// snapshotRow is the Parquet row shape for one persisted record.
type snapshotRow struct {
	ID        string    `parquet:"id"`
	Path      string    `parquet:"path"`
	Seq       uint64    `parquet:"seq"`
	Signature []float32 `parquet:"signature"`
	Metadata  string    `parquet:"metadata"`
}

// SaveSnapshot writes the live records to path as a Parquet file. The file
// is written to a temporary sibling first and renamed into place.
func (m *Memory) SaveSnapshot(path string) error {
	start := time.Now()

	m.mu.RLock()
	rows := make([]snapshotRow, 0, len(m.order))
	for _, id := range m.order {
		rec := m.records[id]
		rows = append(rows, snapshotRow{
			ID:        rec.ID,
			Path:      rec.Path,
			Seq:       rec.seq,
			Signature: rec.Signature,
			Metadata:  string(rec.Metadata),
		})
	}
	m.mu.RUnlock()

	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows, parquet.Compression(&parquet.Zstd)); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("writing snapshot %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("committing snapshot %s: %w", path, err)
	}

	metrics.SnapshotsTotal.WithLabelValues("ok").Inc()
	metrics.SnapshotDurationSeconds.Observe(time.Since(start).Seconds())
	m.logger.Info("index snapshot saved",
		zap.String("path", path),
		zap.Int("records", len(rows)),
		zap.Duration("took", time.Since(start)))
	return nil
}

// LoadSnapshot replaces the index contents with the records persisted at
// path. A missing file leaves the index empty and is not an error.
func (m *Memory) LoadSnapshot(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		m.logger.Info("no index snapshot found", zap.String("path", path))
		return nil
	}

	rows, err := parquet.ReadFile[snapshotRow](path)
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })

	graph := hnsw.NewGraph[string]()
	graph.Distance = signature.Distance32
	if len(rows) > graph.EfSearch {
		graph.EfSearch = len(rows)
	}

	records := make(map[string]*Record, len(rows))
	order := make([]string, 0, len(rows))
	var maxSeq uint64
	for _, row := range rows {
		// An empty column value means the record was stored without
		// metadata; keep it nil so it serializes as null again.
		var meta json.RawMessage
		if row.Metadata != "" {
			meta = json.RawMessage(row.Metadata)
		}
		rec := &Record{
			ID:        row.ID,
			Path:      row.Path,
			Signature: signature.Signature(row.Signature),
			Metadata:  meta,
			seq:       row.Seq,
		}
		records[rec.ID] = rec
		order = append(order, rec.ID)
		graph.Add(hnsw.MakeNode(rec.ID, row.Signature))
		if row.Seq > maxSeq {
			maxSeq = row.Seq
		}
	}

	m.mu.Lock()
	m.records = records
	m.order = order
	m.graph = graph
	m.graphLen = len(rows)
	m.nextSeq = maxSeq
	m.mu.Unlock()

	metrics.IndexRecords.Set(float64(len(rows)))
	m.logger.Info("index snapshot loaded", zap.String("path", path), zap.Int("records", len(rows)))
	return nil
}
