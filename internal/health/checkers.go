package health

import (
	"context"
	"os"
	"path/filepath"

	"github.com/drforse/match/internal/index"
)

// IndexChecker verifies the record index answers queries.
type IndexChecker struct {
	Store index.Store
}

func (c IndexChecker) Name() string { return "index" }

func (c IndexChecker) Check(ctx context.Context) error {
	_, err := c.Store.Count(ctx)
	return err
}

// DataDirChecker verifies the snapshot directory is writable.
type DataDirChecker struct {
	Path string
}

func (c DataDirChecker) Name() string { return "data_dir" }

func (c DataDirChecker) Check(ctx context.Context) error {
	probe := filepath.Join(c.Path, ".health")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
