// Package archive persists raw fetch snapshots, delivered report files,
// and the ledger of pipeline runs.
package archive

import (
	"context"
	"time"

	"github.com/stocktide/stockwatch/pkg/model"
)

// RunFilter narrows which ledger entries a query returns.
type RunFilter struct {
	Site  string
	Since time.Time
	Limit int
}

// Store defines the persistence layer for snapshots, report files, and
// the run ledger.
type Store interface {
	// SaveSnapshot overwrites the raw payload snapshot from the latest
	// fetch and returns the path written.
	SaveSnapshot(data []byte) (string, error)

	// SaveReport writes a report CSV under the archive and returns the
	// path written.
	SaveReport(filename string, data []byte) (string, error)

	// RecordRun persists one run ledger entry.
	RecordRun(ctx context.Context, run *model.Run) error

	// ListRuns returns ledger entries matching the filter, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Close releases resources.
	Close() error
}
