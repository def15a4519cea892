// Package store holds the current dataset shared by the API handlers.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store keeps the current dataset. Load returns core.ErrNoDataset until a
// table has been saved. Implementations must be safe for concurrent use and
// must not let callers mutate the stored table.
type Store interface {
	Load(ctx context.Context) (*table.Table, error)
	Save(ctx context.Context, t *table.Table) error
}

// Filterer is implemented by stores that can select rows themselves. It
// must select the same rows as query.Processor.Filter, and fail with
// core.ErrUnsupportedOperator for operators it cannot evaluate.
type Filterer interface {
	LoadFiltered(ctx context.Context, conditions []query.Condition, logic query.LogicalOperator) (*table.Table, error)
}

// Memory is a Store that keeps the dataset in process memory.
type Memory struct {
	mu      sync.RWMutex
	current *table.Table
	version string
	savedAt time.Time
	logger  *zap.Logger
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{logger: logger}
}

// Load returns a copy of the current dataset.
func (m *Memory) Load(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, core.ErrNoDataset
	}
	return m.current.Clone(), nil
}

// Save replaces the current dataset with a copy of t.
func (m *Memory) Save(ctx context.Context, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := t.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = snapshot
	m.version = uuid.New().String()
	m.savedAt = time.Now()
	m.logger.Debug("Saved dataset",
		zap.String("version", m.version),
		zap.Int("rows", snapshot.Len()),
		zap.Int("columns", snapshot.Width()))
	return nil
}

// Version returns the id of the last save and when it happened. The id is
// empty before the first save.
func (m *Memory) Version() (string, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version, m.savedAt
}
