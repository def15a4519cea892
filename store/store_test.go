package store

import (
	"context"
	"sync"
	"testing"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	_, err := m.Load(ctx)
	assert.True(t, errors.Is(err, core.ErrNoDataset))
	v, _ := m.Version()
	assert.Empty(t, v)

	in := table.MustNew(table.MustColumn("a", schema.TypeNumber, 1, 2))
	require.NoError(t, m.Save(ctx, in))
	first, _ := m.Version()
	assert.NotEmpty(t, first)

	in.ColumnAt(0).Values[0] = 99.0
	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, got.ColumnAt(0).Values, "save must copy")

	got.ColumnAt(0).Values[1] = 42.0
	again, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, again.ColumnAt(0).Values, "load must copy")

	require.NoError(t, m.Save(ctx, again))
	second, _ := m.Version()
	assert.NotEqual(t, first, second)
}

func TestMemory_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMemory(nil)
	assert.ErrorIs(t, m.Save(ctx, table.MustNew()), context.Canceled)
	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	require.NoError(t, m.Save(ctx, table.MustNew(table.MustColumn("a", schema.TypeNumber, 1))))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = m.Save(ctx, table.MustNew(table.MustColumn("a", schema.TypeNumber, float64(i))))
				return
			}
			got, err := m.Load(ctx)
			if assert.NoError(t, err) {
				assert.Equal(t, 1, got.Len())
			}
		}(i)
	}
	wg.Wait()
}
