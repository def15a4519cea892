package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func openStore(t *testing.T, options *Options) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data.db"), nil, options)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func inventory() *table.Table {
	return table.MustNew(
		table.MustColumn("item", schema.TypeString, "bolt", "nut", nil, "Bolt"),
		table.MustColumn("qty", schema.TypeNumber, 10, 2.5, 7, nil),
		table.MustColumn("in_stock", schema.TypeBoolean, true, false, nil, true),
		table.MustColumn("ITEM", schema.TypeString, "x", "y", "z", "w"),
	)
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, nil)

	_, err := s.Load(ctx)
	assert.True(t, errors.Is(err, core.ErrNoDataset))

	require.NoError(t, s.Save(ctx, inventory()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(inventory().Snapshot(), got.Snapshot()); diff != "" {
		t.Errorf("loaded table mismatch (-want +got):\n%s", diff)
	}

	newer := table.MustNew(table.MustColumn("only", schema.TypeNumber, 1))
	require.NoError(t, s.Save(ctx, newer))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got.Columns())
}

func TestStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, &Options{TablePrefix: "di_", Keep: 2})

	for i := 1; i <= 3; i++ {
		values := make([]any, i)
		for j := range values {
			values[j] = float64(j)
		}
		require.NoError(t, s.Save(ctx, table.MustNew(table.MustColumn("n", schema.TypeNumber, values...))))
	}

	snaps, err := s.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 3, snaps[0].Rows)
	assert.Equal(t, 2, snaps[1].Rows)
	assert.Equal(t, []string{"n"}, snaps[0].Columns)

	old, err := s.LoadSnapshot(ctx, snaps[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, old.Len())

	_, err = s.LoadSnapshot(ctx, "missing")
	assert.True(t, errors.Is(err, core.ErrNoDataset))

	var tables int
	require.NoError(t, s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name GLOB 'di_dataset_*'").Scan(&tables))
	assert.Equal(t, 2, tables)
}

func TestStore_LoadFiltered(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, nil)
	require.NoError(t, s.Save(ctx, inventory()))
	processor := query.NewProcessor(nil)

	tests := []struct {
		name  string
		conds []query.Condition
		logic query.LogicalOperator
	}{
		{"numeric", []query.Condition{query.NewCondition("qty", ">", 5)}, ""},
		{"string equality is case sensitive", []query.Condition{query.NewCondition("item", "==", "bolt")}, ""},
		{"boolean", []query.Condition{query.NewCondition("in_stock", "==", true)}, ""},
		{"boolean order", []query.Condition{query.NewCondition("in_stock", "<", true)}, ""},
		{"or", []query.Condition{query.NewCondition("qty", "<", 3), query.NewCondition("item", "==", "Bolt")}, "or"},
		{"and", []query.Condition{query.NewCondition("qty", ">=", 2.5), query.NewCondition("in_stock", "==", false)}, "AND"},
		{"null literal", []query.Condition{query.NewCondition("qty", "==", nil)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.LoadFiltered(ctx, tt.conds, tt.logic)
			require.NoError(t, err)
			want, err := processor.Filter(inventory(), tt.conds, tt.logic)
			require.NoError(t, err)
			if diff := cmp.Diff(want.Snapshot(), got.Snapshot()); diff != "" {
				t.Errorf("pushdown differs from processor (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_LoadFilteredErrors(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, nil)
	require.NoError(t, s.Save(ctx, inventory()))

	tests := []struct {
		name string
		cond query.Condition
		want error
	}{
		{"missing column", query.NewCondition("price", ">", 1), core.ErrColumnNotFound},
		{"custom operator", query.NewCondition("item", "startswith", "b"), core.ErrUnsupportedOperator},
		{"type mismatch", query.NewCondition("qty", ">", "5"), core.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.LoadFiltered(ctx, []query.Condition{tt.cond}, "")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := s.LoadFiltered(ctx, []query.Condition{query.NewCondition("qty", ">", 1)}, "XOR")
	assert.True(t, errors.Is(err, core.ErrUnsupportedOperator))
}

func TestGenerateSelectSQL(t *testing.T) {
	q, err := NewSqliteQuery(&schema.SchemaDefinition{
		Name:    "dataset_1",
		Columns: []schema.ColumnDefinition{{Name: "a", Type: schema.TypeNumber}, {Name: "b", Type: schema.TypeBoolean}},
	})
	require.NoError(t, err)

	sqlQuery, params, err := q.GenerateSelectSQL([]query.Condition{
		query.NewCondition("a", ">", 1),
		query.NewCondition("b", "==", true),
	}, "or")
	require.NoError(t, err)
	assert.Equal(t, `SELECT c0, c1 FROM "dataset_1" WHERE (c0 > ?) OR (c1 = ?) ORDER BY row_id`, sqlQuery)
	assert.Equal(t, []any{1.0, int64(1)}, params)

	sqlQuery, params, err = q.GenerateSelectSQL(nil, "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sqlQuery, `FROM "dataset_1" ORDER BY row_id`))
	assert.Empty(t, params)

	_, err = NewSqliteQuery(&schema.SchemaDefinition{})
	assert.Error(t, err)
}

func TestCreateDataTableSQL(t *testing.T) {
	ddl := createDataTableSQL("dataset_x", schema.SchemaDefinition{Columns: []schema.ColumnDefinition{
		{Name: "a", Type: schema.TypeNumber},
		{Name: "b", Type: schema.TypeString},
		{Name: "c", Type: schema.TypeBoolean},
	}})
	assert.Contains(t, ddl, `CREATE TABLE "dataset_x"`)
	assert.Contains(t, ddl, "c0 REAL")
	assert.Contains(t, ddl, "c1 TEXT")
	assert.Contains(t, ddl, "c2 INTEGER CHECK(c2 IN (0, 1))")
	assert.Equal(t, `"we""ird"`, quoteIdentifier(`we"ird`))
}

func TestStore_LoadWhilePruning(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, &Options{Keep: 1})
	require.NoError(t, s.Save(ctx, inventory()))

	filter := []query.Condition{query.NewCondition("qty", ">", 1)}
	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < 25; i++ {
			if err := s.Save(ctx, inventory()); err != nil {
				return err
			}
		}
		return nil
	})
	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for i := 0; i < 25; i++ {
				got, err := s.LoadFiltered(ctx, filter, query.LogicalOperatorAnd)
				if err != nil {
					return err
				}
				if got.Len() != 3 {
					return errors.Newf("loaded %d rows, want 3", got.Len())
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	snapshots, err := s.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}

func TestWithBusyTimeout(t *testing.T) {
	assert.Equal(t, "data.db?_busy_timeout=5000", withBusyTimeout("data.db"))
	assert.Equal(t, "file:data.db?mode=rwc&_busy_timeout=5000", withBusyTimeout("file:data.db?mode=rwc"))
	assert.Equal(t, "data.db?_timeout=100", withBusyTimeout("data.db?_timeout=100"))
}
