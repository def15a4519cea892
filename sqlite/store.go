// Package sqlite persists the current dataset in a SQLite database. Every
// save is kept as a snapshot: a row in the datasets table holding the
// schema, plus a data table holding the rows. Load returns the newest
// snapshot.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/asaidimu/datainsight/store"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"
)

// dbRunner abstracts the methods shared by *sql.DB and *sql.Tx so the same
// helpers run inside and outside a transaction.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Snapshot describes one saved dataset.
type Snapshot struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Rows      int       `json:"rows"`
	Columns   []string  `json:"columns"`
}

// Store is a store.Store backed by SQLite.
type Store struct {
	db               *sql.DB
	logger           *zap.Logger
	options          *Options
	generatorFactory query.QueryGeneratorFactory
}

var (
	_ store.Store    = (*Store)(nil)
	_ store.Filterer = (*Store)(nil)
)

// Open opens the database at dsn and prepares it. Unless the dsn sets its
// own, a busy timeout makes writers wait for open read transactions.
func Open(ctx context.Context, dsn string, logger *zap.Logger, options *Options) (*Store, error) {
	db, err := sql.Open("sqlite3", withBusyTimeout(dsn))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	s, err := NewStore(ctx, db, logger, options)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_busy_timeout=5000"
}

// NewStore creates a store on an open database, creating the datasets table
// when it does not exist.
func NewStore(ctx context.Context, db *sql.DB, logger *zap.Logger, options *Options) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultOptions()
	}
	s := &Store{
		db:               db,
		logger:           logger,
		options:          options,
		generatorFactory: NewSqliteQueryGeneratorFactory(),
	}
	if _, err := db.ExecContext(ctx, s.createMetaTableSQL()); err != nil {
		return nil, errors.Wrap(err, "failed to create datasets table")
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores t as a new snapshot and prunes old snapshots beyond
// Options.Keep. The whole save runs in one transaction.
func (s *Store) Save(ctx context.Context, t *table.Table) error {
	id := uuid.New().String()
	def := t.Schema()
	def.Name = s.dataTable(id)

	encoded, err := json.Marshal(def)
	if err != nil {
		return errors.Wrap(err, "failed to encode schema")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, createDataTableSQL(def.Name, def)); err != nil {
		return errors.Wrapf(err, "failed to create table %s", def.Name)
	}

	stmt, err := tx.PrepareContext(ctx, insertRowSQL(def.Name, t.Width()))
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	args := make([]any, t.Width()+1)
	for i := 0; i < t.Len(); i++ {
		args[0] = i
		for j, v := range t.Row(i) {
			args[j+1] = toStorage(v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "failed to insert row %d", i)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+s.metaTable()+" (id, created_at, row_count, schema) VALUES (?, ?, ?, ?)",
		id, time.Now().UnixMilli(), t.Len(), string(encoded))
	if err != nil {
		return errors.Wrap(err, "failed to record snapshot")
	}

	if err := s.prune(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit snapshot")
	}

	s.logger.Debug("Saved dataset snapshot",
		zap.String("id", id),
		zap.Int("rows", t.Len()),
		zap.Int("columns", t.Width()))
	return nil
}

// prune drops every snapshot older than the newest Options.Keep.
func (s *Store) prune(ctx context.Context, r dbRunner) error {
	if s.options.Keep <= 0 {
		return nil
	}
	rows, err := r.QueryContext(ctx,
		"SELECT id FROM "+s.metaTable()+" ORDER BY seq DESC LIMIT -1 OFFSET ?", s.options.Keep)
	if err != nil {
		return errors.Wrap(err, "failed to list old snapshots")
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return errors.Wrap(err, "failed to scan snapshot id")
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "failed to list old snapshots")
	}

	for _, id := range stale {
		if _, err := r.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(s.dataTable(id))); err != nil {
			return errors.Wrapf(err, "failed to drop snapshot %s", id)
		}
		if _, err := r.ExecContext(ctx, "DELETE FROM "+s.metaTable()+" WHERE id = ?", id); err != nil {
			return errors.Wrapf(err, "failed to delete snapshot %s", id)
		}
		s.logger.Debug("Pruned dataset snapshot", zap.String("id", id))
	}
	return nil
}

// Load returns the newest snapshot.
func (s *Store) Load(ctx context.Context) (*table.Table, error) {
	return s.LoadFiltered(ctx, nil, "")
}

// LoadFiltered returns the rows of the newest snapshot matching conditions.
// Filtering runs in SQLite and selects the same rows as query.Processor
// for the standard operators; other operators fail with
// core.ErrUnsupportedOperator.
func (s *Store) LoadFiltered(ctx context.Context, conditions []query.Condition, logic query.LogicalOperator) (*table.Table, error) {
	var out *table.Table
	err := s.readTx(ctx, func(tx dbRunner) error {
		def, err := s.latest(ctx, tx)
		if err != nil {
			return err
		}
		out, err = s.read(ctx, tx, def, conditions, logic)
		return err
	})
	return out, err
}

// LoadSnapshot returns the snapshot with the given id.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (*table.Table, error) {
	var out *table.Table
	err := s.readTx(ctx, func(tx dbRunner) error {
		var encoded string
		err := tx.QueryRowContext(ctx, "SELECT schema FROM "+s.metaTable()+" WHERE id = ?", id).Scan(&encoded)
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(core.ErrNoDataset, "snapshot %s", id)
		}
		if err != nil {
			return errors.Wrap(err, "failed to look up snapshot")
		}
		def, err := decodeSchema(encoded)
		if err != nil {
			return err
		}
		out, err = s.read(ctx, tx, def, nil, "")
		return err
	})
	return out, err
}

// readTx runs fn in a transaction so the snapshot it looks up cannot be
// pruned before its rows are read.
func (s *Store) readTx(ctx context.Context, fn func(tx dbRunner) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Snapshots lists the stored snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, created_at, row_count, schema FROM "+s.metaTable()+" ORDER BY seq DESC")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list snapshots")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			created int64
			encoded string
		)
		if err := rows.Scan(&snap.ID, &created, &snap.Rows, &encoded); err != nil {
			return nil, errors.Wrap(err, "failed to scan snapshot")
		}
		def, err := decodeSchema(encoded)
		if err != nil {
			return nil, err
		}
		snap.CreatedAt = time.UnixMilli(created)
		snap.Columns = def.Names()
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list snapshots")
	}
	return out, nil
}

func (s *Store) latest(ctx context.Context, r dbRunner) (*schema.SchemaDefinition, error) {
	var encoded string
	err := r.QueryRowContext(ctx, "SELECT schema FROM "+s.metaTable()+" ORDER BY seq DESC LIMIT 1").Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNoDataset
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up latest snapshot")
	}
	return decodeSchema(encoded)
}

func (s *Store) read(ctx context.Context, r dbRunner, def *schema.SchemaDefinition, conditions []query.Condition, logic query.LogicalOperator) (*table.Table, error) {
	generator, err := s.generatorFactory.CreateGenerator(def)
	if err != nil {
		return nil, errors.Wrap(err, "could not get a query generator instance")
	}
	sqlQuery, params, err := generator.GenerateSelectSQL(conditions, logic)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Executing SQL SELECT", zap.String("sql", sqlQuery), zap.Any("params", params))
	rows, err := r.QueryContext(ctx, sqlQuery, params...)
	if err != nil {
		s.logger.Error("Failed to execute SELECT query", zap.Error(err), zap.String("sql", sqlQuery))
		return nil, errors.Wrap(err, "failed to execute SELECT query")
	}
	defer rows.Close()

	columns, err := readRows(s.logger, def, rows)
	if err != nil {
		return nil, err
	}
	return table.New(columns...)
}

func decodeSchema(encoded string) (*schema.SchemaDefinition, error) {
	var def schema.SchemaDefinition
	if err := json.Unmarshal([]byte(encoded), &def); err != nil {
		return nil, errors.Wrap(err, "failed to decode snapshot schema")
	}
	return &def, nil
}
