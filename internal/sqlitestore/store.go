// Package sqlitestore implements store.Store on top of SQLite. Edge rows
// reference items with ON DELETE CASCADE, so deleting an item clears its
// dependencies structurally.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store handles SQLite operations for items and edges.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath and initializes the schema.
func Open(dbPath string) (*Store, error) {
	if strings.HasPrefix(dbPath, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writes serialized and foreign keys enabled.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const itemColumns = `id, title, description, kind, day, start, duration_minutes, due_urgency`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var (
		it       model.Item
		kind     string
		duration sql.NullInt64
	)
	if err := row.Scan(&it.ID, &it.Title, &it.Description, &kind, &it.Day, &it.Start, &duration, &it.DueUrgency); err != nil {
		return model.Item{}, err
	}
	it.Kind = model.ItemKind(kind)
	if duration.Valid {
		it.DurationMinutes = model.Minutes(int(duration.Int64))
	}
	return it, nil
}

func durationArg(d *int) any {
	if d == nil {
		return nil
	}
	return int64(*d)
}

// ListItems returns every item ordered by ID.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetItem retrieves a single item.
func (s *Store) GetItem(ctx context.Context, id string) (model.Item, error) {
	return getItem(ctx, s.db, id)
}

func getItem(ctx context.Context, q querier, id string) (model.Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, fmt.Errorf("item '%s': %w", id, store.ErrNotFound)
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("get item '%s': %w", id, err)
	}
	return it, nil
}

// CreateItem inserts a new item.
func (s *Store) CreateItem(ctx context.Context, item model.Item) error {
	return insertItem(ctx, s.db, item)
}

func insertItem(ctx context.Context, q querier, it model.Item) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.Title, it.Description, string(it.Kind), it.Day, it.Start, durationArg(it.DurationMinutes), it.DueUrgency,
	)
	if isConstraint(err, sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("item '%s': %w", it.ID, store.ErrItemExists)
	}
	if err != nil {
		return fmt.Errorf("insert item '%s': %w", it.ID, err)
	}
	return nil
}

// UpdateItem applies a patch inside a transaction.
func (s *Store) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error) {
	var updated model.Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getItem(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = current.Apply(patch)
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET day = ?, start = ?, duration_minutes = ? WHERE id = ?`,
			updated.Day, updated.Start, durationArg(updated.DurationMinutes), id,
		)
		if err != nil {
			return fmt.Errorf("update item '%s': %w", id, err)
		}
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return updated, nil
}

// DeleteItem removes an item; its edges go with it via ON DELETE CASCADE.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item '%s': %w", id, err)
	}
	return requireAffected(res, fmt.Sprintf("item '%s'", id))
}

// ListEdges returns every edge ordered by predecessor then successor.
func (s *Store) ListEdges(ctx context.Context) ([]model.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT predecessor_id, successor_id FROM edges ORDER BY predecessor_id, successor_id`)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var edges []model.Edge
	for rows.Next() {
		var e model.Edge
		if err := rows.Scan(&e.Predecessor, &e.Successor); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CreateEdge inserts pred -> succ.
func (s *Store) CreateEdge(ctx context.Context, pred, succ string) error {
	return insertEdge(ctx, s.db, pred, succ)
}

func insertEdge(ctx context.Context, q querier, pred, succ string) error {
	_, err := q.ExecContext(ctx, `INSERT INTO edges (predecessor_id, successor_id) VALUES (?, ?)`, pred, succ)
	switch {
	case isConstraint(err, sqlite3.ErrConstraintPrimaryKey):
		return fmt.Errorf("%s -> %s: %w", pred, succ, store.ErrEdgeExists)
	case isConstraint(err, sqlite3.ErrConstraintForeignKey):
		return fmt.Errorf("%s -> %s: endpoint %w", pred, succ, store.ErrNotFound)
	case err != nil:
		return fmt.Errorf("insert edge %s -> %s: %w", pred, succ, err)
	}
	return nil
}

// DeleteEdge removes pred -> succ.
func (s *Store) DeleteEdge(ctx context.Context, pred, succ string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM edges WHERE predecessor_id = ? AND successor_id = ?`, pred, succ)
	if err != nil {
		return fmt.Errorf("delete edge %s -> %s: %w", pred, succ, err)
	}
	return requireAffected(res, fmt.Sprintf("%s -> %s", pred, succ))
}

// ApplyBatch inserts items and edges in one transaction.
func (s *Store) ApplyBatch(ctx context.Context, items []model.Item, edges []model.Edge) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, it := range items {
			if err := insertItem(ctx, tx, it); err != nil {
				return err
			}
		}
		for _, e := range edges {
			if err := insertEdge(ctx, tx, e.Predecessor, e.Successor); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == code
}

var _ store.Store = (*Store)(nil)
