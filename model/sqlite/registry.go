// Package sqlite stores model metadata in a SQLite database using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/hupe1980/vecfield/engine"
	"github.com/hupe1980/vecfield/model"
)

const schema = `CREATE TABLE IF NOT EXISTS models (
	model_id    TEXT PRIMARY KEY,
	engine      TEXT NOT NULL,
	space_type  TEXT NOT NULL,
	dimension   INTEGER NOT NULL,
	state       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
)`

// Registry is a model.Store backed by a SQLite table named models.
type Registry struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and ensures the schema.
func Open(ctx context.Context, dsn string) (*Registry, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	r, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// New creates a Registry on db and ensures the schema.
func New(ctx context.Context, db *sql.DB) (*Registry, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create models table: %w", err)
	}
	return &Registry{db: db}, nil
}

// Close closes the database.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Get implements model.Registry.
func (r *Registry) Get(ctx context.Context, id string) (model.Metadata, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT engine, space_type, dimension, state, description, error, created_at
		 FROM models WHERE model_id = ?`, id)

	var (
		m         = model.Metadata{ID: id}
		engineID  string
		spaceType string
		state     string
		createdAt string
	)
	err := row.Scan(&engineID, &spaceType, &m.Dimension, &state, &m.Description, &m.Error, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Metadata{}, fmt.Errorf("%w: %q", model.ErrNotFound, id)
	}
	if err != nil {
		return model.Metadata{}, fmt.Errorf("get model %q: %w", id, err)
	}

	m.Engine = engine.ID(engineID)
	m.SpaceType = engine.SpaceType(spaceType)
	m.State = model.State(state)
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.Metadata{}, fmt.Errorf("model %q: parse created_at: %w", id, err)
	}
	return m, nil
}

// Put inserts or replaces m.
func (r *Registry) Put(ctx context.Context, m model.Metadata) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO models
		 (model_id, engine, space_type, dimension, state, description, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, string(m.Engine), string(m.SpaceType), m.Dimension, string(m.State),
		m.Description, m.Error, m.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put model %q: %w", m.ID, err)
	}
	return nil
}

// Delete removes id.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM models WHERE model_id = ?`, id); err != nil {
		return fmt.Errorf("delete model %q: %w", id, err)
	}
	return nil
}

// List returns all model ids in ascending order.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT model_id FROM models ORDER BY model_id`)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
