package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scrumban/core/internal/infrastructure/database"
	"github.com/scrumban/core/internal/ports"
)

// SQLStore keeps documents as JSON rows in a relational database. Postgres
// stores them as JSONB; sqlite as TEXT queried through json_extract.
type SQLStore struct {
	db         *database.DB
	databaseID string
	bind       int
	fieldExpr  string
	dataType   string
	now        func() time.Time
}

type documentRow struct {
	ID        string `db:"id"`
	Data      []byte `db:"data"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// NewSQLStore creates a store over db scoped to databaseID.
func NewSQLStore(db *database.DB, databaseID string) *SQLStore {
	s := &SQLStore{
		db:         db,
		databaseID: databaseID,
		now:        time.Now,
	}
	if db.Driver() == "postgres" {
		s.bind = sqlx.DOLLAR
		s.fieldExpr = "data->>(?::text)"
		s.dataType = "JSONB"
	} else {
		s.bind = sqlx.QUESTION
		s.fieldExpr = "json_extract(data, '$.' || ?)"
		s.dataType = "TEXT"
	}
	return s
}

// WithClock replaces the clock used for document timestamps.
func (s *SQLStore) WithClock(now func() time.Time) *SQLStore {
	s.now = now
	return s
}

func (s *SQLStore) q(query string) string {
	return sqlx.Rebind(s.bind, query)
}

// EnsureSchema creates the storage tables and registers every collection of schema.
func (s *SQLStore) EnsureSchema(ctx context.Context, schema Schema) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			database_id TEXT NOT NULL,
			name        TEXT NOT NULL,
			attributes  TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (database_id, name)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
			database_id TEXT NOT NULL,
			collection  TEXT NOT NULL,
			id          TEXT NOT NULL,
			data        %s NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			PRIMARY KEY (database_id, collection, id)
		)`, s.dataType),
	}

	return s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range ddl {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create storage tables: %w", err)
			}
		}
		for _, name := range schema.Collections() {
			attrs, err := json.Marshal(schema[name])
			if err != nil {
				return fmt.Errorf("failed to encode attributes for %s: %w", name, err)
			}
			_, err = tx.ExecContext(ctx, s.q(`
				INSERT INTO collections (database_id, name, attributes) VALUES (?, ?, ?)
				ON CONFLICT (database_id, name) DO UPDATE SET attributes = excluded.attributes`),
				s.databaseID, name, string(attrs))
			if err != nil {
				return fmt.Errorf("failed to register collection %s: %w", name, err)
			}
		}
		return nil
	})
}

// attributes returns the attribute list of collection, or collection_not_found.
func (s *SQLStore) attributes(ctx context.Context, q sqlx.QueryerContext, collection string) ([]string, error) {
	var raw string
	err := sqlx.GetContext(ctx, q, &raw, s.q(`SELECT attributes FROM collections WHERE database_id = ? AND name = ?`), s.databaseID, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, collectionNotFound(collection)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	var attrs []string
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil, unavailable(fmt.Errorf("corrupt attributes for %s: %w", collection, err))
	}
	return attrs, nil
}

func (s *SQLStore) Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	if id == "" {
		id = NewID()
	}
	var doc *ports.Document
	err := s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		attrs, err := s.attributes(ctx, tx, collection)
		if err != nil {
			return err
		}
		if err := checkAttributes(collection, attrs, fields); err != nil {
			return err
		}

		var exists int
		err = tx.GetContext(ctx, &exists, s.q(`SELECT COUNT(1) FROM documents WHERE database_id = ? AND collection = ? AND id = ?`), s.databaseID, collection, id)
		if err != nil {
			return unavailable(err)
		}
		if exists > 0 {
			return documentExists(collection, id)
		}

		data, err := json.Marshal(fields)
		if err != nil {
			return ports.NewStoreError(http.StatusBadRequest, ports.StoreErrorInvalidStructure, "Invalid document structure: %v", err)
		}
		now := s.now().UTC()
		stamp := now.Format(time.RFC3339Nano)
		_, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO documents (database_id, collection, id, data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`),
			s.databaseID, collection, id, string(data), stamp, stamp)
		if err != nil {
			return unavailable(err)
		}

		doc = &ports.Document{ID: id, Collection: collection, Fields: copyFields(fields), CreatedAt: now, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return doc, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	if _, err := s.attributes(ctx, s.db.DB, collection); err != nil {
		return nil, err
	}
	var row documentRow
	err := s.db.DB.GetContext(ctx, &row, s.q(`
		SELECT id, data, created_at, updated_at FROM documents
		WHERE database_id = ? AND collection = ? AND id = ?`), s.databaseID, collection, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, documentNotFound(collection, id)
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return decodeRow(collection, row)
}

func (s *SQLStore) List(ctx context.Context, collection string, filters ...ports.Filter) ([]*ports.Document, error) {
	if _, err := s.attributes(ctx, s.db.DB, collection); err != nil {
		return nil, err
	}

	query := `SELECT id, data, created_at, updated_at FROM documents WHERE database_id = ? AND collection = ?`
	args := []interface{}{s.databaseID, collection}
	for _, f := range filters {
		query += " AND " + s.fieldExpr + " = ?"
		args = append(args, f.Field, f.Value)
	}
	query += " ORDER BY created_at, id"

	var rows []documentRow
	if err := s.db.DB.SelectContext(ctx, &rows, s.q(query), args...); err != nil {
		return nil, unavailable(err)
	}

	out := make([]*ports.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(collection, row)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *SQLStore) Update(ctx context.Context, collection, id string, patch map[string]interface{}) (*ports.Document, error) {
	var doc *ports.Document
	err := s.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		attrs, err := s.attributes(ctx, tx, collection)
		if err != nil {
			return err
		}

		var row documentRow
		err = tx.GetContext(ctx, &row, s.q(`
			SELECT id, data, created_at, updated_at FROM documents
			WHERE database_id = ? AND collection = ? AND id = ?`), s.databaseID, collection, id)
		if errors.Is(err, sql.ErrNoRows) {
			return documentNotFound(collection, id)
		}
		if err != nil {
			return unavailable(err)
		}
		if err := checkAttributes(collection, attrs, patch); err != nil {
			return err
		}

		current, err := decodeRow(collection, row)
		if err != nil {
			return err
		}
		for k, v := range patch {
			current.Fields[k] = v
		}
		data, err := json.Marshal(current.Fields)
		if err != nil {
			return ports.NewStoreError(http.StatusBadRequest, ports.StoreErrorInvalidStructure, "Invalid document structure: %v", err)
		}

		current.UpdatedAt = s.now().UTC()
		_, err = tx.ExecContext(ctx, s.q(`
			UPDATE documents SET data = ?, updated_at = ?
			WHERE database_id = ? AND collection = ? AND id = ?`),
			string(data), current.UpdatedAt.Format(time.RFC3339Nano), s.databaseID, collection, id)
		if err != nil {
			return unavailable(err)
		}
		doc = current
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return doc, nil
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.attributes(ctx, s.db.DB, collection); err != nil {
		return err
	}
	res, err := s.db.DB.ExecContext(ctx, s.q(`DELETE FROM documents WHERE database_id = ? AND collection = ? AND id = ?`), s.databaseID, collection, id)
	if err != nil {
		return unavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return documentNotFound(collection, id)
	}
	return nil
}

// Ping checks the underlying connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

func decodeRow(collection string, row documentRow) (*ports.Document, error) {
	fields := map[string]interface{}{}
	if err := json.Unmarshal(row.Data, &fields); err != nil {
		return nil, unavailable(fmt.Errorf("corrupt document %s/%s: %w", collection, row.ID, err))
	}
	created, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
	updated, _ := time.Parse(time.RFC3339Nano, row.UpdatedAt)
	return &ports.Document{ID: row.ID, Collection: collection, Fields: fields, CreatedAt: created, UpdatedAt: updated}, nil
}

// storeErr unwraps a StoreError that WithTransaction may have wrapped.
func storeErr(err error) error {
	var se *ports.StoreError
	if errors.As(err, &se) {
		return se
	}
	return unavailable(err)
}
