package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/scrumban/core/internal/infrastructure/config"
	"github.com/scrumban/core/internal/infrastructure/database"
	"github.com/scrumban/core/internal/ports"
)

type testStore interface {
	ports.DocumentStore
	EnsureSchema(ctx context.Context, schema Schema) error
}

type storeFactory func(t *testing.T, schema Schema) testStore

func stepClock() func() time.Time {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newMemory(t *testing.T, schema Schema) testStore {
	return NewMemoryStore(schema).WithClock(stepClock())
}

func newSQLite(t *testing.T, schema Schema) testStore {
	t.Helper()
	db, err := database.NewSQLite(config.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewSQLStore(db, "test-db").WithClock(stepClock())
	if err := store.EnsureSchema(context.Background(), schema); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}
	return store
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, newMemory)
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, newSQLite)
}

func runStoreTests(t *testing.T, newStore storeFactory) {
	t.Run("CreateAndGet", func(t *testing.T) {
		store := newStore(t, DefaultSchema())
		ctx := context.Background()

		created, err := store.Create(ctx, ports.CollectionProjects, "p1", map[string]interface{}{
			"name":         "Alpha",
			"requiresAuth": true,
			"ownerId":      "u1",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
			t.Fatalf("expected store-assigned timestamps, got %v / %v", created.CreatedAt, created.UpdatedAt)
		}

		got, err := store.Get(ctx, ports.CollectionProjects, "p1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Fields["name"] != "Alpha" || got.Fields["requiresAuth"] != true {
			t.Fatalf("unexpected fields %v", got.Fields)
		}
		if !got.CreatedAt.Equal(created.CreatedAt) {
			t.Fatalf("expected createdAt %v, got %v", created.CreatedAt, got.CreatedAt)
		}
	})

	t.Run("GeneratesIDs", func(t *testing.T) {
		store := newStore(t, DefaultSchema())

		doc, err := store.Create(context.Background(), ports.CollectionBoards, "", map[string]interface{}{"name": "B"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(doc.ID) != 32 {
			t.Fatalf("expected 32 character id, got %q", doc.ID)
		}
	})

	t.Run("DuplicateID", func(t *testing.T) {
		store := newStore(t, DefaultSchema())
		ctx := context.Background()

		if _, err := store.Create(ctx, ports.CollectionBoards, "b1", map[string]interface{}{"name": "B"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, err := store.Create(ctx, ports.CollectionBoards, "b1", map[string]interface{}{"name": "B"})
		if ports.StoreErrorCode(err) != 409 {
			t.Fatalf("expected 409, got %v", err)
		}
	})

	t.Run("MissingCollection", func(t *testing.T) {
		store := newStore(t, Schema{ports.CollectionProjects: nil})
		ctx := context.Background()

		_, err := store.List(ctx, ports.CollectionProjectShares)
		if !ports.IsSchemaMissing(err) {
			t.Fatalf("expected schema missing, got %v", err)
		}
		_, err = store.Create(ctx, ports.CollectionBoards, "", map[string]interface{}{"name": "x"})
		if !ports.IsSchemaMissing(err) {
			t.Fatalf("expected schema missing on write, got %v", err)
		}
	})

	t.Run("MissingDocument", func(t *testing.T) {
		store := newStore(t, DefaultSchema())
		ctx := context.Background()

		_, err := store.Get(ctx, ports.CollectionTasks, "nope")
		if !ports.IsDocumentNotFound(err) {
			t.Fatalf("expected document not found, got %v", err)
		}
		if err := store.Delete(ctx, ports.CollectionTasks, "nope"); !ports.IsNotFound(err) {
			t.Fatalf("expected 404 on delete, got %v", err)
		}
		if _, err := store.Update(ctx, ports.CollectionTasks, "nope", map[string]interface{}{"title": "x"}); !ports.IsNotFound(err) {
			t.Fatalf("expected 404 on update, got %v", err)
		}
	})

	t.Run("UnknownAttribute", func(t *testing.T) {
		schema := DefaultSchema().Without(ports.CollectionTasks, "statusChangedAt")
		store := newStore(t, schema)
		ctx := context.Background()

		_, err := store.Create(ctx, ports.CollectionTasks, "t1", map[string]interface{}{
			"title":           "T",
			"statusChangedAt": "2024-01-01T00:00:00Z",
		})
		if !ports.IsUnknownAttribute(err) {
			t.Fatalf("expected unknown attribute, got %v", err)
		}

		if _, err := store.Create(ctx, ports.CollectionTasks, "t1", map[string]interface{}{"title": "T"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		_, err = store.Update(ctx, ports.CollectionTasks, "t1", map[string]interface{}{"statusChangedAt": "x"})
		if !ports.IsUnknownAttribute(err) {
			t.Fatalf("expected unknown attribute on update, got %v", err)
		}
	})

	t.Run("ListWithFilters", func(t *testing.T) {
		store := newStore(t, DefaultSchema())
		ctx := context.Background()

		for id, board := range map[string]string{"t1": "b1", "t2": "b1", "t3": "b2"} {
			if _, err := store.Create(ctx, ports.CollectionTasks, id, map[string]interface{}{"title": id, "boards": board, "order": 0}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		docs, err := store.List(ctx, ports.CollectionTasks, ports.Eq("boards", "b1"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(docs) != 2 {
			t.Fatalf("expected 2 tasks, got %d", len(docs))
		}
		for _, doc := range docs {
			if doc.Fields["boards"] != "b1" {
				t.Fatalf("unexpected document %v", doc.Fields)
			}
		}

		docs, err = store.List(ctx, ports.CollectionTasks, ports.Eq("boards", "b1"), ports.Eq("title", "t2"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(docs) != 1 || docs[0].ID != "t2" {
			t.Fatalf("expected only t2, got %v", docs)
		}
	})

	t.Run("UpdateMergesAndTouches", func(t *testing.T) {
		store := newStore(t, DefaultSchema())
		ctx := context.Background()

		created, err := store.Create(ctx, ports.CollectionTasks, "t1", map[string]interface{}{"title": "T", "status": "todo"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		updated, err := store.Update(ctx, ports.CollectionTasks, "t1", map[string]interface{}{"status": "done"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if updated.Fields["title"] != "T" || updated.Fields["status"] != "done" {
			t.Fatalf("expected merged fields, got %v", updated.Fields)
		}
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Fatalf("expected updatedAt to advance, got %v then %v", created.UpdatedAt, updated.UpdatedAt)
		}
		if !updated.CreatedAt.Equal(created.CreatedAt) {
			t.Fatalf("expected createdAt to be kept, got %v", updated.CreatedAt)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t, DefaultSchema())
		ctx := context.Background()

		if _, err := store.Create(ctx, ports.CollectionBoardShares, "s1", map[string]interface{}{"boardId": "b1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := store.Delete(ctx, ports.CollectionBoardShares, "s1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := store.Get(ctx, ports.CollectionBoardShares, "s1"); !ports.IsNotFound(err) {
			t.Fatalf("expected 404 after delete, got %v", err)
		}
	})
}
