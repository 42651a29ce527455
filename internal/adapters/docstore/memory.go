package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scrumban/core/internal/ports"
)

// MemoryStore is an in-process DocumentStore. Only collections present in its
// schema exist; writes are checked against the schema's attribute lists.
type MemoryStore struct {
	mu     sync.RWMutex
	schema Schema
	docs   map[string]map[string]*ports.Document
	now    func() time.Time
}

// NewMemoryStore creates a store holding the collections named in schema.
func NewMemoryStore(schema Schema) *MemoryStore {
	s := &MemoryStore{
		schema: Schema{},
		docs:   make(map[string]map[string]*ports.Document),
		now:    time.Now,
	}
	s.EnsureSchema(context.Background(), schema)
	return s
}

// WithClock replaces the clock used for document timestamps.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// EnsureSchema creates missing collections and replaces attribute lists.
func (s *MemoryStore) EnsureSchema(_ context.Context, schema Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, attrs := range schema {
		s.schema[name] = append([]string(nil), attrs...)
		if _, ok := s.docs[name]; !ok {
			s.docs[name] = make(map[string]*ports.Document)
		}
	}
	return nil
}

func (s *MemoryStore) Create(_ context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.docs[collection]
	if !ok {
		return nil, collectionNotFound(collection)
	}
	if err := checkAttributes(collection, s.schema[collection], fields); err != nil {
		return nil, err
	}
	if id == "" {
		id = NewID()
	}
	if _, exists := docs[id]; exists {
		return nil, documentExists(collection, id)
	}

	now := s.now().UTC()
	doc := &ports.Document{
		ID:         id,
		Collection: collection,
		Fields:     copyFields(fields),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	docs[id] = doc
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*ports.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.docs[collection]
	if !ok {
		return nil, collectionNotFound(collection)
	}
	doc, ok := docs[id]
	if !ok {
		return nil, documentNotFound(collection, id)
	}
	return cloneDocument(doc), nil
}

func (s *MemoryStore) List(_ context.Context, collection string, filters ...ports.Filter) ([]*ports.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.docs[collection]
	if !ok {
		return nil, collectionNotFound(collection)
	}

	out := make([]*ports.Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc.Fields, filters) {
			out = append(out, cloneDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, collection, id string, patch map[string]interface{}) (*ports.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.docs[collection]
	if !ok {
		return nil, collectionNotFound(collection)
	}
	doc, ok := docs[id]
	if !ok {
		return nil, documentNotFound(collection, id)
	}
	if err := checkAttributes(collection, s.schema[collection], patch); err != nil {
		return nil, err
	}

	for k, v := range patch {
		doc.Fields[k] = v
	}
	doc.UpdatedAt = s.now().UTC()
	return cloneDocument(doc), nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.docs[collection]
	if !ok {
		return collectionNotFound(collection)
	}
	if _, ok := docs[id]; !ok {
		return documentNotFound(collection, id)
	}
	delete(docs, id)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func cloneDocument(doc *ports.Document) *ports.Document {
	c := *doc
	c.Fields = copyFields(doc.Fields)
	return &c
}
