package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lottostack/draw-engine/internal/platform/docstore"
)

// Store is an in-memory document store. Transactions serialize on one
// mutex and buffer writes so a failed transaction leaves no trace.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]docstore.Document
}

func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]docstore.Document)}
}

func (s *Store) GetDocument(_ context.Context, collection, key string) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(collection, key)
}

func (s *Store) SetDocument(_ context.Context, collection, key string, fields docstore.Document, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(collection, key, fields, merge)
	return nil
}

func (s *Store) QueryByField(_ context.Context, collection, field string, value any, limit int) ([]docstore.KeyedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query(collection, field, value, limit), nil
}

func (s *Store) ListAll(_ context.Context, collection string) ([]docstore.KeyedDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	out := make([]docstore.KeyedDocument, 0, len(docs))
	for key, doc := range docs {
		out = append(out, docstore.KeyedDocument{Key: key, Fields: docstore.Clone(doc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) RunTransaction(_ context.Context, fn func(tx docstore.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}

	for _, w := range tx.writes {
		s.set(w.collection, w.key, w.fields, w.merge)
	}
	return nil
}

func (s *Store) get(collection, key string) (docstore.Document, error) {
	doc, ok := s.collections[collection][key]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return docstore.Clone(doc), nil
}

func (s *Store) set(collection, key string, fields docstore.Document, merge bool) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]docstore.Document)
		s.collections[collection] = docs
	}

	if merge {
		if existing, ok := docs[key]; ok {
			merged := docstore.Clone(existing)
			for k, v := range fields {
				merged[k] = v
			}
			docs[key] = merged
			return
		}
	}
	docs[key] = docstore.Clone(fields)
}

func (s *Store) query(collection, field string, value any, limit int) []docstore.KeyedDocument {
	keys := make([]string, 0, len(s.collections[collection]))
	for key := range s.collections[collection] {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []docstore.KeyedDocument
	for _, key := range keys {
		doc := s.collections[collection][key]
		if got, ok := doc[field]; !ok || got != value {
			continue
		}
		out = append(out, docstore.KeyedDocument{Key: key, Fields: docstore.Clone(doc)})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// memTx buffers writes until the transaction function returns nil. Reads
// consult the buffer first so a transaction observes its own writes.
type memTx struct {
	store  *Store
	writes []bufferedWrite
}

type bufferedWrite struct {
	collection string
	key        string
	fields     docstore.Document
	merge      bool
}

func (t *memTx) Get(collection, key string) (docstore.Document, error) {
	base, err := t.store.get(collection, key)
	if err != nil && err != docstore.ErrNotFound {
		return nil, err
	}

	found := err == nil
	for _, w := range t.writes {
		if w.collection != collection || w.key != key {
			continue
		}
		if !w.merge || !found {
			base = docstore.Clone(w.fields)
			found = true
			continue
		}
		for k, v := range w.fields {
			base[k] = v
		}
	}

	if !found {
		return nil, docstore.ErrNotFound
	}
	return base, nil
}

func (t *memTx) Set(collection, key string, fields docstore.Document, merge bool) error {
	t.writes = append(t.writes, bufferedWrite{
		collection: collection,
		key:        key,
		fields:     docstore.Clone(fields),
		merge:      merge,
	})
	return nil
}

func (t *memTx) QueryByField(collection, field string, value any, limit int) ([]docstore.KeyedDocument, error) {
	// Buffered writes are not visible to queries; the settlement engine
	// only queries before its first transactional write.
	return t.store.query(collection, field, value, limit), nil
}
