package docstore

import (
	"context"

	crerr "github.com/cockroachdb/errors"
)

// ErrNotFound reports a missing document.
var ErrNotFound = crerr.New("document not found")

// Document is a raw, dynamically shaped record. Callers decode it into
// strict types at their own boundary.
type Document map[string]any

// KeyedDocument pairs a document with its store key.
type KeyedDocument struct {
	Key    string
	Fields Document
}

// Tx exposes the operations available inside RunTransaction. Reads observe
// the transaction's own uncommitted writes.
type Tx interface {
	Get(collection, key string) (Document, error)
	Set(collection, key string, fields Document, merge bool) error
	QueryByField(collection, field string, value any, limit int) ([]KeyedDocument, error)
}

// Store is a keyed document store with a limited query capability and a
// multi-document atomic read-modify-write primitive.
type Store interface {
	GetDocument(ctx context.Context, collection, key string) (Document, error)
	SetDocument(ctx context.Context, collection, key string, fields Document, merge bool) error
	QueryByField(ctx context.Context, collection, field string, value any, limit int) ([]KeyedDocument, error)
	ListAll(ctx context.Context, collection string) ([]KeyedDocument, error)
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Clone copies a document one level deep so callers cannot alias stored
// state through returned maps.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
