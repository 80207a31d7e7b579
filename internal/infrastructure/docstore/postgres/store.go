package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lottostack/draw-engine/internal/platform/docstore"
)

// Store persists documents in a single jsonb-backed table. Transactions run
// at serializable isolation so a concurrent window claim cannot slip between
// the read and the write.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const getDocumentQuery = `
SELECT fields FROM documents
WHERE collection = $1 AND key = $2`

const replaceDocumentQuery = `
INSERT INTO documents (collection, key, fields)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, key)
DO UPDATE SET fields = EXCLUDED.fields, updated_at = NOW()`

const mergeDocumentQuery = `
INSERT INTO documents (collection, key, fields)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, key)
DO UPDATE SET fields = documents.fields || EXCLUDED.fields, updated_at = NOW()`

const queryByFieldQuery = `
SELECT key, fields FROM documents
WHERE collection = $1 AND fields->>$2 = $3
ORDER BY key
LIMIT $4`

const listAllQuery = `
SELECT key, fields FROM documents
WHERE collection = $1
ORDER BY key`

func (s *Store) GetDocument(ctx context.Context, collection, key string) (docstore.Document, error) {
	var raw []byte
	if err := s.db.GetContext(ctx, &raw, getDocumentQuery, collection, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collection, key, err)
	}
	return decodeFields(collection, key, raw)
}

func (s *Store) SetDocument(ctx context.Context, collection, key string, fields docstore.Document, merge bool) error {
	raw, err := encodeFields(collection, key, fields)
	if err != nil {
		return err
	}

	query := replaceDocumentQuery
	if merge {
		query = mergeDocumentQuery
	}
	if _, err := s.db.ExecContext(ctx, query, collection, key, raw); err != nil {
		return fmt.Errorf("set document %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) QueryByField(ctx context.Context, collection, field string, value any, limit int) ([]docstore.KeyedDocument, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryxContext(ctx, queryByFieldQuery, collection, field, fmt.Sprintf("%v", value), limit)
	if err != nil {
		return nil, fmt.Errorf("query documents %s by %s: %w", collection, field, err)
	}
	defer rows.Close()
	return scanKeyedDocuments(collection, rows)
}

func (s *Store) ListAll(ctx context.Context, collection string) ([]docstore.KeyedDocument, error) {
	rows, err := s.db.QueryxContext(ctx, listAllQuery, collection)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", collection, err)
	}
	defer rows.Close()
	return scanKeyedDocuments(collection, rows)
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx docstore.Tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin document transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(&pgTx{ctx: ctx, tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit document transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	ctx context.Context
	tx  *sqlx.Tx
}

func (t *pgTx) Get(collection, key string) (docstore.Document, error) {
	var raw []byte
	if err := t.tx.GetContext(t.ctx, &raw, getDocumentQuery, collection, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, docstore.ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s in tx: %w", collection, key, err)
	}
	return decodeFields(collection, key, raw)
}

func (t *pgTx) Set(collection, key string, fields docstore.Document, merge bool) error {
	raw, err := encodeFields(collection, key, fields)
	if err != nil {
		return err
	}

	query := replaceDocumentQuery
	if merge {
		query = mergeDocumentQuery
	}
	if _, err := t.tx.ExecContext(t.ctx, query, collection, key, raw); err != nil {
		return fmt.Errorf("set document %s/%s in tx: %w", collection, key, err)
	}
	return nil
}

func (t *pgTx) QueryByField(collection, field string, value any, limit int) ([]docstore.KeyedDocument, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := t.tx.QueryxContext(t.ctx, queryByFieldQuery, collection, field, fmt.Sprintf("%v", value), limit)
	if err != nil {
		return nil, fmt.Errorf("query documents %s by %s in tx: %w", collection, field, err)
	}
	defer rows.Close()
	return scanKeyedDocuments(collection, rows)
}

func encodeFields(collection, key string, fields docstore.Document) ([]byte, error) {
	if fields == nil {
		fields = docstore.Document{}
	}
	raw, err := sonic.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode document %s/%s: %w", collection, key, err)
	}
	return raw, nil
}

func decodeFields(collection, key string, raw []byte) (docstore.Document, error) {
	var fields docstore.Document
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document %s/%s: %w", collection, key, err)
	}
	return fields, nil
}

func scanKeyedDocuments(collection string, rows *sqlx.Rows) ([]docstore.KeyedDocument, error) {
	var out []docstore.KeyedDocument
	for rows.Next() {
		var (
			key string
			raw []byte
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan document row from %s: %w", collection, err)
		}
		fields, err := decodeFields(collection, key, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, docstore.KeyedDocument{Key: key, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows from %s: %w", collection, err)
	}
	return out, nil
}
