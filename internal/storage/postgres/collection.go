package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/food-kart/internal/docstore"
)

const (
	insertDocumentSQL = `INSERT INTO documents (collection, data) VALUES ($1, $2::jsonb) RETURNING id::text`

	listDocumentsSQL = `SELECT id::text, data FROM documents WHERE collection = $1`

	// Top-level merge: patch fields win, null patch fields are removed.
	updateDocumentSQL = `UPDATE documents
		SET data = (data || $3::jsonb) - ARRAY(
				SELECT key FROM jsonb_each($3::jsonb) WHERE jsonb_typeof(value) = 'null'
			),
			updated_at = now()
		WHERE collection = $1 AND id = $2`

	deleteDocumentSQL = `DELETE FROM documents WHERE collection = $1 AND id = $2`

	// Direction is substituted from a fixed set, the field is a parameter.
	orderedDocumentsSQL = `SELECT id::text, data FROM documents WHERE collection = $1
		ORDER BY data -> $2::text %s NULLS LAST, id`
)

var _ docstore.Collection = (*Collection)(nil)

// Collection is one named collection in the documents table.
type Collection struct {
	pool     *pgxpool.Pool
	name     string
	listener *listener
}

func (c *Collection) Add(ctx context.Context, data []byte) (string, error) {
	if !docstore.ValidObject(data) {
		return "", docstore.Fail("add", c.name, fmt.Errorf("document must be a JSON object"))
	}
	var id string
	if err := c.pool.QueryRow(ctx, insertDocumentSQL, c.name, data).Scan(&id); err != nil {
		return "", docstore.Fail("add", c.name, fmt.Errorf("inserting document: %w", err))
	}
	return id, nil
}

func (c *Collection) Get(ctx context.Context) ([]docstore.Document, error) {
	docs, err := c.query(ctx, listDocumentsSQL, c.name)
	if err != nil {
		return nil, docstore.Fail("get", c.name, err)
	}
	return docs, nil
}

func (c *Collection) Update(ctx context.Context, id string, patch []byte) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return docstore.Fail("update", c.name, docstore.ErrNotFound)
	}
	if !docstore.ValidObject(patch) {
		return docstore.Fail("update", c.name, fmt.Errorf("patch must be a JSON object"))
	}
	tag, err := c.pool.Exec(ctx, updateDocumentSQL, c.name, uid, patch)
	if err != nil {
		return docstore.Fail("update", c.name, fmt.Errorf("updating document %s: %w", id, err))
	}
	if tag.RowsAffected() == 0 {
		return docstore.Fail("update", c.name, docstore.ErrNotFound)
	}
	return nil
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, deleteDocumentSQL, c.name, uid); err != nil {
		return docstore.Fail("delete", c.name, fmt.Errorf("deleting document %s: %w", id, err))
	}
	return nil
}

func (c *Collection) Feed(q docstore.Query) docstore.ChangeFeed {
	return feed{c: c, q: q}
}

func (c *Collection) ordered(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if q.OrderBy == "" {
		docs, err := c.query(ctx, listDocumentsSQL+` ORDER BY id`, c.name)
		if err != nil {
			return nil, docstore.Fail("snapshot", c.name, err)
		}
		return docs, nil
	}
	dir := "ASC"
	if q.Direction == docstore.Desc {
		dir = "DESC"
	}
	docs, err := c.query(ctx, fmt.Sprintf(orderedDocumentsSQL, dir), c.name, q.OrderBy)
	if err != nil {
		return nil, docstore.Fail("snapshot", c.name, err)
	}
	return docs, nil
}

func (c *Collection) query(ctx context.Context, sql string, args ...any) ([]docstore.Document, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[docstore.Document])
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}
	return docs, nil
}

type feed struct {
	c *Collection
	q docstore.Query
}

func (f feed) Subscribe(onSnapshot func([]docstore.Document), onError func(error)) docstore.Unsubscribe {
	s := docstore.NewSubscription(func(ctx context.Context) ([]docstore.Document, error) {
		return f.c.ordered(ctx, f.q)
	}, onSnapshot, onError)
	f.c.listener.add(f.c.name, s)
	return func() {
		f.c.listener.remove(f.c.name, s)
		s.Close()
	}
}
