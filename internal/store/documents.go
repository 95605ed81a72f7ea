package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Document represents an uploaded document. Rows are immutable after creation.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	OwnerID     string    `json:"owner_id"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentCreateInput is the input for creating a document.
type DocumentCreateInput struct {
	Name        string
	OwnerID     string
	StoragePath string
}

// DocumentStore provides document persistence.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Create inserts a new document row.
func (s *DocumentStore) Create(ctx context.Context, input DocumentCreateInput) (*Document, error) {
	doc := &Document{}
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO documents (name, owner_id, storage_path)
		VALUES ($1, $2, $3)
		RETURNING id, name, owner_id, storage_path, created_at
	`, input.Name, input.OwnerID, input.StoragePath).Scan(
		&doc.ID, &doc.Name, &doc.OwnerID, &doc.StoragePath, &doc.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}
	return doc, nil
}

// GetByID retrieves a document by ID.
func (s *DocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc := &Document{}
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, owner_id, storage_path, created_at
		FROM documents WHERE id = $1
	`, id).Scan(&doc.ID, &doc.Name, &doc.OwnerID, &doc.StoragePath, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// ListByOwner retrieves documents owned by the given identity, newest first.
func (s *DocumentStore) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, name, owner_id, storage_path, created_at
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.OwnerID, &d.StoragePath, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Count returns the total number of documents.
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.Pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&n)
	return n, err
}
