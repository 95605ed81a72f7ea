package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"
)

// ErrBadIdentifier is returned when a caller-supplied table or column name
// fails validation.
var ErrBadIdentifier = errors.New("invalid identifier")

// identPattern matches lower_snake_case SQL identifiers.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// AllowedTables lists the tables the embedding batch may touch. Table and
// column names arrive in request bodies and cannot be bound as SQL
// parameters, so anything outside this set is rejected outright.
var AllowedTables = map[string]bool{
	"sections": true,
}

// ValidateBatchTarget checks a table/column triple against the identifier
// rules before it is interpolated into SQL.
func ValidateBatchTarget(table, contentColumn, embeddingColumn string) error {
	if !AllowedTables[table] {
		return fmt.Errorf("%w: table %q", ErrBadIdentifier, table)
	}
	for _, col := range []string{contentColumn, embeddingColumn} {
		if !identPattern.MatchString(col) {
			return fmt.Errorf("%w: column %q", ErrBadIdentifier, col)
		}
	}
	return nil
}

// Section is a contiguous chunk of a parsed document. Embedding stays null
// until the batch stage runs.
type Section struct {
	ID         uuid.UUID       `json:"id"`
	DocumentID uuid.UUID       `json:"document_id"`
	Content    string          `json:"content"`
	Embedding  pgvector.Vector `json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
}

// SectionMeta is a section listing entry; the vector itself is not exposed.
type SectionMeta struct {
	ID           uuid.UUID `json:"id"`
	DocumentID   uuid.UUID `json:"document_id"`
	Content      string    `json:"content"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

// Row is an unembedded row selected for the batch stage.
type Row struct {
	ID      uuid.UUID
	Content string
}

// SearchResult is a section with its similarity to a query embedding.
type SearchResult struct {
	SectionID    uuid.UUID `json:"section_id"`
	DocumentID   uuid.UUID `json:"document_id"`
	DocumentName string    `json:"document_name"`
	Content      string    `json:"content"`
	Similarity   float64   `json:"similarity"`
}

// SectionStore provides section persistence and similarity search.
type SectionStore struct {
	db *DB
}

// NewSectionStore creates a new SectionStore.
func NewSectionStore(db *DB) *SectionStore {
	return &SectionStore{db: db}
}

// InsertSections inserts the given contents as sections of a document in a
// single transaction. Embeddings are left null.
func (s *SectionStore) InsertSections(ctx context.Context, documentID uuid.UUID, contents []string) (int, error) {
	inserted := 0
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		for _, content := range contents {
			if content == "" {
				continue
			}
			if err := insertSection(ctx, tx, documentID, content); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func insertSection(ctx context.Context, q DBTX, documentID uuid.UUID, content string) error {
	if _, err := q.Exec(ctx, `
		INSERT INTO sections (document_id, content) VALUES ($1, $2)
	`, documentID, content); err != nil {
		return fmt.Errorf("inserting section: %w", err)
	}
	return nil
}

// ListByDocument retrieves a document's sections in creation order.
func (s *SectionStore) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]SectionMeta, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, document_id, content, embedding IS NOT NULL, created_at
		FROM sections
		WHERE document_id = $1
		ORDER BY created_at
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing sections: %w", err)
	}
	defer rows.Close()

	var sections []SectionMeta
	for rows.Next() {
		var m SectionMeta
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.Content, &m.HasEmbedding, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, m)
	}
	return sections, rows.Err()
}

// SelectUnembedded returns rows among ids whose embedding column is still
// null. Identifiers must have been validated with ValidateBatchTarget.
func (s *SectionStore) SelectUnembedded(ctx context.Context, table, contentColumn, embeddingColumn string, ids []uuid.UUID) ([]Row, error) {
	query := fmt.Sprintf(`
		SELECT id, %s FROM %s
		WHERE id = ANY($1) AND %s IS NULL
	`, contentColumn, table, embeddingColumn)

	rows, err := s.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("selecting unembedded rows: %w", err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		var content *string
		if err := rows.Scan(&r.ID, &content); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if content != nil {
			r.Content = *content
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// UpdateEmbedding writes an embedding for a single row. Each call is an
// independent write; the batch never wraps rows in a shared transaction.
func (s *SectionStore) UpdateEmbedding(ctx context.Context, table, embeddingColumn string, id uuid.UUID, embedding pgvector.Vector) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id = $2`, table, embeddingColumn)
	tag, err := s.db.Pool.Exec(ctx, query, embedding, id)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating embedding %s: %w", id, ErrNotFound)
	}
	return nil
}

// Search runs a cosine nearest-neighbor query over embedded sections owned
// by the given identity.
func (s *SectionStore) Search(ctx context.Context, ownerID string, query pgvector.Vector, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT s.id, s.document_id, d.name, s.content, 1 - (s.embedding <=> $1) AS similarity
		FROM sections s
		JOIN documents d ON d.id = s.document_id
		WHERE d.owner_id = $2 AND s.embedding IS NOT NULL
		ORDER BY s.embedding <=> $1
		LIMIT $3
	`, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("searching sections: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.SectionID, &r.DocumentID, &r.DocumentName, &r.Content, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count returns the number of sections and how many are embedded.
func (s *SectionStore) Count(ctx context.Context) (total, embedded int, err error) {
	err = s.db.Pool.QueryRow(ctx, `
		SELECT count(*), count(embedding) FROM sections
	`).Scan(&total, &embedded)
	return total, embedded, err
}
