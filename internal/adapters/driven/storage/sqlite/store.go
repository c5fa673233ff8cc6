package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ssai/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ssai", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL lets readers proceed while a stage worker writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// EntityStore returns an EntityStore interface backed by this store.
func (s *Store) EntityStore() driven.EntityStore {
	return &entityStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// migrate applies pending schema migrations, each in its own transaction.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	pending, err := migrations.Pending(current)
	if err != nil {
		return err
	}
	for _, m := range pending {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, owner, name, media_type, size, bucket, path, context, source, status,
	extracted_text, error_message, created_at, updated_at, analyzed_at`

// CreateDocument inserts a new document row.
func (s *documentStore) CreateDocument(ctx context.Context, doc *domain.UploadedDocument) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.store.now()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Owner, doc.Name, doc.MediaType, doc.Size, doc.Bucket, doc.Path,
		string(doc.Context), string(doc.Source), string(doc.Status),
		nullString(doc.ExtractedText), nullString(doc.ErrorMessage),
		toUnix(doc.CreatedAt), toUnix(doc.UpdatedAt), nullTime(doc.AnalyzedAt))
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.UploadedDocument, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// UpdateStatus applies a status transition in a single conditional UPDATE.
func (s *documentStore) UpdateStatus(ctx context.Context, update domain.StatusUpdate) (*domain.UploadedDocument, error) {
	query := `
		UPDATE documents SET
			status = ?,
			error_message = ?,
			extracted_text = COALESCE(?, extracted_text),
			analyzed_at = COALESCE(?, analyzed_at),
			updated_at = ?
		WHERE id = ?`
	args := []any{
		string(update.Status), nullString(update.ErrorMessage), nullString(update.ExtractedText),
		nullTime(update.AnalyzedAt), toUnix(s.store.now()), update.DocumentID,
	}
	if len(update.ExpectedFrom) > 0 {
		query += ` AND status IN (` + placeholders(len(update.ExpectedFrom)) + `)`
		for _, st := range update.ExpectedFrom {
			args = append(args, string(st))
		}
	}

	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating status: %w", err)
	}

	doc, err := s.GetDocument(ctx, update.DocumentID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrStaleStatus
	}
	return doc, nil
}

// ListDocuments returns documents matching the filter, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.UploadedDocument, error) {
	var where []string
	var args []any
	if filter.Owner != "" {
		where = append(where, "owner = ?")
		args = append(args, filter.Owner)
	}
	if filter.Context != "" {
		where = append(where, "context = ?")
		args = append(args, string(filter.Context))
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}

	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.UploadedDocument, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document row. Entities and chunks cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Entity Store ====================

// entityStore implements driven.EntityStore.
type entityStore struct {
	store *Store
}

var _ driven.EntityStore = (*entityStore)(nil)

const entityColumns = `id, document_id, proposed_name, analysis, embedding, status, error_message, created_at`

// SaveEntity inserts one entity row.
func (s *entityStore) SaveEntity(ctx context.Context, entity *domain.ExtractedEntity) error {
	if entity == nil || entity.ID == "" || entity.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = s.store.now()
	}

	analysisJSON, err := json.Marshal(entity.Analysis)
	if err != nil {
		return fmt.Errorf("marshalling analysis: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO entities (`+entityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entity.ID, entity.DocumentID, entity.ProposedName, string(analysisJSON),
		float32SliceToBytes(entity.Embedding), string(entity.Status),
		nullString(entity.ErrorMessage), toUnix(entity.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	return nil
}

// ListEntities returns a document's entities in insertion order.
func (s *entityStore) ListEntities(ctx context.Context, documentID string) ([]domain.ExtractedEntity, error) {
	return s.query(ctx, `SELECT `+entityColumns+` FROM entities WHERE document_id = ? ORDER BY seq`, documentID)
}

// DeleteEntities removes every entity of a document.
func (s *entityStore) DeleteEntities(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM entities WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting entities: %w", err)
	}
	return nil
}

// MatchEntities loads embedded candidates in insertion order and ranks them.
func (s *entityStore) MatchEntities(ctx context.Context, q domain.VectorQuery) ([]domain.EntityMatch, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE embedding IS NOT NULL`
	var args []any
	if q.DocumentID != "" {
		query += " AND document_id = ?"
		args = append(args, q.DocumentID)
	}
	query += " ORDER BY seq"

	all, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	candidates := all[:0]
	for i := range all {
		if rank.TypeMatches(&all[i], q.TypeFilter) {
			candidates = append(candidates, all[i])
		}
	}

	top := rank.Top(candidates, func(e domain.ExtractedEntity) []float32 { return e.Embedding }, q.Vector, q.Threshold, q.Limit)
	matches := make([]domain.EntityMatch, len(top))
	for i, m := range top {
		matches[i] = domain.EntityMatch{Entity: m.Item, Similarity: m.Similarity}
	}
	return matches, nil
}

// FilterEntities applies the lexical fallback filter in insertion order.
func (s *entityStore) FilterEntities(ctx context.Context, q domain.LexicalQuery) ([]domain.ExtractedEntity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities`
	var args []any
	if q.DocumentID != "" {
		query += " WHERE document_id = ?"
		args = append(args, q.DocumentID)
	}
	query += " ORDER BY seq"

	all, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	result := make([]domain.ExtractedEntity, 0)
	for i := range all {
		if !rank.LexicalMatches(&all[i], q) {
			continue
		}
		result = append(result, all[i])
		if q.Limit > 0 && len(result) == q.Limit {
			break
		}
	}
	return result, nil
}

func (s *entityStore) query(ctx context.Context, query string, args ...any) ([]domain.ExtractedEntity, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	entities := make([]domain.ExtractedEntity, 0)
	for rows.Next() {
		var e domain.ExtractedEntity
		var analysisJSON string
		var embeddingBlob []byte
		var status string
		var errMsg sql.NullString
		var createdAt int64

		if err := rows.Scan(&e.ID, &e.DocumentID, &e.ProposedName, &analysisJSON,
			&embeddingBlob, &status, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		if err := json.Unmarshal([]byte(analysisJSON), &e.Analysis); err != nil {
			return nil, fmt.Errorf("unmarshalling analysis: %w", err)
		}
		e.Embedding = bytesToFloat32Slice(embeddingBlob)
		e.Status = domain.EntityStatus(status)
		e.ErrorMessage = stringPtr(errMsg)
		e.CreatedAt = fromUnix(createdAt)
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return entities, nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunk inserts one chunk row.
func (s *chunkStore) SaveChunk(ctx context.Context, chunk *domain.DocumentChunk) error {
	if chunk == nil || chunk.ID == "" || chunk.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = s.store.now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, position, text, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, chunk.ID, chunk.DocumentID, chunk.Position, chunk.Text,
		float32SliceToBytes(chunk.Embedding), toUnix(chunk.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return nil
}

// CountChunks returns the number of chunks stored for a document.
func (s *chunkStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE document_id = ?", documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// DeleteChunks removes every chunk of a document.
func (s *chunkStore) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// MatchChunks loads embedded chunks in insertion order and ranks them.
func (s *chunkStore) MatchChunks(ctx context.Context, q domain.VectorQuery) ([]domain.ChunkMatch, error) {
	query := `SELECT id, document_id, position, text, embedding, created_at FROM chunks WHERE embedding IS NOT NULL`
	var args []any
	if q.DocumentID != "" {
		query += " AND document_id = ?"
		args = append(args, q.DocumentID)
	}
	query += " ORDER BY seq"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.DocumentChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.DocumentChunk
		var embeddingBlob []byte
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Position, &c.Text, &embeddingBlob, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(embeddingBlob)
		c.CreatedAt = fromUnix(createdAt)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	top := rank.Top(candidates, func(c domain.DocumentChunk) []float32 { return c.Embedding }, q.Vector, q.Threshold, q.Limit)
	matches := make([]domain.ChunkMatch, len(top))
	for i, m := range top {
		matches[i] = domain.ChunkMatch{Chunk: m.Item, Similarity: m.Similarity}
	}
	return matches, nil
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a single document row.
func scanDocument(row rowScanner) (*domain.UploadedDocument, error) {
	var doc domain.UploadedDocument
	var docContext, source, status string
	var extracted, errMsg sql.NullString
	var createdAt, updatedAt int64
	var analyzedAt sql.NullInt64

	if err := row.Scan(&doc.ID, &doc.Owner, &doc.Name, &doc.MediaType, &doc.Size, &doc.Bucket, &doc.Path,
		&docContext, &source, &status, &extracted, &errMsg, &createdAt, &updatedAt, &analyzedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Context = domain.DocumentContext(docContext)
	doc.Source = domain.DocumentSource(source)
	doc.Status = domain.DocumentStatus(status)
	doc.ExtractedText = stringPtr(extracted)
	doc.ErrorMessage = stringPtr(errMsg)
	doc.CreatedAt = fromUnix(createdAt)
	doc.UpdatedAt = fromUnix(updatedAt)
	if analyzedAt.Valid {
		at := fromUnix(analyzedAt.Int64)
		doc.AnalyzedAt = &at
	}
	return &doc, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// Timestamps are stored as UTC unix nanoseconds so ORDER BY is numeric.
func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toUnix(*t), Valid: true}
}
