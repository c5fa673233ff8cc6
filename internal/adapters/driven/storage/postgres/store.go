package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

// Embedded server defaults.
const (
	EmbeddedPort     = 5433
	embeddedUser     = "postgres"
	embeddedPassword = "postgres"
	embeddedDatabase = "ssai"
)

// Config selects the database.
type Config struct {
	// DSN is a PostgreSQL connection string. Ignored when Embedded is set.
	DSN string

	// Embedded starts a local server with its data under DataDir.
	Embedded bool
	DataDir  string

	// Verbose logs every SQL statement.
	Verbose bool
}

// Store holds the gorm connection and, in embedded mode, the server process.
type Store struct {
	db       *gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// Open connects, enables the vector extension and migrates the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dsn := cfg.DSN
	var embedded *embeddedpostgres.EmbeddedPostgres
	if cfg.Embedded {
		embedded = embeddedpostgres.NewDatabase(embeddedConfig(cfg.DataDir))
		logger.Info("starting embedded postgres on port %d", EmbeddedPort)
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("starting embedded database: %w", err)
		}
		dsn = embeddedDSN()
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrInvalidInput)
	}

	level := gormlogger.Silent
	if cfg.Verbose {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		stopEmbedded(embedded)
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: db, embedded: embedded}
	if err := s.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func embeddedConfig(dataDir string) embeddedpostgres.Config {
	cfg := embeddedpostgres.DefaultConfig().
		Port(uint32(EmbeddedPort)).
		Database(embeddedDatabase).
		Username(embeddedUser).
		Password(embeddedPassword)
	if dataDir != "" {
		cfg = cfg.DataPath(dataDir).RuntimePath(dataDir + "-runtime")
	}
	return cfg
}

func embeddedDSN() string {
	return fmt.Sprintf("host=localhost port=%d user=%s password=%s dbname=%s sslmode=disable",
		EmbeddedPort, embeddedUser, embeddedPassword, embeddedDatabase)
}

func stopEmbedded(e *embeddedpostgres.EmbeddedPostgres) {
	if e == nil {
		return
	}
	if err := e.Stop(); err != nil {
		logger.Warn("stopping embedded postgres: %v", err)
	}
}

func (s *Store) migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enabling vector extension: %w", err)
	}
	if err := db.AutoMigrate(&documentModel{}, &entityModel{}, &chunkModel{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close closes the pool and stops the embedded server if one was started.
func (s *Store) Close() error {
	var errs []error
	if sqlDB, err := s.db.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	if s.embedded != nil {
		errs = append(errs, s.embedded.Stop())
	}
	return errors.Join(errs...)
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore { return &documentStore{db: s.db} }

// EntityStore returns an EntityStore interface backed by this store.
func (s *Store) EntityStore() driven.EntityStore { return &entityStore{db: s.db} }

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore { return &chunkStore{db: s.db} }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// ==================== Document Store ====================

type documentStore struct {
	db *gorm.DB
}

var _ driven.DocumentStore = (*documentStore)(nil)

func (s *documentStore) CreateDocument(ctx context.Context, doc *domain.UploadedDocument) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	m := toDocumentModel(doc)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	doc.CreatedAt, doc.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.UploadedDocument, error) {
	var m documentModel
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	doc := m.toDomain()
	return &doc, nil
}

func (s *documentStore) UpdateStatus(ctx context.Context, update domain.StatusUpdate) (*domain.UploadedDocument, error) {
	values := statusValues(update)
	q := s.db.WithContext(ctx).Model(&documentModel{}).Where("id = ?", update.DocumentID)
	if len(update.ExpectedFrom) > 0 {
		q = q.Where("status IN ?", statusStrings(update.ExpectedFrom))
	}
	res := q.Updates(values)
	if res.Error != nil {
		return nil, fmt.Errorf("updating status: %w", res.Error)
	}

	doc, err := s.GetDocument(ctx, update.DocumentID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrStaleStatus
	}
	return doc, nil
}

// statusValues builds the column map for a transition. A map is used so
// a nil ErrorMessage is written as NULL.
func statusValues(update domain.StatusUpdate) map[string]any {
	values := map[string]any{
		"status":        string(update.Status),
		"error_message": update.ErrorMessage,
		"updated_at":    time.Now().UTC(),
	}
	if update.ExtractedText != nil {
		values["extracted_text"] = *update.ExtractedText
	}
	if update.AnalyzedAt != nil {
		values["analyzed_at"] = update.AnalyzedAt.UTC()
	}
	return values
}

func statusStrings(statuses []domain.DocumentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (s *documentStore) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.UploadedDocument, error) {
	q := s.db.WithContext(ctx).Model(&documentModel{})
	if filter.Owner != "" {
		q = q.Where("owner = ?", filter.Owner)
	}
	if filter.Context != "" {
		q = q.Where("context = ?", string(filter.Context))
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", statusStrings(filter.Statuses))
	}
	q = q.Order("created_at DESC").Order("seq DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var models []documentModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	docs := make([]domain.UploadedDocument, len(models))
	for i := range models {
		docs[i] = models[i].toDomain()
	}
	return docs, nil
}

func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&documentModel{})
	if res.Error != nil {
		return fmt.Errorf("deleting document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Entity Store ====================

type entityStore struct {
	db *gorm.DB
}

var _ driven.EntityStore = (*entityStore)(nil)

func (s *entityStore) SaveEntity(ctx context.Context, entity *domain.ExtractedEntity) error {
	if entity == nil || entity.ID == "" || entity.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	m, err := toEntityModel(entity)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	return nil
}

func (s *entityStore) ListEntities(ctx context.Context, documentID string) ([]domain.ExtractedEntity, error) {
	var models []entityModel
	if err := s.db.WithContext(ctx).Where("document_id = ?", documentID).Order("seq").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	return entitiesToDomain(models)
}

func (s *entityStore) DeleteEntities(ctx context.Context, documentID string) error {
	if err := s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&entityModel{}).Error; err != nil {
		return fmt.Errorf("deleting entities: %w", err)
	}
	return nil
}

// similarityExpr is the pgvector cosine similarity of the row to the query.
const similarityExpr = "1 - (embedding <=> ?)"

func (s *entityStore) MatchEntities(ctx context.Context, q domain.VectorQuery) ([]domain.EntityMatch, error) {
	vec := pgvector.NewVector(q.Vector)
	query := s.db.WithContext(ctx).Model(&entityModel{}).
		Select("*, "+similarityExpr+" AS similarity", vec).
		Where("embedding IS NOT NULL").
		Where(similarityExpr+" >= ?", vec, q.Threshold)
	if q.DocumentID != "" {
		query = query.Where("document_id = ?", q.DocumentID)
	}
	if q.TypeFilter != "" {
		query = query.Where("product_type ILIKE ?", "%"+escapeLike(q.TypeFilter)+"%")
	}

	var rows []entityMatchRow
	err := query.Order("similarity DESC").Order("seq ASC").Limit(rank.ClampLimit(q.Limit)).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("matching entities: %w", err)
	}

	matches := make([]domain.EntityMatch, 0, len(rows))
	for i := range rows {
		e, err := rows[i].entityModel.toDomain()
		if err != nil {
			return nil, err
		}
		matches = append(matches, domain.EntityMatch{Entity: e, Similarity: rows[i].Similarity})
	}
	return matches, nil
}

// FilterEntities loads the scope in insertion order and applies the shared
// lexical rules, so every store answers the fallback identically.
func (s *entityStore) FilterEntities(ctx context.Context, q domain.LexicalQuery) ([]domain.ExtractedEntity, error) {
	query := s.db.WithContext(ctx).Order("seq")
	if q.DocumentID != "" {
		query = query.Where("document_id = ?", q.DocumentID)
	}
	var models []entityModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("filtering entities: %w", err)
	}
	all, err := entitiesToDomain(models)
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

func entitiesToDomain(models []entityModel) ([]domain.ExtractedEntity, error) {
	entities := make([]domain.ExtractedEntity, 0, len(models))
	for i := range models {
		e, err := models[i].toDomain()
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ==================== Chunk Store ====================

type chunkStore struct {
	db *gorm.DB
}

var _ driven.ChunkStore = (*chunkStore)(nil)

func (s *chunkStore) SaveChunk(ctx context.Context, chunk *domain.DocumentChunk) error {
	if chunk == nil || chunk.ID == "" || chunk.DocumentID == "" {
		return domain.ErrInvalidInput
	}
	m := toChunkModel(chunk)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return nil
}

func (s *chunkStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&chunkModel{}).Where("document_id = ?", documentID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return int(n), nil
}

func (s *chunkStore) DeleteChunks(ctx context.Context, documentID string) error {
	if err := s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&chunkModel{}).Error; err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func (s *chunkStore) MatchChunks(ctx context.Context, q domain.VectorQuery) ([]domain.ChunkMatch, error) {
	vec := pgvector.NewVector(q.Vector)
	query := s.db.WithContext(ctx).Model(&chunkModel{}).
		Select("*, "+similarityExpr+" AS similarity", vec).
		Where("embedding IS NOT NULL").
		Where(similarityExpr+" >= ?", vec, q.Threshold)
	if q.DocumentID != "" {
		query = query.Where("document_id = ?", q.DocumentID)
	}

	var rows []chunkMatchRow
	err := query.Order("similarity DESC").Order("seq ASC").Limit(rank.ClampLimit(q.Limit)).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("matching chunks: %w", err)
	}

	matches := make([]domain.ChunkMatch, len(rows))
	for i := range rows {
		matches[i] = domain.ChunkMatch{Chunk: rows[i].chunkModel.toDomain(), Similarity: rows[i].Similarity}
	}
	return matches, nil
}
