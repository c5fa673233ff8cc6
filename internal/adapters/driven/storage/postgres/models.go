package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

type documentModel struct {
	ID            string    `gorm:"primaryKey"`
	Owner         string    `gorm:"not null;index:idx_documents_owner_context"`
	Name          string    `gorm:"not null"`
	MediaType     string    `gorm:"not null;default:''"`
	Size          int64     `gorm:"not null;default:0"`
	Bucket        string    `gorm:"not null"`
	Path          string    `gorm:"not null"`
	Context       string    `gorm:"not null;index:idx_documents_owner_context"`
	Source        string    `gorm:"not null;default:upload"`
	Status        string    `gorm:"not null;index"`
	ExtractedText *string   `gorm:"type:text"`
	ErrorMessage  *string   `gorm:"type:text"`
	Seq           int64     `gorm:"autoIncrement;uniqueIndex"`
	CreatedAt     time.Time `gorm:"not null;index"`
	UpdatedAt     time.Time `gorm:"not null"`
	AnalyzedAt    *time.Time
}

func (documentModel) TableName() string { return "uploaded_documents" }

type entityModel struct {
	ID           string           `gorm:"primaryKey"`
	DocumentID   string           `gorm:"not null;index"`
	ProposedName string           `gorm:"not null"`
	ProductType  string           `gorm:"not null;default:''"`
	Analysis     datatypes.JSON   `gorm:"type:jsonb;not null"`
	Embedding    *pgvector.Vector `gorm:"type:vector"`
	Status       string           `gorm:"not null"`
	ErrorMessage *string          `gorm:"type:text"`
	Seq          int64            `gorm:"autoIncrement;uniqueIndex"`
	CreatedAt    time.Time        `gorm:"not null"`
}

func (entityModel) TableName() string { return "analyzed_products" }

type chunkModel struct {
	ID         string           `gorm:"primaryKey"`
	DocumentID string           `gorm:"not null;index"`
	Position   int              `gorm:"not null"`
	Text       string           `gorm:"type:text;not null"`
	Embedding  *pgvector.Vector `gorm:"type:vector"`
	Seq        int64            `gorm:"autoIncrement;uniqueIndex"`
	CreatedAt  time.Time        `gorm:"not null"`
}

func (chunkModel) TableName() string { return "document_chunks" }

// entityMatchRow and chunkMatchRow receive a model plus the computed score.
type entityMatchRow struct {
	entityModel `gorm:"embedded"`
	Similarity  float64
}

type chunkMatchRow struct {
	chunkModel `gorm:"embedded"`
	Similarity float64
}

func toDocumentModel(d *domain.UploadedDocument) documentModel {
	return documentModel{
		ID:            d.ID,
		Owner:         d.Owner,
		Name:          d.Name,
		MediaType:     d.MediaType,
		Size:          d.Size,
		Bucket:        d.Bucket,
		Path:          d.Path,
		Context:       string(d.Context),
		Source:        string(d.Source),
		Status:        string(d.Status),
		ExtractedText: d.ExtractedText,
		ErrorMessage:  d.ErrorMessage,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		AnalyzedAt:    d.AnalyzedAt,
	}
}

func (m *documentModel) toDomain() domain.UploadedDocument {
	return domain.UploadedDocument{
		ID:            m.ID,
		Owner:         m.Owner,
		Name:          m.Name,
		MediaType:     m.MediaType,
		Size:          m.Size,
		Bucket:        m.Bucket,
		Path:          m.Path,
		Context:       domain.DocumentContext(m.Context),
		Source:        domain.DocumentSource(m.Source),
		Status:        domain.DocumentStatus(m.Status),
		ExtractedText: m.ExtractedText,
		ErrorMessage:  m.ErrorMessage,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		AnalyzedAt:    m.AnalyzedAt,
	}
}

func toEntityModel(e *domain.ExtractedEntity) (entityModel, error) {
	analysis, err := json.Marshal(e.Analysis)
	if err != nil {
		return entityModel{}, fmt.Errorf("marshalling analysis: %w", err)
	}
	productType := ""
	if e.Analysis.Type != nil {
		productType = *e.Analysis.Type
	}
	return entityModel{
		ID:           e.ID,
		DocumentID:   e.DocumentID,
		ProposedName: e.ProposedName,
		ProductType:  productType,
		Analysis:     datatypes.JSON(analysis),
		Embedding:    toVector(e.Embedding),
		Status:       string(e.Status),
		ErrorMessage: e.ErrorMessage,
		CreatedAt:    e.CreatedAt,
	}, nil
}

func (m *entityModel) toDomain() (domain.ExtractedEntity, error) {
	e := domain.ExtractedEntity{
		ID:           m.ID,
		DocumentID:   m.DocumentID,
		ProposedName: m.ProposedName,
		Embedding:    fromVector(m.Embedding),
		Status:       domain.EntityStatus(m.Status),
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
	}
	if len(m.Analysis) > 0 {
		if err := json.Unmarshal(m.Analysis, &e.Analysis); err != nil {
			return domain.ExtractedEntity{}, fmt.Errorf("unmarshalling analysis for %s: %w", m.ID, err)
		}
	}
	return e, nil
}

func toChunkModel(c *domain.DocumentChunk) chunkModel {
	return chunkModel{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		Position:   c.Position,
		Text:       c.Text,
		Embedding:  toVector(c.Embedding),
		CreatedAt:  c.CreatedAt,
	}
}

func (m *chunkModel) toDomain() domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:         m.ID,
		DocumentID: m.DocumentID,
		Position:   m.Position,
		Text:       m.Text,
		Embedding:  fromVector(m.Embedding),
		CreatedAt:  m.CreatedAt,
	}
}

// toVector maps an absent embedding to SQL NULL.
func toVector(v []float32) *pgvector.Vector {
	if len(v) == 0 {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}

func fromVector(v *pgvector.Vector) []float32 {
	if v == nil {
		return nil
	}
	return v.Slice()
}
