package httpapi

import (
	"time"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// documentDTO is the JSON form of a document.
type documentDTO struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	MediaType    string     `json:"mime_type"`
	Size         int64      `json:"size_bytes"`
	Context      string     `json:"context"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AnalyzedAt   *time.Time `json:"analyzed_at,omitempty"`
}

func toDocumentDTO(d *domain.UploadedDocument) documentDTO {
	return documentDTO{
		ID:           d.ID,
		Name:         d.Name,
		MediaType:    d.MediaType,
		Size:         d.Size,
		Context:      string(d.Context),
		Source:       string(d.Source),
		Status:       string(d.Status),
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		AnalyzedAt:   d.AnalyzedAt,
	}
}

func toDocumentDTOs(docs []domain.UploadedDocument) []documentDTO {
	out := make([]documentDTO, len(docs))
	for i := range docs {
		out[i] = toDocumentDTO(&docs[i])
	}
	return out
}

// supportDocumentDTO matches the support document manager's listing.
type supportDocumentDTO struct {
	ID               string    `json:"id"`
	FileName         string    `json:"file_name"`
	MediaType        string    `json:"mime_type"`
	CreatedAt        time.Time `json:"created_at"`
	ProcessingStatus string    `json:"processing_status"`
	Size             int64     `json:"size_bytes"`
}

// productDTO is one analysed entity of a document.
type productDTO struct {
	ID           string                `json:"id"`
	ProposedName string                `json:"proposed_name"`
	Status       string                `json:"status"`
	ErrorMessage *string               `json:"error_message,omitempty"`
	Analysis     domain.EntityAnalysis `json:"analysis"`
	Price        domain.PriceInfo      `json:"price_info"`
}

func toProductDTO(e *domain.ExtractedEntity) productDTO {
	price, discounted := "", ""
	if e.Analysis.Price != nil {
		price = *e.Analysis.Price
	}
	if e.Analysis.DiscountedPrice != nil {
		discounted = *e.Analysis.DiscountedPrice
	}
	return productDTO{
		ID:           e.ID,
		ProposedName: e.ProposedName,
		Status:       string(e.Status),
		ErrorMessage: e.ErrorMessage,
		Analysis:     e.Analysis,
		Price:        domain.InterpretPrice(price, discounted),
	}
}

// historyTurnDTO accepts both {role, text} and {role, parts:[{text}]}.
type historyTurnDTO struct {
	Role  string `json:"role"`
	Text  string `json:"text"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func toChatTurns(history []historyTurnDTO) []domain.ChatTurn {
	turns := make([]domain.ChatTurn, 0, len(history))
	for _, h := range history {
		text := h.Text
		if text == "" && len(h.Parts) > 0 {
			text = h.Parts[0].Text
		}
		role := domain.RoleAssistant
		if h.Role == string(domain.RoleUser) {
			role = domain.RoleUser
		}
		turns = append(turns, domain.ChatTurn{Role: role, Text: text})
	}
	return turns
}
