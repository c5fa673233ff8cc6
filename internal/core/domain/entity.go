package domain

import (
	"strings"
	"time"
)

// EntityStatus is the per-entity lifecycle, independent of the parent document.
type EntityStatus string

// Available entity statuses.
const (
	EntityPending  EntityStatus = "pending"
	EntityAnalyzed EntityStatus = "analyzed"
	EntityFailed   EntityStatus = "failed"
)

// EntityAnalysis is the structured record a model produces for one entity.
// Scalars the model could not determine are nil; lists are never nil after
// validation.
type EntityAnalysis struct {
	Name            string   `json:"product_name"`
	Type            *string  `json:"product_type"`
	Price           *string  `json:"price"`
	DiscountedPrice *string  `json:"discounted_price"`
	Features        []string `json:"features"`
	Pros            []string `json:"pros"`
	Cons            []string `json:"cons"`
	WhyBuy          *string  `json:"why_should_i_buy"`
	Summary         *string  `json:"analysis_summary"`
	SourceSnippet   *string  `json:"source_text_snippet"`
}

// EmbeddingText builds the labelled text embedded for retrieval. Only
// non-empty parts are included, in a fixed order.
func (a *EntityAnalysis) EmbeddingText() string {
	var parts []string
	add := func(label, value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			parts = append(parts, label+": "+value+".")
		}
	}

	add("Product Name", a.Name)
	add("Type", deref(a.Type))
	add("Summary", deref(a.Summary))
	add("Features", joinNonEmpty(a.Features))
	add("Pros", joinNonEmpty(a.Pros))
	add("Cons", joinNonEmpty(a.Cons))
	add("Key Selling Points", deref(a.WhyBuy))

	return strings.Join(parts, " ")
}

// ExtractedEntity is one analysed product belonging to a document.
type ExtractedEntity struct {
	// ID is the unique identifier.
	ID string

	// DocumentID is the owning document.
	DocumentID string

	// ProposedName is the name the identifier produced.
	ProposedName string

	// Analysis is the structured record. Name may be normalised by the model.
	Analysis EntityAnalysis

	// Embedding is nil when embedding failed or was skipped.
	Embedding []float32

	// Status is the per-entity outcome.
	Status EntityStatus

	// ErrorMessage explains a failed entity.
	ErrorMessage *string

	// CreatedAt orders entities for stable tie-breaks.
	CreatedAt time.Time
}

// DisplayName returns the analysed name, falling back to the proposed one.
func (e *ExtractedEntity) DisplayName() string {
	if strings.TrimSpace(e.Analysis.Name) != "" {
		return e.Analysis.Name
	}
	return e.ProposedName
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinNonEmpty(items []string) string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			kept = append(kept, strings.TrimSpace(item))
		}
	}
	return strings.Join(kept, ", ")
}
