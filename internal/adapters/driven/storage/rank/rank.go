// Package rank holds the similarity and filtering rules shared by every
// store adapter that scores vectors in Go rather than in the database.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

// MaxLimit caps any similarity query.
const MaxLimit = 50

// Cosine returns the cosine similarity of a and b. Vectors of different
// length, or with zero magnitude, score 0 and ok=false.
func Cosine(a, b []float32) (score float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}

// Scored pairs a candidate with its similarity.
type Scored[T any] struct {
	Item       T
	Similarity float64
}

// ClampLimit applies the default and ceiling to a requested result count.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Top scores candidates against query, keeps those at or above threshold,
// and returns at most limit of them in descending similarity. Candidates
// must be supplied in insertion order; equal scores keep that order.
func Top[T any](candidates []T, vector func(T) []float32, query []float32, threshold float64, limit int) []Scored[T] {
	kept := make([]Scored[T], 0, len(candidates))
	for _, c := range candidates {
		score, ok := Cosine(query, vector(c))
		if !ok || score < threshold {
			continue
		}
		kept = append(kept, Scored[T]{Item: c, Similarity: score})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity > kept[j].Similarity
	})

	if limit = ClampLimit(limit); len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// TypeMatches reports whether an entity's type contains filter,
// case-insensitively. An empty filter matches everything.
func TypeMatches(e *domain.ExtractedEntity, filter string) bool {
	if filter == "" {
		return true
	}
	if e.Analysis.Type == nil {
		return false
	}
	return containsFold(*e.Analysis.Type, filter)
}

// LexicalMatches applies the fallback filter: any keyword found in the
// name, summary or type, and the category found in the type.
func LexicalMatches(e *domain.ExtractedEntity, q domain.LexicalQuery) bool {
	if q.DocumentID != "" && e.DocumentID != q.DocumentID {
		return false
	}
	if !TypeMatches(e, q.Category) {
		return false
	}
	if len(q.Keywords) == 0 {
		return true
	}

	fields := []string{e.DisplayName(), deref(e.Analysis.Summary), deref(e.Analysis.Type)}
	for _, kw := range q.Keywords {
		for _, f := range fields {
			if containsFold(f, kw) {
				return true
			}
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
