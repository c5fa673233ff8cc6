package domain

// ComparisonQuestion is a multiple-choice question that helps tell a set of
// products apart.
type ComparisonQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Recommendation names the compared product that best fits a shopper's
// answers.
type Recommendation struct {
	RecommendedProductID string `json:"recommendedProductId"`
	Explanation          string `json:"explanation"`
}

// CompareRequest carries the products being compared and, once the shopper
// has answered the questions, the chosen option per question ID.
type CompareRequest struct {
	Products []SearchResult
	Answers  map[string]string
}
