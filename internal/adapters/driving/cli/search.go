package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

var (
	searchCount     int
	searchStrict    bool
	searchThreshold float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [doc-id] [query]",
	Short: "Search analysed products",
	Long: `Searches the products of one analysed catalog.

The query is parsed for a category and price bounds first. When no
product is similar enough, the command falls back to keyword matching.
With --strict, only vector matches above --threshold are returned.

Given only a query, products are suggested by the language model.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchCount, "count", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchStrict, "strict", false, "vector matches only, no parsing or fallback")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity for --strict (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil || documentService == nil {
		return notConfigured("search")
	}
	ctx := cmd.Context()

	var docID, query string
	if len(args) == 2 {
		docID, query = args[0], args[1]
		who, err := owner()
		if err != nil {
			return err
		}
		if _, err := documentService.Get(ctx, who, docID); err != nil {
			return err
		}
	} else {
		query = args[0]
	}

	var (
		resp *domain.SearchResponse
		err  error
	)
	if searchStrict {
		if docID == "" {
			return fmt.Errorf("--strict needs a document id")
		}
		resp, err = searchService.SearchInDocument(ctx, domain.DocumentSearchRequest{
			Query:      query,
			DocumentID: docID,
			MatchCount: searchCount,
			Threshold:  searchThreshold,
		})
	} else {
		resp, err = searchService.SearchCatalog(ctx, domain.SearchRequest{
			Query:      query,
			DocumentID: docID,
			MatchCount: searchCount,
		})
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	return outputSearchTable(cmd, resp)
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if resp.Error != "" {
		cmd.Printf("Search error: %s\n", resp.Error)
	}
	if resp.Parsed != nil && (resp.Parsed.Category != "" || resp.Parsed.MaxPrice != nil || resp.Parsed.MinPrice != nil) {
		cmd.Printf("Interpreted: %s\n", describeParsed(resp.Parsed))
	}
	if resp.Fallback {
		cmd.Println("No close matches; showing keyword matches.")
	}
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range resp.Results {
		r := &resp.Results[i]
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, r.Title, r.Score)
		cmd.Printf("      %s | %s\n", r.Category, formatPrice(r.Price))
		if r.Description != "" {
			cmd.Printf("      %s\n", r.Description)
		}
		if len(r.Features) > 0 {
			cmd.Printf("      Features: %s\n", strings.Join(r.Features, ", "))
		}
		cmd.Println()
	}
	return nil
}

func describeParsed(p *domain.ParsedQuery) string {
	var parts []string
	if p.Category != "" {
		parts = append(parts, "category "+p.Category)
	}
	if p.MinPrice != nil {
		parts = append(parts, fmt.Sprintf("from %.0f", *p.MinPrice))
	}
	if p.MaxPrice != nil {
		parts = append(parts, fmt.Sprintf("up to %.0f", *p.MaxPrice))
	}
	if len(p.Keywords) > 0 {
		parts = append(parts, "keywords "+strings.Join(p.Keywords, " "))
	}
	return strings.Join(parts, ", ")
}

func formatPrice(p domain.PriceInfo) string {
	if p.Amount == 0 {
		return "price n/a"
	}
	if p.IsOnSale {
		return fmt.Sprintf("%s %.2f (was %.2f, -%d%%)", p.Currency, p.Amount, p.OriginalPrice, p.DiscountPercent)
	}
	return fmt.Sprintf("%s %.2f", p.Currency, p.Amount)
}
