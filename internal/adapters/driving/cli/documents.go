package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage uploaded documents",
	Long:    `List, inspect or delete the documents you uploaded.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Long: `Lists analysed catalogs (--context sales, the default) or every
support document with its processing status (--context support).`,
	Args: cobra.NoArgs,
	RunE: runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a document and its products",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document with its products, chunks and file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

var (
	documentsContext string
	documentsJSON    bool
)

func init() {
	documentsListCmd.Flags().StringVarP(&documentsContext, "context", "c", "sales", "sales or support")
	documentsShowCmd.Flags().BoolVar(&documentsJSON, "json", false, "output analyses as JSON")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return notConfigured("document")
	}
	who, err := owner()
	if err != nil {
		return err
	}
	dc, err := parseContext(documentsContext)
	if err != nil {
		return err
	}

	var docs []domain.UploadedDocument
	if dc == domain.ContextSupport {
		docs, err = documentService.ListSupport(cmd.Context(), who)
	} else {
		docs, err = documentService.ListAnalyzed(cmd.Context(), who)
	}
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Name: %s\n", docs[i].Name)
		cmd.Printf("    Status: %s\n", docs[i].Status)
		cmd.Printf("    Uploaded: %s\n", docs[i].CreatedAt.Format("2006-01-02 15:04"))
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}
	who, err := owner()
	if err != nil {
		return err
	}

	details, err := documentService.Get(cmd.Context(), who, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	doc := details.Document

	if documentsJSON {
		data, err := json.MarshalIndent(details.Entities, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("ID: %s\n", doc.ID)
	cmd.Printf("Name: %s\n", doc.Name)
	cmd.Printf("Type: %s (%d bytes)\n", doc.MediaType, doc.Size)
	cmd.Printf("Context: %s\n", doc.Context)
	cmd.Printf("Source: %s\n", doc.Source)
	cmd.Printf("Status: %s\n", doc.Status)
	if doc.ErrorMessage != nil {
		cmd.Printf("Error: %s\n", *doc.ErrorMessage)
	}
	if doc.AnalyzedAt != nil {
		cmd.Printf("Analyzed: %s\n", doc.AnalyzedAt.Format("2006-01-02 15:04:05"))
	}
	if doc.HasExtractedText() {
		cmd.Printf("Text: %d characters\n", len(doc.Text()))
	}

	if doc.Context == domain.ContextSupport {
		cmd.Printf("Chunks: %d\n", details.Chunks)
		return nil
	}

	cmd.Printf("Products: %d\n\n", len(details.Entities))
	for i := range details.Entities {
		e := &details.Entities[i]
		cmd.Printf("  %s [%s]\n", e.DisplayName(), e.Status)
		a := e.Analysis
		if a.Price != nil || a.DiscountedPrice != nil {
			cmd.Printf("    Price: %s\n", formatPrice(domain.InterpretPrice(deref(a.Price), deref(a.DiscountedPrice))))
		}
		if a.Summary != nil {
			cmd.Printf("    %s\n", *a.Summary)
		}
		if len(a.Features) > 0 {
			cmd.Printf("    Features: %s\n", strings.Join(a.Features, ", "))
		}
		if e.ErrorMessage != nil {
			cmd.Printf("    Error: %s\n", *e.ErrorMessage)
		}
	}
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}
	who, err := owner()
	if err != nil {
		return err
	}
	if err := documentService.Delete(cmd.Context(), who, args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
