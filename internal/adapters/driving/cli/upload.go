package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
)

var (
	uploadContext string
	uploadWait    bool
	uploadTimeout time.Duration
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload documents into the pipeline",
	Long: `Stores each file and starts its processing.

Catalogs (--context sales) are split into products, each analysed and
embedded. Support documents (--context support) are chunked and embedded.

Without --wait the command returns once the files are stored; processing
continues the next time 'ssai serve' runs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadContext, "context", "c", "sales", "processing context: sales or support")
	uploadCmd.Flags().BoolVarP(&uploadWait, "wait", "w", false, "process now and wait for each document to finish")
	uploadCmd.Flags().DurationVar(&uploadTimeout, "timeout", 10*time.Minute, "maximum time to wait per document")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadService == nil {
		return notConfigured("upload")
	}
	who, err := owner()
	if err != nil {
		return err
	}
	dc, err := parseContext(uploadContext)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if uploadWait {
		stop := startWorker(ctx)
		defer stop()
	}

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		doc, err := uploadService.Upload(ctx, driving.UploadRequest{
			Owner:    who,
			FileName: filepath.Base(path),
			Content:  content,
			Context:  dc,
			Source:   domain.SourceUpload,
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		cmd.Printf("Uploaded %s as %s (%s)\n", path, doc.ID, doc.Status)

		if uploadWait {
			final, err := waitForDocument(ctx, who, doc.ID, uploadTimeout)
			if err != nil {
				return err
			}
			printOutcome(cmd, final)
		}
	}
	return nil
}

func printOutcome(cmd *cobra.Command, doc *domain.UploadedDocument) {
	cmd.Printf("  Status: %s\n", doc.Status)
	if doc.ErrorMessage != nil && *doc.ErrorMessage != "" {
		cmd.Printf("  Error: %s\n", *doc.ErrorMessage)
	}
}
