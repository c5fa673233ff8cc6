package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
)

var (
	reprocessStage   string
	reprocessForce   bool
	reprocessWait    bool
	reprocessTimeout time.Duration
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess [doc-id]",
	Short: "Run one pipeline stage for a document",
	Long: `Runs a stage (extract, analyze or embed_chunks) synchronously.

A stage only starts from the statuses it accepts. --force skips the
in-progress guard but still requires the stage's inputs, such as
extracted text. With --wait, the stages that follow are run too.`,
	Args: cobra.ExactArgs(1),
	RunE: runReprocess,
}

func init() {
	reprocessCmd.Flags().StringVarP(&reprocessStage, "stage", "s", string(domain.StageExtract), "stage: extract, analyze or embed_chunks")
	reprocessCmd.Flags().BoolVarP(&reprocessForce, "force", "f", false, "run even if the document is mid-stage")
	reprocessCmd.Flags().BoolVarP(&reprocessWait, "wait", "w", false, "run the following stages and wait for a final status")
	reprocessCmd.Flags().DurationVar(&reprocessTimeout, "timeout", 10*time.Minute, "maximum time to wait")
	rootCmd.AddCommand(reprocessCmd)
}

func runReprocess(cmd *cobra.Command, args []string) error {
	if ingestionService == nil || documentService == nil {
		return notConfigured("ingestion")
	}
	who, err := owner()
	if err != nil {
		return err
	}
	stage := domain.Stage(reprocessStage)
	if !stage.IsValid() {
		return fmt.Errorf("unknown stage %q", reprocessStage)
	}
	ctx := cmd.Context()
	id := args[0]

	if _, err := documentService.Get(ctx, who, id); err != nil {
		return err
	}

	if reprocessWait {
		stop := startWorker(ctx)
		defer stop()
	}

	if err := ingestionService.RunStage(ctx, domain.StageTask{DocumentID: id, Stage: stage, Force: reprocessForce}); err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}

	var doc *domain.UploadedDocument
	if reprocessWait {
		doc, err = waitForDocument(ctx, who, id, reprocessTimeout)
		if err != nil {
			return err
		}
	} else {
		details, err := documentService.Get(ctx, who, id)
		if err != nil {
			return err
		}
		doc = &details.Document
	}
	cmd.Printf("Ran %s for %s\n", stage, id)
	printOutcome(cmd, doc)
	return nil
}
