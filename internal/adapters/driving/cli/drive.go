package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
)

var (
	driveToken   string
	driveContext string
	driveWait    bool
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Google Drive commands",
}

var driveImportCmd = &cobra.Command{
	Use:   "import [file-id]",
	Short: "Import a Google Drive file",
	Long: `Downloads a Drive file with an OAuth access token and uploads it.
Google Docs and Slides are exported as plain text, Sheets as CSV.

The token may also be given in GOOGLE_ACCESS_TOKEN.`,
	Args: cobra.ExactArgs(1),
	RunE: runDriveImport,
}

func init() {
	driveImportCmd.Flags().StringVar(&driveToken, "token", "", "OAuth access token with drive.readonly scope")
	driveImportCmd.Flags().StringVarP(&driveContext, "context", "c", "sales", "processing context: sales or support")
	driveImportCmd.Flags().BoolVarP(&driveWait, "wait", "w", false, "process now and wait for the document to finish")
	driveCmd.AddCommand(driveImportCmd)
	rootCmd.AddCommand(driveCmd)
}

func runDriveImport(cmd *cobra.Command, args []string) error {
	if uploadService == nil {
		return notConfigured("upload")
	}
	who, err := owner()
	if err != nil {
		return err
	}
	dc, err := parseContext(driveContext)
	if err != nil {
		return err
	}
	token := driveToken
	if token == "" {
		token = os.Getenv("GOOGLE_ACCESS_TOKEN")
	}
	if token == "" {
		return errors.New("an access token is required (--token or GOOGLE_ACCESS_TOKEN)")
	}
	ctx := cmd.Context()

	if driveWait {
		stop := startWorker(ctx)
		defer stop()
	}

	doc, err := uploadService.ImportFromDrive(ctx, driving.DriveImportRequest{
		Owner:       who,
		AccessToken: token,
		FileID:      args[0],
		Context:     dc,
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	cmd.Printf("Imported %s as %s (%s)\n", doc.Name, doc.ID, doc.Status)

	if driveWait {
		final, err := waitForDocument(ctx, who, doc.ID, 10*time.Minute)
		if err != nil {
			return err
		}
		printOutcome(cmd, final)
	}
	return nil
}
