package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/connectors/filesystem"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

var (
	watchContext  string
	watchExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Upload files dropped into a folder",
	Long: `Watches a folder and uploads every file created or rewritten in it,
once the file has stopped changing. The pipeline worker runs in the same
process, so uploads are processed while the command runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchContext, "context", "c", "sales", "processing context: sales or support")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "upload files already in the folder first")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if uploadService == nil {
		return notConfigured("upload")
	}
	who, err := owner()
	if err != nil {
		return err
	}
	dc, err := parseContext(watchContext)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	inbox := filesystem.New(args[0], filesystem.WithMaxSize(settings.Server.MaxUploadBytes))
	defer inbox.Close()

	stop := startWorker(ctx)
	defer stop()

	upload := func(f filesystem.File) {
		doc, err := uploadService.Upload(ctx, driving.UploadRequest{
			Owner:    who,
			FileName: f.Name,
			Content:  f.Content,
			Context:  dc,
			Source:   domain.SourceWatch,
		})
		if err != nil {
			logger.Error("watch: upload %s: %v", f.Path, err)
			return
		}
		cmd.Printf("Uploaded %s as %s\n", f.Name, doc.ID)
	}

	if watchExisting {
		files, err := inbox.Scan(ctx)
		if err != nil {
			return err
		}
		for _, f := range files {
			upload(f)
		}
	}

	files, err := inbox.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", args[0], err)
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", inbox.Root())
	for f := range files {
		upload(f)
	}
	return nil
}
