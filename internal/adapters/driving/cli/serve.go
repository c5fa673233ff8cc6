package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the pipeline worker",
	Long: `Starts the stage worker and the HTTP API. Documents left waiting for
extraction, analysis or chunk embedding by an earlier process have that
stage re-dispatched on start.

The API expects the caller's email in the X-User-Email header, set by an
authenticating proxy in front of ssai.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if uploadService == nil || documentService == nil {
		return errors.New("services not configured")
	}
	ctx := cmd.Context()

	cfg := httpapi.Config{
		Addr:           settings.Server.Addr,
		MaxUploadBytes: settings.Server.MaxUploadBytes,
		ReadTimeout:    time.Duration(settings.Server.ReadTimeoutSeconds) * time.Second,
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Upload:    uploadService,
		Ingestion: ingestionService,
		Documents: documentService,
		Search:    searchService,
		Chat:      chatService,
	}, statusHub, cfg)
	if err != nil {
		return err
	}

	stop := startWorker(ctx)
	defer stop()

	if n := resumePending(ctx); n > 0 {
		logger.Info("Resumed %d pending documents", n)
	}

	cmd.Printf("Serving on %s\n", cfg.Addr)
	return server.Run(ctx)
}
