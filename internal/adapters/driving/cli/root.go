package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driving"
	"github.com/custodia-labs/sales-support-ai/internal/logger"
)

const skipServices = "skipServices"

// Options are the global flags handed to Bootstrap.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Services are the collaborators commands run against.
type Services struct {
	Settings  domain.AppSettings
	Config    driven.ConfigStore
	Validator driven.AIConfigValidator

	Upload    driving.UploadService
	Ingestion driving.IngestionService
	Documents driving.DocumentService
	Search    driving.SearchService
	Chat      driving.ChatService
	Worker    driving.Worker
	Hub       *httpapi.Hub

	// Store lists documents across owners for pipeline recovery.
	Store driven.DocumentStore

	// Close releases storage and model clients.
	Close func()
}

// BootstrapFunc builds services from the global options.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, error)

// ConfigFunc opens the settings store without building services.
type ConfigFunc func(opts Options) (driven.ConfigStore, error)

var (
	version = "dev"

	bootstrap  BootstrapFunc
	openConfig ConfigFunc

	configPath string
	verbose    bool
	ownerFlag  string

	settings         domain.AppSettings
	configStore      driven.ConfigStore
	aiValidator      driven.AIConfigValidator
	uploadService    driving.UploadService
	ingestionService driving.IngestionService
	documentService  driving.DocumentService
	searchService    driving.SearchService
	chatService      driving.ChatService
	stageWorker      driving.Worker
	statusHub        *httpapi.Hub
	documentStore    driven.DocumentStore
	closeServices    func()
)

var rootCmd = &cobra.Command{
	Use:   "ssai",
	Short: "Sales and support document assistant",
	Long: `ssai ingests product catalogs and support documents, extracts and analyses
their contents with a language model, and answers catalog searches and
support questions from the embedded results.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	defaultOwner := os.Getenv("SSAI_OWNER")
	if defaultOwner == "" {
		defaultOwner = "local@ssai"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.ssai/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", defaultOwner, "owner email documents are recorded under")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the service factory.
func SetBootstrap(b BootstrapFunc, c ConfigFunc) {
	bootstrap = b
	openConfig = c
}

// SetValidator installs the provider validator used by the config commands.
func SetValidator(v driven.AIConfigValidator) {
	aiValidator = v
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if cmd.Annotations[skipServices] == "true" || uploadService != nil || bootstrap == nil {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Options{ConfigPath: configPath, Verbose: verbose})
	if err != nil {
		return err
	}
	applyServices(svc)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeServices != nil {
		closeServices()
		closeServices = nil
	}
	return nil
}

func applyServices(s *Services) {
	settings = s.Settings
	configStore = s.Config
	if s.Validator != nil {
		aiValidator = s.Validator
	}
	uploadService = s.Upload
	ingestionService = s.Ingestion
	documentService = s.Documents
	searchService = s.Search
	chatService = s.Chat
	stageWorker = s.Worker
	statusHub = s.Hub
	documentStore = s.Store
	closeServices = s.Close
}

func owner() (string, error) {
	if ownerFlag == "" {
		return "", errors.New("--owner is required")
	}
	return ownerFlag, nil
}

func parseContext(s string) (domain.DocumentContext, error) {
	switch s {
	case "sales", string(domain.ContextSales):
		return domain.ContextSales, nil
	case "support", string(domain.ContextSupport):
		return domain.ContextSupport, nil
	default:
		return "", fmt.Errorf("unknown context %q (want sales or support)", s)
	}
}

func notConfigured(name string) error {
	return fmt.Errorf("%s service not configured", name)
}
