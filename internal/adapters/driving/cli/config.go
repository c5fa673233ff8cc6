package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and edit settings",
	Long: `View and configure model providers, storage and pipeline settings.

Settings are read from ~/.ssai/config.toml (or --config, TOML or YAML) and
overridden by environment variables such as GEMINI_API_KEY and
SSAI_DATABASE_URL.`,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:         "validate",
	Short:       "Check settings and ping the model providers",
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runConfigValidate,
}

var configWizardCmd = &cobra.Command{
	Use:         "wizard",
	Short:       "Interactive provider setup",
	Long:        `Run an interactive wizard to choose the embedding and LLM providers.`,
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runConfigWizard,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configWizardCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig() (driven.ConfigStore, domain.AppSettings, error) {
	store := configStore
	if store == nil {
		if openConfig == nil {
			return nil, domain.AppSettings{}, errors.New("config store not configured")
		}
		var err error
		store, err = openConfig(Options{ConfigPath: configPath, Verbose: verbose})
		if err != nil {
			return nil, domain.AppSettings{}, err
		}
	}
	s, err := store.Load()
	if err != nil {
		return store, domain.AppSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return store, s, nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, s, err := loadConfig()
	if err != nil {
		return err
	}

	cmd.Printf("Settings (%s)\n", store.Path())
	cmd.Println("========")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey, s.Embedding.IsConfigured())
	cmd.Printf("  Dimensions: %d\n", s.Embedding.Dimensions)
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured())
	cmd.Println()

	p := s.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunks: %d chars, %d overlap\n", p.ChunkSize, p.ChunkOverlap)
	cmd.Printf("  Identify prefix: %d chars, embed limit: %d chars\n", p.IdentifyPrefix, p.EmbedLimit)
	cmd.Printf("  Workers: %d, queue: %d, per-document concurrency: %d\n", p.Workers, p.QueueCapacity, p.EntityConcurrency)
	cmd.Printf("  Model rate: %.1f/s (burst %d)\n", p.RequestsPerSecond, p.Burst)
	cmd.Println()

	r := s.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  Thresholds: sales %.2f, document %.2f, chat %.2f\n", r.SalesThreshold, r.DocumentThreshold, r.ChatThreshold)
	cmd.Printf("  Results: %d default, %d max\n", r.DefaultCount, r.MaxCount)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Driver: %s\n", s.Storage.Driver)
	if s.Storage.DSN != "" {
		cmd.Printf("  DSN: %s\n", maskDSN(s.Storage.DSN))
	}
	if s.Storage.EmbeddedPostgres {
		cmd.Println("  Embedded postgres: yes")
	}
	cmd.Printf("  Data dir: %s\n", s.Storage.DataDir)
	cmd.Printf("  Blobs: %s %s\n", s.Blob.Driver, s.Blob.Path)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", s.Server.Addr)
	cmd.Printf("  Max upload: %d bytes\n", s.Server.MaxUploadBytes)
	return nil
}

func printProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", p.Description())
	cmd.Printf("  Model: %s\n", model)
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	_, s, err := loadConfig()
	if err != nil {
		return err
	}
	cmd.Println("Settings are valid.")

	if aiValidator == nil {
		return nil
	}
	ctx := cmd.Context()
	var failed bool
	check := func(name string, fn func(context.Context) error) {
		cmd.Printf("Checking %s... ", name)
		if err := fn(ctx); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			failed = true
			return
		}
		cmd.Println("OK")
	}
	check("embedding provider", func(ctx context.Context) error { return aiValidator.ValidateEmbedding(ctx, &s.Embedding) })
	check("LLM provider", func(ctx context.Context) error { return aiValidator.ValidateLLM(ctx, &s.LLM) })
	if failed {
		return errors.New("provider validation failed")
	}
	return nil
}

func runConfigWizard(cmd *cobra.Command, _ []string) error {
	store, s, err := loadConfig()
	if err != nil {
		return err
	}

	cmd.Println("ssai Settings Wizard")
	cmd.Println("====================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	provider, model, key, err := chooseProvider(cmd, reader, domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}
	s.Embedding.Provider, s.Embedding.Model, s.Embedding.APIKey = provider, model, key
	if dims, ok := domain.EmbeddingDimensions()[model]; ok {
		s.Embedding.Dimensions = dims
	}
	cmd.Println()

	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	provider, model, key, err = chooseProvider(cmd, reader, domain.AllLLMProviders(), domain.DefaultLLMModels())
	if err != nil {
		return err
	}
	s.LLM.Provider, s.LLM.Model, s.LLM.APIKey = provider, model, key
	cmd.Println()

	if aiValidator != nil {
		cmd.Print("Validating configuration... ")
		if err := aiValidator.ValidateEmbedding(cmd.Context(), &s.Embedding); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding configuration validation failed: %w", err)
		}
		if err := aiValidator.ValidateLLM(cmd.Context(), &s.LLM); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("LLM configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	if err := store.Save(s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Saved to %s\n", store.Path())
	return nil
}

func chooseProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) (domain.AIProvider, string, string, error) {
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	defaultModel := defaults[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key (leave empty to use the environment): ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
	}
	return selected, model, apiKey, nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, fallback *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(fallback)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	user, _, hasPassword := strings.Cut(creds, ":")
	if !hasPassword {
		return dsn
	}
	return dsn[:scheme+3] + user + ":****" + dsn[at:]
}
