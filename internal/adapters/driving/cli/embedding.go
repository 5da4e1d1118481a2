package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	embeddingShowJSON  bool
	embeddingShowProbe bool

	embeddingAPI       string
	embeddingModel     string
	embeddingBaseURL   string
	embeddingAPIKey    string
	embeddingPromptKey bool
)

var embeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Inspect and switch the embedding provider",
	Long: `Embedding providers turn chunks and questions into vectors.

Kinds:
  remote - hosted API: openai (any OpenAI-compatible endpoint), gemini, ollama
  local  - in-process model: built-in hashing models or a .vec word-vector file

Vectors from different providers are not comparable. After switching,
re-ingest documents or use a new collection.`,
}

var embeddingShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active embedding provider",
	Args:  cobra.NoArgs,
	RunE:  runEmbeddingShow,
}

var embeddingKindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List supported provider kinds",
	Args:  cobra.NoArgs,
	RunE:  runEmbeddingKinds,
}

var embeddingSetCmd = &cobra.Command{
	Use:   "set [kind]",
	Short: "Switch the embedding provider",
	Long: `Persists the provider settings and hot-swaps the live provider.

Examples:
  sercha-rag embedding set local
  sercha-rag embedding set remote --api gemini --prompt-key
  sercha-rag embedding set remote --api ollama --model nomic-embed-text`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbeddingSet,
}

func init() {
	embeddingShowCmd.Flags().BoolVar(&embeddingShowJSON, "json", false, "output as JSON")
	embeddingShowCmd.Flags().BoolVar(&embeddingShowProbe, "probe", false, "embed a test string to verify the provider")

	embeddingSetCmd.Flags().StringVar(&embeddingAPI, "api", "", "remote API: openai, gemini or ollama")
	embeddingSetCmd.Flags().StringVar(&embeddingModel, "model", "", "model name (remote) or model path/name (local)")
	embeddingSetCmd.Flags().StringVar(&embeddingBaseURL, "base-url", "", "override the API endpoint")
	embeddingSetCmd.Flags().StringVar(&embeddingAPIKey, "api-key", "", "API key for the remote API")
	embeddingSetCmd.Flags().BoolVar(&embeddingPromptKey, "prompt-key", false, "read the API key from the terminal")

	embeddingCmd.AddCommand(embeddingShowCmd)
	embeddingCmd.AddCommand(embeddingKindsCmd)
	embeddingCmd.AddCommand(embeddingSetCmd)
	rootCmd.AddCommand(embeddingCmd)
}

var errNoEmbedding = errors.New("embedding service not configured")

func runEmbeddingShow(cmd *cobra.Command, _ []string) error {
	if embeddingService == nil {
		return errNoEmbedding
	}

	status := embeddingService.Status()
	if embeddingShowJSON {
		return outputJSON(cmd, status)
	}

	printEmbeddingStatus(cmd, status)

	if embeddingShowProbe {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		cmd.Print("Probing provider... ")
		dims, err := embeddingService.Probe(ctx)
		if err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding probe failed: %w", err)
		}
		cmd.Printf("OK (%d dimensions)\n", dims)
	}
	return nil
}

func printEmbeddingStatus(cmd *cobra.Command, status domain.EmbeddingStatus) {
	if status.Kind == "" {
		cmd.Println("  Provider: (none active)")
		if status.Error != "" {
			cmd.Printf("  Error: %s\n", status.Error)
		}
		return
	}
	cmd.Printf("  Kind: %s\n", domain.EmbeddingKind(status.Kind).Description())
	if status.API != "" {
		cmd.Printf("  API: %s\n", domain.RemoteAPI(status.API).Description())
	}
	cmd.Printf("  Model: %s\n", status.Model)
	if status.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", status.Dimensions)
	} else {
		cmd.Println("  Dimensions: (learned on first call)")
	}
	configured := "configured"
	if !status.Configured {
		configured = "not configured"
	}
	cmd.Printf("  Status: %s\n", configured)
	if status.Error != "" {
		cmd.Printf("  Last error: %s\n", status.Error)
	}
}

func runEmbeddingKinds(cmd *cobra.Command, _ []string) error {
	if embeddingService == nil {
		return errNoEmbedding
	}

	for _, kind := range embeddingService.SupportedKinds() {
		cmd.Printf("  %-8s %s\n", kind, domain.EmbeddingKind(kind).Description())
	}
	return nil
}

func runEmbeddingSet(cmd *cobra.Command, args []string) error {
	if embeddingService == nil || settingsService == nil {
		return errNoEmbedding
	}

	kind := domain.EmbeddingKind(strings.ToLower(args[0]))
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q (supported: %s)",
			domain.ErrUnsupportedProvider, args[0], strings.Join(embeddingService.SupportedKinds(), ", "))
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	apiKey := embeddingAPIKey
	if embeddingPromptKey {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required")
		}
	}

	// Kind only: keep the other embedding settings.
	if embeddingAPI == "" && embeddingModel == "" && embeddingBaseURL == "" && apiKey == "" {
		if err := embeddingService.Switch(ctx, kind); err != nil {
			return fmt.Errorf("failed to switch embedding provider: %w", err)
		}
		cmd.Printf("Embedding provider switched to %s.\n", kind)
		printEmbeddingStatus(cmd, embeddingService.Status())
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	embedding := settings.Embedding
	embedding.Kind = kind
	if embeddingAPI != "" && embeddingAPI != embedding.API.String() {
		embedding.API = domain.RemoteAPI(strings.ToLower(embeddingAPI))
		// A different API implies a different default model.
		embedding.Model = ""
	}
	if embeddingModel != "" {
		if kind == domain.EmbeddingKindLocal {
			embedding.LocalModel = embeddingModel
		} else {
			embedding.Model = embeddingModel
		}
	}
	if embeddingBaseURL != "" {
		embedding.BaseURL = embeddingBaseURL
	}
	if apiKey != "" {
		embedding.APIKey = apiKey
	}

	if err := settingsService.SetEmbedding(embedding); err != nil {
		return fmt.Errorf("failed to save embedding settings: %w", err)
	}
	if err := embeddingService.Reload(ctx); err != nil {
		return fmt.Errorf("settings saved but the provider could not be built: %w", err)
	}

	if saved, err := settingsService.Get(); err == nil {
		embedding = saved.Embedding
	}
	cmd.Printf("Embedding provider set to %s.\n", embedding.Identity())
	printEmbeddingStatus(cmd, embeddingService.Status())
	return nil
}
