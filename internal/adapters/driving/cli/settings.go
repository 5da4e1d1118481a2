package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var settingsJSON bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show application settings",
	Long: `Settings are read from ~/.sercha-rag/config.toml and may be overridden by
SERCHA_RAG_* environment variables or a .env file, for example
SERCHA_RAG_EMBEDDING_KIND=local or SERCHA_RAG_RETRIEVAL_TOP_K=8.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

func init() {
	settingsCmd.PersistentFlags().BoolVar(&settingsJSON, "json", false, "output as JSON (API keys masked)")
	settingsCmd.AddCommand(settingsShowCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if settingsJSON {
		masked := *settings
		masked.Embedding.APIKey = maskOptional(masked.Embedding.APIKey)
		masked.LLM.APIKey = maskOptional(masked.LLM.APIKey)
		return outputJSON(cmd, masked)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Max context chars: %d\n", settings.Retrieval.MaxContextChars)
	cmd.Printf("  Max chunk chars: %d\n", settings.Retrieval.MaxChunkChars)
	cmd.Printf("  Collection: %s\n", settings.Retrieval.Collection)
	cmd.Println()

	embedding := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Kind: %s\n", embedding.Kind.Description())
	if embedding.Kind == domain.EmbeddingKindLocal {
		cmd.Printf("  Model: %s\n", embedding.LocalModel)
	} else {
		cmd.Printf("  API: %s\n", embedding.API.Description())
		cmd.Printf("  Model: %s\n", embedding.Model)
		if embedding.BaseURL != "" {
			cmd.Printf("  Base URL: %s\n", embedding.BaseURL)
		}
		if embedding.API.RequiresAPIKey() {
			if embedding.APIKey != "" {
				cmd.Printf("  API Key: %s\n", maskAPIKey(embedding.APIKey))
			} else {
				cmd.Printf("  API Key: (not set)\n")
			}
		}
		if embedding.RequestsPerSecond > 0 {
			cmd.Printf("  Rate limit: %.1f req/s\n", embedding.RequestsPerSecond)
		}
	}
	status := "configured"
	if !embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Cache]")
	if settings.Cache.Size > 0 {
		cmd.Printf("  Size: %d vectors\n", settings.Cache.Size)
		cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	} else {
		cmd.Println("  Disabled")
	}
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend)
	if settings.Store.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Store.DataDir)
	}
	if settings.Store.DSN != "" {
		cmd.Printf("  DSN: %s\n", redactDSN(settings.Store.DSN))
	}
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func maskOptional(key string) string {
	if key == "" {
		return ""
	}
	return maskAPIKey(key)
}

// redactDSN hides the password in a postgres URL.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if i := strings.Index(userinfo, ":"); i >= 0 {
		return dsn[:scheme+3] + userinfo[:i] + ":****" + dsn[at:]
	}
	return dsn
}
