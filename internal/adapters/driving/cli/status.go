package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	statusJSON  bool
	statusProbe bool
)

// StatusReport is the health summary printed by the status command.
type StatusReport struct {
	Store         StoreInfo               `json:"store"`
	Collections   []domain.CollectionInfo `json:"collections"`
	Embedding     domain.EmbeddingStatus  `json:"embedding"`
	ProbeError    string                  `json:"probe_error,omitempty"`
	LLMConfigured bool                    `json:"llm_configured"`
	ConfigPath    string                  `json:"config_path,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report store, collection and provider health",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	statusCmd.Flags().BoolVar(&statusProbe, "probe", false, "embed a test string to verify the provider")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if collectionService == nil || embeddingService == nil || settingsService == nil {
		return errNoCollections
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	collections, err := collectionService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	report := StatusReport{
		Store:         storeInfo,
		Collections:   collections,
		Embedding:     embeddingService.Status(),
		LLMConfigured: settings.LLM.IsConfigured(),
		ConfigPath:    configPath,
	}
	if statusProbe {
		if dims, err := embeddingService.Probe(ctx); err != nil {
			report.ProbeError = err.Error()
		} else {
			report.Embedding.Dimensions = dims
		}
	}

	if statusJSON {
		return outputJSON(cmd, report)
	}

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", report.Store.Backend)
	cmd.Printf("  Location: %s\n", report.Store.Location)
	cmd.Println()

	cmd.Println("[Collections]")
	if len(report.Collections) == 0 {
		cmd.Println("  (none)")
	}
	for _, c := range report.Collections {
		cmd.Printf("  %-32s %d chunks\n", c.Name, c.Count)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	printEmbeddingStatus(cmd, report.Embedding)
	if statusProbe {
		if report.ProbeError != "" {
			cmd.Printf("  Probe: FAILED: %s\n", report.ProbeError)
		} else {
			cmd.Println("  Probe: OK")
		}
	}
	cmd.Println()

	cmd.Println("[LLM]")
	if report.LLMConfigured {
		cmd.Println("  API key: configured")
	} else {
		cmd.Println("  API key: not configured")
	}
	if report.ConfigPath != "" {
		cmd.Println()
		cmd.Printf("Config: %s\n", report.ConfigPath)
	}
	return nil
}
