package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var llmKeyPrompt bool

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the answer-generation LLM",
	Long: `The ask command sends retrieved context to an OpenAI-compatible chat
completions API (OpenRouter by default).`,
}

var llmKeyCmd = &cobra.Command{
	Use:   "key [api-key]",
	Short: "Store the LLM API key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLLMKey,
}

var llmShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the LLM configuration",
	Args:  cobra.NoArgs,
	RunE:  runLLMShow,
}

func init() {
	llmKeyCmd.Flags().BoolVar(&llmKeyPrompt, "prompt", false, "read the key from the terminal without echo")

	llmCmd.AddCommand(llmKeyCmd)
	llmCmd.AddCommand(llmShowCmd)
	rootCmd.AddCommand(llmCmd)
}

var errNoSettings = errors.New("settings service not configured")

func runLLMKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	var key string
	switch {
	case len(args) == 1:
		key = args[0]
	case llmKeyPrompt:
		cmd.Print("Enter API key: ")
		key = readPassword()
		cmd.Println()
	default:
		return errors.New("provide the key as an argument or use --prompt")
	}

	if err := settingsService.SetLLMAPIKey(key); err != nil {
		return fmt.Errorf("failed to store LLM key: %w", err)
	}
	cmd.Printf("LLM API key stored (%s).\n", maskAPIKey(key))
	return nil
}

func runLLMShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	llm := settings.LLM
	cmd.Printf("  Base URL: %s\n", llm.BaseURL)
	cmd.Printf("  Model: %s\n", llm.Model)
	cmd.Printf("  Max tokens: %d\n", llm.MaxTokens)
	cmd.Printf("  Temperature: %.2f\n", llm.Temperature)
	if llm.APIKey != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(llm.APIKey))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	return nil
}
