package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	queryLimit      int
	queryCollection string
	queryJSON       bool
	queryContext    bool

	askLimit      int
	askCollection string
	askJSON       bool
)

// snippetLength bounds chunk text in table output.
const snippetLength = 160

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve the chunks most similar to a question",
	Long: `Embeds the question and returns the nearest stored chunks by cosine
distance (lower is closer).

Use --context to print the prompt context assembled from the results
instead of the result list.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the stored documents",
	Long: `Retrieves relevant chunks, assembles them into a context and asks the
configured LLM to answer using only that context.

Requires an LLM API key (see 'sercha-rag llm key').`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "number of chunks (default from settings)")
	queryCmd.Flags().StringVarP(&queryCollection, "collection", "c", "", "collection to search")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "print the assembled prompt context")

	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "number of chunks (default from settings)")
	askCmd.Flags().StringVarP(&askCollection, "collection", "c", "", "collection to search")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answer as JSON")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(askCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNoRetrieval
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	results, err := retrievalService.Retrieve(ctx, args[0], queryLimit, queryCollection)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryContext {
		cmd.Println(retrievalService.AssembleContext(results))
		return nil
	}
	if queryJSON {
		return outputJSON(cmd, results)
	}
	printChunks(cmd, results)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	answer, err := answerService.Ask(ctx, args[0], domain.AskOptions{
		TopK:       askLimit,
		Collection: askCollection,
	})
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) {
			cmd.PrintErrln("Set an LLM key with 'sercha-rag llm key' or OPENROUTER_API_KEY.")
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i := range answer.Sources {
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, sourceLabel(answer.Sources[i]), answer.Sources[i].Distance)
	}
	if answer.TotalTokens > 0 {
		cmd.Printf("\nTokens: %d (prompt %d, completion %d)\n",
			answer.TotalTokens, answer.PromptTokens, answer.CompletionTokens)
	}
	return nil
}

func printChunks(cmd *cobra.Command, results []domain.RetrievedChunk) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] label (distance)
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, sourceLabel(results[i]), results[i].Distance)
		cmd.Printf("      %s\n", snippet(results[i].Text))
		cmd.Println()
	}
}

// sourceLabel names a chunk by filename or document id, with its position.
func sourceLabel(r domain.RetrievedChunk) string {
	meta := domain.ChunkMetadataFromMap(r.Metadata)
	name := r.Metadata.String(domain.MetaFilename)
	if name == "" {
		name = meta.DocumentID
	}
	if name == "" {
		name = r.ID
	}
	if meta.TotalChunks > 0 {
		return fmt.Sprintf("%s #%d/%d", name, meta.ChunkIndex+1, meta.TotalChunks)
	}
	return name
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
