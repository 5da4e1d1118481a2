package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	ingestID         string
	ingestCollection string
	ingestReplace    bool
	ingestJSON       bool

	ingestTextCollection string
	ingestTextFilename   string

	deleteCollection string
	clearCollection  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document file",
	Long: `Extracts text from a file, splits it into overlapping chunks, embeds
each chunk and stores the vectors.

Supported file types: .txt, .md, .markdown, .docx, .pdf (requires pdftotext)

Without --id a new UUID is generated for the document. Re-ingesting a
document under the same id overwrites chunks by position; use --replace to
delete the old chunks first.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestTextCmd = &cobra.Command{
	Use:   "ingest-text [document-id] [text]",
	Short: "Ingest raw text",
	Args:  cobra.ExactArgs(2),
	RunE:  runIngestText,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete every chunk of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every chunk from a collection",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document id (default: generated UUID)")
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "target collection")
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "replace existing chunks of the document")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output result as JSON")

	ingestTextCmd.Flags().StringVarP(&ingestTextCollection, "collection", "c", "", "target collection")
	ingestTextCmd.Flags().StringVar(&ingestTextFilename, "filename", "", "filename recorded with the chunks")

	deleteCmd.Flags().StringVarP(&deleteCollection, "collection", "c", "", "collection to delete from")
	clearCmd.Flags().StringVarP(&clearCollection, "collection", "c", "", "collection to clear")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(ingestTextCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNoRetrieval
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	result, err := retrievalService.IngestFile(ctx, args[0], domain.IngestOptions{
		DocumentID: ingestID,
		Collection: ingestCollection,
		Replace:    ingestReplace,
	})
	if err != nil {
		if result != nil {
			cmd.Printf("Stored %d of %d chunks before the failure.\n", result.Stored, result.Chunks)
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		return outputJSON(cmd, result)
	}
	printIngestResult(cmd, result)
	return nil
}

func runIngestText(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNoRetrieval
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	meta := domain.Metadata{}
	if ingestTextFilename != "" {
		meta[domain.MetaFilename] = ingestTextFilename
	}

	result, err := retrievalService.Ingest(ctx, domain.IngestRequest{
		DocumentID: args[0],
		Text:       args[1],
		Metadata:   meta,
		Collection: ingestTextCollection,
	})
	if err != nil {
		if result != nil {
			cmd.Printf("Stored %d of %d chunks before the failure.\n", result.Stored, result.Chunks)
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	printIngestResult(cmd, result)
	return nil
}

func printIngestResult(cmd *cobra.Command, result *domain.IngestResult) {
	cmd.Printf("Ingested document %s\n", result.DocumentID)
	if result.Filename != "" {
		cmd.Printf("  File: %s\n", result.Filename)
	}
	cmd.Printf("  Collection: %s\n", result.Collection)
	cmd.Printf("  Chunks: %d\n", result.Stored)
	cmd.Printf("  Embedding: %s/%s\n", result.Provider, result.Model)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errNoRetrieval
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	deleted, err := retrievalService.DeleteDocument(ctx, args[0], deleteCollection)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	if deleted == 0 {
		cmd.Printf("No chunks found for document %s.\n", args[0])
		return nil
	}
	cmd.Printf("Deleted %d chunks of document %s.\n", deleted, args[0])
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errNoRetrieval
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := retrievalService.Clear(ctx, clearCollection); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	name := clearCollection
	if name == "" {
		name = "default collection"
	}
	cmd.Printf("Cleared %s.\n", name)
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
