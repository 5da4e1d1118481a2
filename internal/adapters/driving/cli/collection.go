package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var collectionListJSON bool

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage collections",
	Long: `Collections partition the vector store. Each collection holds vectors of
a single dimension, fixed by the first chunk written to it.`,
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionCreate,
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a collection and all its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionDelete,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections with chunk counts",
	Args:  cobra.NoArgs,
	RunE:  runCollectionList,
}

func init() {
	collectionListCmd.Flags().BoolVar(&collectionListJSON, "json", false, "output as JSON")

	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionDeleteCmd)
	collectionCmd.AddCommand(collectionListCmd)
	rootCmd.AddCommand(collectionCmd)
}

var errNoCollections = errors.New("collection service not configured")

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errNoCollections
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := collectionService.Create(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	cmd.Printf("Collection %s ready.\n", args[0])
	return nil
}

func runCollectionDelete(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errNoCollections
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := collectionService.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	cmd.Printf("Collection %s deleted.\n", args[0])
	return nil
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errNoCollections
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	infos, err := collectionService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if collectionListJSON {
		return outputJSON(cmd, infos)
	}
	if len(infos) == 0 {
		cmd.Println("No collections.")
		return nil
	}
	for _, info := range infos {
		cmd.Printf("  %-32s %d chunks\n", info.Name, info.Count)
	}
	return nil
}
