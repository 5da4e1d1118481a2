// Package cli implements the sercha-rag command line interface.
package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// StoreInfo describes the open vector store for the status command.
type StoreInfo struct {
	Backend  string `json:"backend"`
	Location string `json:"location"`
}

// Services holds everything the commands need.
type Services struct {
	Retrieval  driving.RetrievalService
	Answer     driving.AnswerService
	Collection driving.CollectionService
	Embedding  driving.EmbeddingService
	Settings   driving.SettingsService
	Store      StoreInfo

	// ConfigPath is the file watched by serve.
	ConfigPath string

	// Reload re-reads configuration and rebuilds what changed.
	Reload func(ctx context.Context) error

	// Close releases the store and providers.
	Close func() error
}

// Options carries global flag values to the Initializer.
type Options struct {
	ConfigDir string
}

// Initializer builds services once global flags are parsed.
type Initializer func(ctx context.Context, opts Options) (*Services, error)

// Global flags.
var (
	verbose   bool
	configDir string
	timeout   time.Duration
)

// Services used by commands.
var (
	retrievalService  driving.RetrievalService
	answerService     driving.AnswerService
	collectionService driving.CollectionService
	embeddingService  driving.EmbeddingService
	settingsService   driving.SettingsService
	storeInfo         StoreInfo
	configPath        string
	reloadFunc        func(ctx context.Context) error
	closeFunc         func() error
)

var initializer Initializer

// skipServices marks commands that run without building services.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Local retrieval-augmented generation over your documents",
	Long: `sercha-rag chunks documents, embeds the chunks and stores them in a
vector store, then retrieves the most relevant chunks for a question and
assembles them into a bounded prompt context.

Embeddings come from a hosted API (OpenAI-compatible, Gemini, Ollama) or an
in-process model. Vectors live in SQLite by default, in memory, or in
PostgreSQL with pgvector.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.sercha-rag)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "per-command timeout (0 disables)")
}

// SetInitializer sets the function that builds services before a command runs.
func SetInitializer(fn Initializer) {
	initializer = fn
}

// SetServices installs services directly.
func SetServices(s *Services) {
	retrievalService = s.Retrieval
	answerService = s.Answer
	collectionService = s.Collection
	embeddingService = s.Embedding
	settingsService = s.Settings
	storeInfo = s.Store
	configPath = s.ConfigPath
	reloadFunc = s.Reload
	closeFunc = s.Close
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases services afterwards.
func Execute() error {
	err := rootCmd.Execute()
	if closeFunc != nil {
		if cerr := closeFunc(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
	}
	return err
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if initializer == nil || cmd.Annotations[skipServices] == "true" {
		return nil
	}

	services, err := initializer(cmd.Context(), Options{ConfigDir: configDir})
	if err != nil {
		return err
	}
	SetServices(services)
	// Build once per process.
	initializer = nil
	return nil
}

// commandContext applies the --timeout flag to the command's context.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

var errNoRetrieval = errors.New("retrieval service not configured")
