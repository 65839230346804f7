// Package cli provides the ragcore command line interface.
package cli

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// Runtime holds the services that need a reachable embedding model.
type Runtime struct {
	Retrieval driving.RetrievalService
	Chat      driving.ChatService
	Documents driving.DocumentService

	// Watch ingests files dropped into dir until ctx ends.
	Watch func(ctx context.Context, dir string) error

	// Warnings lists non-fatal start-up problems, such as an unreachable LLM.
	Warnings []string

	// Close releases the runtime's resources.
	Close func()
}

// Bootstrap builds the runtime. It is called at most once per process.
type Bootstrap func(ctx context.Context) (*Runtime, error)

// MirrorFactory connects to the snapshot mirror described by settings.
type MirrorFactory func(settings domain.MirrorSettings) (driven.SnapshotMirror, error)

var (
	settingsService  driving.SettingsService
	retrievalService driving.RetrievalService
	chatService      driving.ChatService
	documentService  driving.DocumentService
	watchFunc        func(ctx context.Context, dir string) error
	mirrorFactory    MirrorFactory

	bootstrap   Bootstrap
	runtimeOnce sync.Once
	runtimeErr  error
	closeFunc   func()

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Local retrieval-augmented generation over PDF and Word files",
	Long: `ragcore ingests PDF and Word documents into a local vector index and
answers questions from the passages most similar to them.

Get started:
  ragcore ingest report.pdf
  ragcore query "what does the report conclude?"
  ragcore ask "summarise the conclusions"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
}

// Configure sets the services available without a model and the bootstrap
// used by commands that need the runtime.
func Configure(settings driving.SettingsService, boot Bootstrap, mirrors MirrorFactory) {
	settingsService = settings
	bootstrap = boot
	mirrorFactory = mirrors
}

// Execute runs the root command until ctx is cancelled.
func Execute(ctx context.Context) error {
	defer shutdown()
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// ensureRuntime builds the runtime services on first use.
// Services injected directly (as tests do) are kept as they are.
func ensureRuntime(cmd *cobra.Command) error {
	if retrievalService != nil {
		return nil
	}
	if bootstrap == nil {
		return errors.New("retrieval service not configured")
	}
	runtimeOnce.Do(func() {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			runtimeErr = err
			return
		}
		for _, w := range rt.Warnings {
			logger.Warn("%s", w)
		}
		retrievalService = rt.Retrieval
		chatService = rt.Chat
		documentService = rt.Documents
		watchFunc = rt.Watch
		closeFunc = rt.Close
	})
	return runtimeErr
}

func shutdown() {
	if closeFunc != nil {
		closeFunc()
		closeFunc = nil
	}
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}
