package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and maintain the vector index",
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

var indexCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Drop deleted units from the index",
	Long: `Rewrites the index without the units of deleted documents.
Positions of the remaining units change.`,
	Args: cobra.NoArgs,
	RunE: runIndexCompact,
}

var indexPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the persisted index to the snapshot mirror",
	Args:  cobra.NoArgs,
	RunE:  runIndexPush,
}

var indexPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace the local index with the mirrored snapshot",
	Long: `Downloads the latest snapshot from the mirror into the index directory.
Run it before other commands open the index.`,
	Args: cobra.NoArgs,
	RunE: runIndexPull,
}

var indexJSON bool

func init() {
	indexInfoCmd.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")

	indexCmd.AddCommand(indexInfoCmd)
	indexCmd.AddCommand(indexCompactCmd)
	indexCmd.AddCommand(indexPushCmd)
	indexCmd.AddCommand(indexPullCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	if err := ensureRuntime(cmd); err != nil {
		return err
	}

	stats, err := retrievalService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}
	if indexJSON {
		return printJSON(cmd, stats)
	}

	cmd.Println("Vector Index")
	cmd.Println("============")
	cmd.Printf("  Path:        %s\n", stats.Path)
	cmd.Printf("  Units:       %d\n", stats.Live)
	cmd.Printf("  Deleted:     %d\n", stats.Deleted)
	cmd.Printf("  Dimension:   %d\n", stats.Dimension)
	cmd.Printf("  Compression: %s\n", stats.Compression)
	return nil
}

func runIndexCompact(cmd *cobra.Command, _ []string) error {
	if err := ensureRuntime(cmd); err != nil {
		return err
	}

	removed, err := retrievalService.Compact(cmd.Context())
	if err != nil {
		return fmt.Errorf("compaction failed: %w", err)
	}
	cmd.Printf("Removed %d deleted units\n", removed)
	return nil
}

func runIndexPush(cmd *cobra.Command, _ []string) error {
	mirror, dir, err := openMirror()
	if err != nil {
		return err
	}
	if err := mirror.Push(cmd.Context(), dir); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	cmd.Printf("Pushed %s\n", dir)
	return nil
}

func runIndexPull(cmd *cobra.Command, _ []string) error {
	mirror, dir, err := openMirror()
	if err != nil {
		return err
	}
	if err := mirror.Pull(cmd.Context(), dir); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	cmd.Printf("Pulled snapshot into %s\n", dir)
	return nil
}

// openMirror connects to the configured snapshot mirror and returns it
// with the local index directory.
func openMirror() (driven.SnapshotMirror, string, error) {
	if err := requireSettings(); err != nil {
		return nil, "", err
	}
	if mirrorFactory == nil {
		return nil, "", errors.New("snapshot mirror not available")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.Mirror.IsConfigured() {
		return nil, "", errors.New("mirror not configured: set mirror.endpoint and mirror.bucket")
	}

	mirror, err := mirrorFactory(settings.Mirror)
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to mirror: %w", err)
	}
	return mirror, settings.Index.Dir, nil
}
