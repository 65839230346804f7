package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	ingestType string
	ingestID   string
	ingestJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Add PDF or Word files to the index",
	Long: `Chunks, embeds and indexes each file. PDF files become one unit per page,
Word files one unit per three paragraphs. Every file is indexed and
persisted completely or not at all.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", "", "file type (pdf, docx); defaults to the extension")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document id (single file only); a UUID is generated otherwise")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestID != "" && len(args) > 1 {
		return errors.New("--id can only be used with a single file")
	}
	if err := ensureRuntime(cmd); err != nil {
		return err
	}

	var results []*domain.IngestResult
	var failed int
	for _, path := range args {
		res, err := retrievalService.Ingest(cmd.Context(), domain.IngestRequest{
			Path:       path,
			Filename:   filepath.Base(path),
			FileType:   ingestType,
			DocumentID: ingestID,
		})
		if err != nil {
			failed++
			cmd.PrintErrf("%s: %v\n", path, err)
			continue
		}
		results = append(results, res)
		if !ingestJSON {
			cmd.Printf("%s: %d units (document %s)\n", filepath.Base(path), res.UnitsProcessed, res.DocumentID)
			for _, w := range res.Warnings {
				cmd.Printf("  warning: %s\n", w)
			}
		}
	}

	if ingestJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
