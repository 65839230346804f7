package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	queryK      int
	queryFilter string
	queryJSON   bool
	askRemember bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve the passages most similar to a question",
	Long: `Embeds the text and prints the nearest indexed passages with their sources.

Filter results with an expression over unit metadata, for example:
  ragcore query "revenue" --filter 'doc_type == "pdf" && page > 2'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieves context for the question and asks the configured LLM to answer
from it. When nothing relevant is indexed the model answers from general
knowledge and says so.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	for _, c := range []*cobra.Command{queryCmd, askCmd} {
		c.Flags().IntVarP(&queryK, "k", "k", 0, "number of passages to retrieve (default from settings)")
		c.Flags().StringVarP(&queryFilter, "filter", "f", "", "metadata filter expression")
		c.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	}
	askCmd.Flags().BoolVarP(&askRemember, "remember", "r", false, "store the question and answer in the chat history")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(askCmd)
}

func queryOptions() domain.QueryOptions {
	return domain.QueryOptions{K: queryK, Filter: queryFilter}
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureRuntime(cmd); err != nil {
		return err
	}

	rc, err := retrievalService.Query(cmd.Context(), strings.Join(args, " "), queryOptions())
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, rc)
	}
	if rc.IsEmpty() {
		cmd.Println("No results found.")
		return nil
	}
	printSources(cmd, rc.Sources)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureRuntime(cmd); err != nil {
		return err
	}
	if chatService == nil {
		return fmt.Errorf("chat service not configured")
	}

	answer, err := chatService.Ask(cmd.Context(), strings.Join(args, " "), domain.AskOptions{
		Query:    queryOptions(),
		Remember: askRemember,
	})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, answer)
	}
	cmd.Println(answer.Response)
	if !answer.Grounded {
		cmd.Println()
		cmd.Println("(No indexed document matched; answered from general knowledge.)")
		return nil
	}
	cmd.Println()
	cmd.Println("Sources:")
	printSources(cmd, answer.Sources)
	return nil
}

func printSources(cmd *cobra.Command, sources []domain.Source) {
	for i, s := range sources {
		location := s.Filename
		if s.Locator > 0 {
			location = fmt.Sprintf("%s, page %d", s.Filename, s.Locator)
		}
		cmd.Printf("  [%d] %s\n", i+1, location)
		cmd.Printf("      %s\n", strings.ReplaceAll(s.Excerpt, "\n", " "))
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
