package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the chat history",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of most recent messages (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output messages as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if err := ensureRuntime(cmd); err != nil {
		return err
	}
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	messages, err := chatService.History(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if historyJSON {
		return printJSON(cmd, messages)
	}
	if len(messages) == 0 {
		cmd.Println("No messages.")
		return nil
	}
	for _, m := range messages {
		cmd.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("2006-01-02 15:04"), m.Sender, m.Content)
	}
	return nil
}
