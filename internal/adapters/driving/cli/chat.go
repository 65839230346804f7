package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui"
)

// chatCmd represents the chat command.
var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive terminal UI",
	Long: `Launch an interactive terminal user interface for asking questions
about your ingested documents.

The conversation is stored, so earlier questions are shown when the chat opens.
Answers list the passages they were grounded on.

Controls:
  Enter    - Send question / Select
  Ctrl+R   - Switch between answers and retrieved passages
  Tab      - Move between the input and the sources
  ↑/k, ↓/j - Navigate
  Esc      - Back
  Ctrl+C   - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// chatPorts builds the TUI ports from the runtime services.
func chatPorts() (*tui.Ports, error) {
	ports := tui.NewPorts(chatService, retrievalService, documentService)
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	return ports, nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := ensureRuntime(cmd); err != nil {
		return err
	}
	ports, err := chatPorts()
	if err != nil {
		return fmt.Errorf("chat unavailable: %w", err)
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
