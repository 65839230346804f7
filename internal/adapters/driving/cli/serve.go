package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/httpapi"
)

var (
	serveAddr    string
	serveOrigins []string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves ingest, retrieval, chat and document endpoints over HTTP.

When watch.dir is set, files dropped into it are ingested while the server runs.

Endpoints:
  GET    /                 banner
  GET    /health           liveness and unit count
  POST   /query            {"query": "...", "k": 3, "filter": "..."}
  POST   /chat             {"message": "...", "remember": true}
  GET    /messages         chat history (?limit=N)
  POST   /messages         {"content": "...", "sender": "user"}
  GET    /documents        ingested documents
  POST   /documents        multipart upload, field "file"
  GET    /documents/:id    document record
  GET    /documents/:id/pages
  DELETE /documents/:id
  GET    /index/stats`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest PDF and Word files dropped into a directory",
	Long: `Ingests the files already in dir, then every new or changed PDF or Word
file until interrupted. A changed file replaces its previous version.
Defaults to the watch.dir setting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "browser origins allowed to call the API")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not watch watch.dir")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := ensureRuntime(cmd); err != nil {
		return err
	}

	addr := serveAddr
	watchDir := ""
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if addr == "" {
			addr = settings.ServerAddr
		}
		if !serveNoWatch {
			watchDir = settings.WatchDir
		}
	}
	if addr == "" {
		return errors.New("no listen address: pass --addr or set server.addr")
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Retrieval: retrievalService,
		Chat:      chatService,
		Document:  documentService,
	}, httpapi.WithAllowedOrigins(serveOrigins...))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Run(ctx, addr)
	})
	if watchDir != "" && watchFunc != nil {
		g.Go(func() error {
			return watchFunc(ctx, watchDir)
		})
	}

	cmd.Printf("Listening on %s\n", addr)
	return g.Wait()
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		dir = settings.WatchDir
	}
	if dir == "" {
		return errors.New("no directory: pass one or set watch.dir")
	}

	if err := ensureRuntime(cmd); err != nil {
		return err
	}
	if watchFunc == nil {
		return errors.New("watcher not configured")
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	return watchFunc(cmd.Context(), dir)
}
