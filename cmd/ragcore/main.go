// Command ragcore ingests PDF and Word files into a local vector index and
// answers questions from them.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/cli"
	"github.com/custodia-labs/ragcore/internal/core/services"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// homeEnv overrides the directory holding config.toml.
const homeEnv = "RAGCORE_HOME"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	loadEnv(".env")

	configStore, err := file.NewConfigStore(os.Getenv(homeEnv))
	if err != nil {
		logger.Error("open config: %v", err)
		return err
	}
	settings := services.NewSettingsService(configStore, ai.NewConfigValidator())

	cli.Configure(settings, bootstrap(settings), newMirror)
	return cli.Execute(ctx)
}

// loadEnv reads RAGCORE_* overrides from path when it exists.
func loadEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("ignoring %s: %v", path, err)
	}
}
