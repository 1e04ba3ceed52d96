package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/gold-data/internal/logger"
	"github.com/rxtech-lab/gold-data/internal/version"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/provider"
)

// app carries what the commands share. Tests swap newProvider for a mock factory.
type app struct {
	out         io.Writer
	progressOut io.Writer
	logger      *zap.Logger
	newProvider func(provider.ProviderType, provider.Credentials) (provider.Provider, error)
}

func newApp(out io.Writer, log *zap.Logger) *app {
	return &app{
		out:         out,
		progressOut: os.Stderr,
		logger:      logger.OrNop(log),
		newProvider: provider.NewMarketDataProvider,
	}
}

// command builds the CLI tree.
func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:    "gold",
		Usage:   "Fetch, cache and analyse historical daily gold prices",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			a.downloadCommand(),
			a.updateCommand(),
			a.signalsCommand(),
			a.backtestCommand(),
			a.serveCommand(),
			a.providersCommand(),
			a.configCommand(),
		},
	}
}

// loadDotEnv loads .env from the working directory. A missing file is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func main() {
	if err := loadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	l, err := logger.NewLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	err = newApp(os.Stdout, l.Logger).command().Run(context.Background(), os.Args)
	_ = l.Sync()

	if err != nil {
		log.Fatal(err)
	}
}
