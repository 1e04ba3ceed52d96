package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/gold-data/internal/api"
	"github.com/rxtech-lab/gold-data/internal/backtest"
	"github.com/rxtech-lab/gold-data/internal/signals"
	"github.com/rxtech-lab/gold-data/pkg/marketdata"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/cache"
)

func (a *app) serveCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Address the API listens on",
			Value: ":8080",
		},
		providerFlag(marketdata.ProviderYahoo),
		tickerFlag(),
		cacheFileFlag(),
	}

	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the cached prices and crossover predictions over HTTP",
		Flags:  append(flags, credentialFlags()...),
		Action: a.serveAction,
	}
}

// newHandler wires the cache, updater and signal generator behind the API handlers.
func (a *app) newHandler(cmd *cli.Command) (*api.Handler, error) {
	updater, err := a.newUpdater(cmd)
	if err != nil {
		return nil, err
	}

	generator, err := signals.NewGenerator(signals.DefaultConfig())
	if err != nil {
		return nil, err
	}

	ticker, err := resolveTicker(cmd)
	if err != nil {
		return nil, err
	}

	csvCache := cache.NewCSVCache(cacheFile(cmd, ticker))

	return api.NewHandler(csvCache, updater, generator, signals.NewStore(), backtest.NewStore(), a.logger), nil
}

func (a *app) serveAction(ctx context.Context, cmd *cli.Command) error {
	handler, err := a.newHandler(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(cmd.String("addr"), api.SetupRoutes(handler))

	return api.Serve(ctx, server, a.logger)
}
