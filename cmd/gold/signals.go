package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/gold-data/internal/signals"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/cache"
)

const defaultCacheFile = "gold_2004_to_now_GC_F.csv"

func (a *app) signalsCommand() *cli.Command {
	defaults := signals.DefaultConfig()

	return &cli.Command{
		Name:  "signals",
		Usage: "Compute SMA crossover signals from the cache file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Cache CSV file to read",
				Value:   defaultCacheFile,
			},
			&cli.IntFlag{
				Name:  "short",
				Usage: "Short moving average window in days",
				Value: int64(defaults.ShortWindow),
			},
			&cli.IntFlag{
				Name:  "long",
				Usage: "Long moving average window in days",
				Value: int64(defaults.LongWindow),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file. --short and --long override its windows when set",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the signals as a YAML report to this file",
			},
		},
		Action: a.signalsAction,
	}
}

func (a *app) signalsAction(_ context.Context, cmd *cli.Command) error {
	config := signals.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		loaded, err := signals.LoadConfig(path)
		if err != nil {
			return err
		}

		config = loaded
	}

	if cmd.IsSet("short") {
		config.ShortWindow = int(cmd.Int("short"))
	}

	if cmd.IsSet("long") {
		config.LongWindow = int(cmd.Int("long"))
	}

	generator, err := signals.NewGenerator(config)
	if err != nil {
		return err
	}

	source := cmd.String("file")

	bars, err := cache.NewCSVCache(source).Load()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", source, err)
	}

	generated, err := generator.Generate(bars)
	if err != nil {
		return err
	}

	store := signals.NewStore()
	store.Replace(generated)
	newestFirst := store.List()

	renderSignals(a.out, fmt.Sprintf("%d signals from %d bars", len(newestFirst), len(bars)), newestFirst)

	if output := cmd.String("output"); output != "" {
		report := signals.NewReport(source, len(bars), config, generated, time.Now())
		if err := report.WriteFile(output); err != nil {
			return err
		}

		a.logger.Info("Wrote signal report", zap.String("path", output), zap.Int("count", report.Count))
	}

	return nil
}
