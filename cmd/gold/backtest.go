package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/gold-data/internal/backtest"
	"github.com/rxtech-lab/gold-data/internal/signals"
	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/marketdata"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/cache"
)

func (a *app) backtestCommand() *cli.Command {
	defaults := signals.DefaultConfig()

	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay the SMA crossover over a date range of the cache file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Cache CSV file to read",
				Value:   defaultCacheFile,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "First day to replay in `YYYY-MM-DD` format",
				Value:   marketdata.DefaultStartDate.Time(),
				Config: cli.TimestampConfig{
					Layouts: []string{dateLayout},
				},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "Last day to replay in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{dateLayout},
				},
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
		},
		Action: a.backtestAction,
	}
}

func (a *app) backtestAction(_ context.Context, cmd *cli.Command) error {
	config := signals.DefaultConfig()
	config.ShortWindow = int(cmd.Int("short"))
	config.LongWindow = int(cmd.Int("long"))

	source := cmd.String("file")

	bars, err := cache.NewCSVCache(source).Load()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", source, err)
	}

	result, err := backtest.Run(bars, backtest.Params{
		StartDate: types.NewDate(cmd.Timestamp("start")),
		EndDate:   types.NewDate(cmd.Timestamp("end")),
		Config:    config,
	}, time.Now())
	if err != nil {
		return err
	}

	a.logger.Debug("Backtest finished", zap.String("id", result.ID), zap.Int("trades", result.TradesCount))

	fmt.Fprintln(a.out, TitleStyle.Render(fmt.Sprintf("%s from %s to %s", result.Name, result.StartDate, result.EndDate)))
	fmt.Fprintf(a.out, "Total return: %.2f%%\n", result.TotalReturn)
	fmt.Fprintf(a.out, "Win rate:     %.2f%%\n", result.WinRate)
	fmt.Fprintf(a.out, "Trades:       %d\n", result.TradesCount)
	renderTrades(a.out, "Trades", result.Trades)

	return nil
}
