package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/gold-data/pkg/marketdata"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/cache"
)

func cacheFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Cache CSV file. Defaults to gold_2004_to_now_<ticker>.csv",
	}
}

// cacheFile returns the --file flag, falling back to a name derived from ticker.
func cacheFile(cmd *cli.Command, ticker string) string {
	if file := cmd.String("file"); file != "" {
		return file
	}

	return fmt.Sprintf("gold_2004_to_now_%s.csv", marketdata.SanitizeTicker(ticker))
}

func (a *app) updateCommand() *cli.Command {
	flags := []cli.Flag{
		providerFlag(marketdata.ProviderYahoo),
		tickerFlag(),
		cacheFileFlag(),
	}

	return &cli.Command{
		Name:   "update",
		Usage:  "Fetch the days missing from the cache file and merge them in",
		Flags:  append(flags, credentialFlags()...),
		Action: a.updateAction,
	}
}

// newUpdater wires a CSV cache and the selected provider into an Updater.
func (a *app) newUpdater(cmd *cli.Command) (*marketdata.Updater, error) {
	ticker, err := resolveTicker(cmd)
	if err != nil {
		return nil, err
	}

	providerType := marketdata.ProviderType(cmd.String("provider"))

	marketProvider, err := a.newProvider(providerType, credentials(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", providerType, err)
	}

	return marketdata.NewUpdater(cache.NewCSVCache(cacheFile(cmd, ticker)), marketProvider, ticker, a.logger), nil
}

func (a *app) updateAction(ctx context.Context, cmd *cli.Command) error {
	updater, err := a.newUpdater(cmd)
	if err != nil {
		return err
	}

	updater.SetProgressCallback(a.progress(marketdata.ProviderType(cmd.String("provider"))))

	result, err := updater.Update(ctx)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	a.logger.Debug("Update finished", zap.String("status", string(result.Status)))

	switch result.Status {
	case marketdata.StatusUpToDate:
		fmt.Fprintf(a.out, "Data is already up to date (last date %s)\n", result.Latest)
	case marketdata.StatusNoNewData:
		fmt.Fprintf(a.out, "No new data found since %s (possibly weekend/market closed)\n", result.Plan.Start)
	case marketdata.StatusUpdated:
		fmt.Fprintln(a.out, TitleStyle.Render(fmt.Sprintf("Added %d new records", result.Added)))
		fmt.Fprintf(a.out, "Total records: %d, latest date %s\n", result.Total, result.Latest)
		fmt.Fprintf(a.out, "Saved to %s\n", result.Path)
	}

	return nil
}
