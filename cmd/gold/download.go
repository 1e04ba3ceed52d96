package main

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/provider"
)

// noDataHints explain the usual reasons a provider returns an empty range.
var noDataHints = []string{
	"Your plan may not include historical data for this ticker (free tiers are limited).",
	"The provider may not keep history back to the requested start date.",
	"Try a more recent start date with --start.",
}

func (a *app) downloadCommand() *cli.Command {
	flags := []cli.Flag{
		providerFlag(marketdata.ProviderPolygon),
		tickerFlag(),
		&cli.TimestampFlag{
			Name:    "start",
			Aliases: []string{"s"},
			Usage:   "Start date in `YYYY-MM-DD` format",
			Value:   marketdata.DefaultStartDate.Time(),
			Config: cli.TimestampConfig{
				Layouts: []string{dateLayout},
			},
		},
		&cli.TimestampFlag{
			Name:    "end",
			Aliases: []string{"e"},
			Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
			Value:   time.Now(),
			Config: cli.TimestampConfig{
				Layouts: []string{dateLayout},
			},
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   fmt.Sprintf("Output format (%s, %s)", marketdata.WriterCSV, marketdata.WriterParquet),
			Value:   string(marketdata.WriterCSV),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file name. Defaults to gold_historical_<provider>.<format>",
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Path to the data output directory",
			Value:   ".",
		},
	}

	return &cli.Command{
		Name:   "download",
		Usage:  "Download a range of daily gold bars and write them to a file",
		Flags:  append(flags, credentialFlags()...),
		Action: a.downloadAction,
	}
}

// downloadAction fetches the requested range, writes it and prints a preview.
func (a *app) downloadAction(ctx context.Context, cmd *cli.Command) error {
	providerName := cmd.String("provider")
	format := cmd.String("format")

	ticker, err := resolveTicker(cmd)
	if err != nil {
		return err
	}

	clientConfig := marketdata.ClientConfig{
		ProviderType:  marketdata.ProviderType(providerName),
		WriterType:    marketdata.WriterType(format),
		DataPath:      cmd.String("data"),
		PolygonApiKey: cmd.String("polygon-api-key"),
		TiingoToken:   cmd.String("tiingo-token"),
	}
	if err := clientConfig.Validate(); err != nil {
		return err
	}

	marketProvider, err := a.newProvider(clientConfig.ProviderType, credentials(cmd))
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", providerName, err)
	}

	output := cmd.String("output")
	if output == "" {
		output = fmt.Sprintf("gold_historical_%s.%s", providerName, format)
	}

	client := marketdata.NewClientWithProvider(clientConfig, marketProvider, a.progress(clientConfig.ProviderType), a.logger)
	params := marketdata.DownloadParams{
		Ticker:     ticker,
		StartDate:  cmd.Timestamp("start"),
		EndDate:    cmd.Timestamp("end"),
		OutputFile: output,
	}

	fmt.Fprintf(a.out, "Fetching %s from %s to %s using %s...\n",
		ticker, types.NewDate(params.StartDate), types.NewDate(params.EndDate), providerName)

	result, err := client.Download(ctx, params)
	if errors.HasCode(err, errors.ErrCodeNoDataFound) {
		fmt.Fprintln(a.out, ErrorStyle.Render(fmt.Sprintf("No data returned for %s.", ticker)))
		for _, hint := range noDataHints {
			fmt.Fprintln(a.out, HelpStyle.Render("  - "+hint))
		}

		return err
	}

	if err != nil {
		return err
	}

	a.printPreview(result)
	fmt.Fprintf(a.out, "Saved %d bars to %s\n", result.Summary.Count, result.Path)

	return nil
}

func (a *app) printPreview(result marketdata.Result) {
	fmt.Fprintln(a.out, TitleStyle.Render(fmt.Sprintf("Fetched %d bars", result.Summary.Count)))
	fmt.Fprintf(a.out, "Earliest: %s\n", result.Summary.Earliest)
	fmt.Fprintf(a.out, "Latest:   %s\n", result.Summary.Latest)
	renderBars(a.out, "First rows", marketdata.Head(result.Bars, marketdata.PreviewRows))
	renderBars(a.out, "Last rows", marketdata.Tail(result.Bars, marketdata.PreviewRows))
}

// progress returns a terminal progress callback. Polygon draws its own bar, so it gets none.
func (a *app) progress(providerType marketdata.ProviderType) provider.OnDownloadProgress {
	if providerType == marketdata.ProviderPolygon {
		return nil
	}

	var bar *progressbar.ProgressBar

	return func(current float64, total float64, message string) {
		if total <= 0 {
			return
		}

		if bar == nil {
			bar = progressbar.NewOptions(100,
				progressbar.OptionSetDescription(message),
				progressbar.OptionSetWriter(a.progressOut),
			)
		}

		_ = bar.Set(int(current / total * 100))
		if current >= total {
			_ = bar.Finish()
		}
	}
}
