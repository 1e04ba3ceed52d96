package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/gold-data/pkg/marketdata"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/provider"
)

const dateLayout = "2006-01-02"

func providerFlag(defaultProvider marketdata.ProviderType) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "provider",
		Aliases: []string{"p"},
		Usage:   fmt.Sprintf("Data provider to use (%s)", strings.Join(marketdata.GetSupportedProviders(), ", ")),
		Value:   string(defaultProvider),
		Validator: func(name string) error {
			_, err := marketdata.GetProviderInfo(name)
			return err
		},
	}
}

func tickerFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "ticker",
		Aliases: []string{"t"},
		Usage:   "Ticker symbol. Defaults to the provider's gold ticker",
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "polygon-api-key",
			Usage:   "Polygon API key (required if provider=polygon)",
			Sources: cli.EnvVars("POLYGON_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "tiingo-token",
			Usage:   "Tiingo API token (required if provider=tiingo)",
			Sources: cli.EnvVars("TIINGO_TOKEN"),
		},
	}
}

// resolveTicker returns the --ticker flag, falling back to the provider's default ticker.
func resolveTicker(cmd *cli.Command) (string, error) {
	if ticker := cmd.String("ticker"); ticker != "" {
		return ticker, nil
	}

	return marketdata.DefaultTicker(cmd.String("provider"))
}

func credentials(cmd *cli.Command) provider.Credentials {
	return provider.Credentials{
		PolygonApiKey: cmd.String("polygon-api-key"),
		TiingoToken:   cmd.String("tiingo-token"),
	}
}
