package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/gold-data/pkg/marketdata"
)

func (a *app) providersCommand() *cli.Command {
	return &cli.Command{
		Name:   "providers",
		Usage:  "List the supported data providers",
		Action: a.providersAction,
	}
}

func (a *app) providersAction(_ context.Context, _ *cli.Command) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "Provider", "Default ticker", "Credential", "Description").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		credential := "-"
		if info.RequiresAuth {
			credential = info.AuthEnvVar
		}

		t.Row(info.Name, info.DisplayName, info.DefaultTicker, credential, info.Description)
	}

	fmt.Fprintln(a.out, t.Render())

	return nil
}
