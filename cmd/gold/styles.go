package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rxtech-lab/gold-data/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	buyStyle    = cellStyle.Foreground(lipgloss.Color("10"))
	sellStyle   = cellStyle.Foreground(lipgloss.Color("9"))
)

// FormatPriceWithColor formats a price with indicator based on comparison with previous price.
func FormatPriceWithColor(current, previous float64) string {
	priceStr := fmt.Sprintf("%.4f", current)

	if previous == 0 {
		return priceStr
	}

	if current > previous {
		return priceStr + " ▲"
	} else if current < previous {
		return priceStr + " ▼"
	}

	return priceStr
}

// renderBars prints bars as a table. The close column is marked against the
// previous row's close.
func renderBars(out io.Writer, title string, bars []types.Bar) {
	rows := make([][]string, 0, len(bars))

	for i, bar := range bars {
		previous := 0.0
		if i > 0 {
			previous = bars[i-1].Close
		}

		rows = append(rows, []string{
			bar.Date.String(),
			fmt.Sprintf("%.4f", bar.Open),
			fmt.Sprintf("%.4f", bar.High),
			fmt.Sprintf("%.4f", bar.Low),
			FormatPriceWithColor(bar.Close, previous),
			strconv.FormatFloat(bar.Volume, 'f', -1, 64),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(types.BarColumns...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	fmt.Fprintln(out, TitleStyle.Render(title))
	fmt.Fprintln(out, t.Render())
}

// renderSignals prints signals newest first as they are stored.
func renderSignals(out io.Writer, title string, signals []types.Signal) {
	rows := make([][]string, 0, len(signals))
	for _, signal := range signals {
		rows = append(rows, []string{
			signal.Date.String(),
			string(signal.Type),
			strconv.FormatFloat(signal.Confidence, 'f', -1, 64),
			signal.Reason,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Date", "Signal", "Confidence", "Reason").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			if col == 1 {
				switch signals[row].Type {
				case types.SignalTypeBuy:
					return buyStyle
				case types.SignalTypeSell:
					return sellStyle
				}
			}

			return cellStyle
		})

	fmt.Fprintln(out, TitleStyle.Render(title))
	fmt.Fprintln(out, t.Render())
}

// renderTrades prints backtest trades in the order they were opened.
func renderTrades(out io.Writer, title string, trades []types.Trade) {
	rows := make([][]string, 0, len(trades))
	for _, trade := range trades {
		exitDate, exitPrice, profit := "open", "", ""
		if !trade.Open {
			exitDate = trade.ExitDate.String()
			exitPrice = fmt.Sprintf("%.4f", trade.ExitPrice)
			profit = fmt.Sprintf("%.2f", trade.Profit)
		}

		rows = append(rows, []string{
			trade.EntryDate.String(),
			fmt.Sprintf("%.4f", trade.EntryPrice),
			exitDate,
			exitPrice,
			profit,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Entry", "Entry Price", "Exit", "Exit Price", "Profit").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			if col == 4 && !trades[row].Open {
				if trades[row].Profit > 0 {
					return buyStyle
				}

				return sellStyle
			}

			return cellStyle
		})

	fmt.Fprintln(out, TitleStyle.Render(title))
	fmt.Fprintln(out, t.Render())
}
