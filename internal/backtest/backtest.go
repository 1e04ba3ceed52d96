// Package backtest replays the SMA crossover over a date range of the cached
// series and reports what a long-only position following it would have made.
package backtest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rxtech-lab/gold-data/internal/signals"
	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
)

// InitialBalance is the cash every run starts with.
const InitialBalance = 10000.0

// Params selects the bars to replay and the crossover to replay them with.
// Both dates are inclusive.
type Params struct {
	StartDate types.Date
	EndDate   types.Date
	Config    signals.Config
}

// Run replays params over bars, which must be in ascending date order.
//
// A BUY puts the whole balance into the position at that day's close and a SELL
// turns it back into cash. A SELL with no open position is ignored. A position
// still open on the last bar is reported as an open trade and left out of the
// total return and the win rate. Fewer bars in range than the long window is an
// ErrCodeInsufficientData error.
func Run(bars []types.Bar, params Params, now time.Time) (types.BacktestResult, error) {
	if params.StartDate.IsZero() || params.EndDate.IsZero() {
		return types.BacktestResult{}, errors.New(errors.ErrCodeMissingParameter, "start and end dates are required")
	}

	if params.EndDate.Before(params.StartDate) {
		return types.BacktestResult{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"end date %s is before start date %s", params.EndDate, params.StartDate)
	}

	generator, err := signals.NewGenerator(params.Config)
	if err != nil {
		return types.BacktestResult{}, err
	}

	inRange := make([]types.Bar, 0, len(bars))
	closes := make(map[types.Date]float64, len(bars))

	for _, bar := range bars {
		if bar.Date.Before(params.StartDate) || bar.Date.After(params.EndDate) {
			continue
		}

		inRange = append(inRange, bar)
		closes[bar.Date] = bar.Close
	}

	generated, err := generator.Generate(inRange)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInsufficientData) {
			return types.BacktestResult{}, errors.Wrap(errors.ErrCodeInsufficientData, "Range too small", err)
		}

		return types.BacktestResult{}, err
	}

	balance := InitialBalance
	position := 0.0
	trades := make([]types.Trade, 0)

	for _, signal := range generated {
		price := closes[signal.Date]
		holding := len(trades) > 0 && trades[len(trades)-1].Open

		switch {
		case signal.Type == types.SignalTypeBuy && !holding:
			position = balance / price
			trades = append(trades, types.Trade{
				EntryDate:  signal.Date,
				EntryPrice: price,
				Type:       types.SignalTypeBuy,
				Open:       true,
			})
		case signal.Type == types.SignalTypeSell && holding:
			entry := &trades[len(trades)-1]
			exitValue := position * price

			entry.ExitDate = signal.Date
			entry.ExitPrice = price
			entry.Profit = exitValue - balance
			entry.Open = false

			balance = exitValue
			position = 0
		}
	}

	return types.BacktestResult{
		ID:          uuid.NewString(),
		Name:        fmt.Sprintf("Backtest %d/%d", params.Config.ShortWindow, params.Config.LongWindow),
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		ShortWindow: params.Config.ShortWindow,
		LongWindow:  params.Config.LongWindow,
		CreatedAt:   now,
		TotalReturn: (balance - InitialBalance) / InitialBalance * 100,
		WinRate:     winRate(trades),
		TradesCount: len(trades),
		Trades:      trades,
	}, nil
}

// winRate is the percentage of closed trades with a positive profit, 0 when none closed.
func winRate(trades []types.Trade) float64 {
	closed, wins := 0, 0

	for _, trade := range trades {
		if trade.Open {
			continue
		}

		closed++

		if trade.Profit > 0 {
			wins++
		}
	}

	if closed == 0 {
		return 0
	}

	return float64(wins) / float64(closed) * 100
}
