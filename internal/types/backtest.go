package types

import "time"

type Trade struct {
	// EntryDate is the day the position was bought
	EntryDate Date `json:"entryDate" yaml:"entry_date"`
	// EntryPrice is the close the position was bought at
	EntryPrice float64 `json:"entryPrice" yaml:"entry_price"`
	// Type is always BUY, the crossover only goes long
	Type SignalType `json:"type" yaml:"type"`
	// ExitDate is the day the position was sold. Empty while the trade is open.
	ExitDate Date `json:"exitDate" yaml:"exit_date"`
	// ExitPrice is the close the position was sold at, 0 while open.
	ExitPrice float64 `json:"exitPrice" yaml:"exit_price"`
	// Profit is the exit value minus the capital committed at entry, 0 while open.
	Profit float64 `json:"profit" yaml:"profit"`
	// Open is set when the run ended before the position was sold.
	Open bool `json:"open" yaml:"open"`
}

type BacktestResult struct {
	// ID is the unique identifier for this backtest run.
	ID string `json:"id" yaml:"id"`
	// Name is a short label, e.g. "Backtest 50/200"
	Name        string    `json:"name" yaml:"name"`
	StartDate   Date      `json:"startDate" yaml:"start_date"`
	EndDate     Date      `json:"endDate" yaml:"end_date"`
	ShortWindow int       `json:"shortWindow" yaml:"short_window"`
	LongWindow  int       `json:"longWindow" yaml:"long_window"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
	// TotalReturn is the realized return on the initial balance, in percent.
	TotalReturn float64 `json:"totalReturn" yaml:"total_return"`
	// WinRate is the share of closed trades with a positive profit, in percent.
	WinRate     float64 `json:"winRate" yaml:"win_rate"`
	TradesCount int     `json:"tradesCount" yaml:"trades_count"`
	Trades      []Trade `json:"trades" yaml:"trades"`
}
