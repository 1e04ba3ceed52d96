package marketdata

import (
	"math"
	"slices"

	"github.com/rxtech-lab/gold-data/internal/types"
)

// PreviewRows is the number of rows shown at each end of a download preview.
const PreviewRows = 8

// Summary describes the extent of a series.
type Summary struct {
	Count    int        `json:"count" yaml:"count"`
	Earliest types.Date `json:"earliest" yaml:"earliest"`
	Latest   types.Date `json:"latest" yaml:"latest"`
}

// Merge combines existing and fresh bars into a series with unique, ascending dates.
// When a date appears more than once the bar seen last wins, so fresh bars replace
// cached ones for the same day.
func Merge(existing []types.Bar, fresh []types.Bar) []types.Bar {
	index := make(map[types.Date]int, len(existing)+len(fresh))
	merged := make([]types.Bar, 0, len(existing)+len(fresh))

	for _, bar := range slices.Concat(existing, fresh) {
		if i, ok := index[bar.Date]; ok {
			merged[i] = bar

			continue
		}

		index[bar.Date] = len(merged)
		merged = append(merged, bar)
	}

	SortBars(merged)

	return merged
}

// SortBars sorts bars by date in place, keeping the input order of equal dates.
func SortBars(bars []types.Bar) {
	slices.SortStableFunc(bars, func(a, b types.Bar) int {
		return a.Date.Compare(b.Date)
	})
}

// Summarize returns the bar count and date range of an ascending series.
func Summarize(bars []types.Bar) Summary {
	if len(bars) == 0 {
		return Summary{Count: 0, Earliest: types.Date{}, Latest: types.Date{}}
	}

	return Summary{
		Count:    len(bars),
		Earliest: bars[0].Date,
		Latest:   bars[len(bars)-1].Date,
	}
}

// Head returns up to the first n bars.
func Head(bars []types.Bar, n int) []types.Bar {
	return bars[:min(max(n, 0), len(bars))]
}

// Tail returns up to the last n bars.
func Tail(bars []types.Bar, n int) []types.Bar {
	return bars[len(bars)-min(max(n, 0), len(bars)):]
}

// RoundBars returns a copy of bars with prices and volume rounded to places decimals
// the way pandas does it.
func RoundBars(bars []types.Bar, places int32) []types.Bar {
	rounded := make([]types.Bar, len(bars))

	for i, bar := range bars {
		rounded[i] = types.Bar{
			Date:   bar.Date,
			Open:   round(bar.Open, places),
			High:   round(bar.High, places),
			Low:    round(bar.Low, places),
			Close:  round(bar.Close, places),
			Volume: round(bar.Volume, places),
		}
	}

	return rounded
}

// round scales value by 10^places in floating point and rounds the result half
// to even, so 2064.125 becomes 2064.12 and 2.675 (267.5 once scaled) becomes 2.68.
func round(value float64, places int32) float64 {
	scale := math.Pow10(int(places))

	return math.RoundToEven(value*scale) / scale
}
