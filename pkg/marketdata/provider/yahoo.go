package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/writer"
)

const yahooMaxRetries = 3

// YahooChartIterator is the subset of the finance-go chart iterator the client uses.
type YahooChartIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// YahooAPIClient requests chart data from Yahoo Finance.
type YahooAPIClient interface {
	Chart(params *chart.Params) YahooChartIterator
}

type yahooChartClient struct{}

func (yahooChartClient) Chart(params *chart.Params) YahooChartIterator {
	return chart.Get(params)
}

// YahooClient downloads auto-adjusted daily bars from the Yahoo Finance chart API.
type YahooClient struct {
	apiClient  YahooAPIClient
	writer     writer.MarketDataWriter
	newBackOff func() backoff.BackOff
}

func NewYahooClient() (Provider, error) {
	return NewYahooClientWithAPI(yahooChartClient{}), nil
}

// NewYahooClientWithAPI creates a YahooClient backed by the given API client.
func NewYahooClientWithAPI(apiClient YahooAPIClient) *YahooClient {
	return &YahooClient{
		apiClient:  apiClient,
		writer:     nil,
		newBackOff: defaultYahooBackOff,
	}
}

func defaultYahooBackOff() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), yahooMaxRetries)
}

func (c *YahooClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download fetches the chart for [startDate, endDate]. The whole request is
// retried with exponential backoff; bars are written only once a request succeeds.
func (c *YahooClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", fmt.Errorf("writer is not configured")
	}

	start, end, err := dayRange(startDate, endDate)
	if err != nil {
		return "", err
	}

	if err = c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer closeWriter(c.writer, &err)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := &chart.Params{
		Symbol:   ticker,
		Interval: datetime.OneDay,
		Start:    toDatetime(start),
		// period2 is exclusive
		End: toDatetime(end.AddDays(1)),
	}

	message := fmt.Sprintf("Downloading %s from Yahoo Finance", ticker)
	reportProgress(onProgress, 0, 1, message)

	var bars []types.Bar

	fetch := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		bars = bars[:0]
		iter := c.apiClient.Chart(params)

		for iter.Next() {
			bar, ok := convertChartBar(iter.Bar())
			if !ok {
				continue
			}

			if bar.Date.Before(start) || bar.Date.After(end) {
				continue
			}

			bars = append(bars, bar)
		}

		return iter.Err()
	}

	err = backoff.Retry(fetch, backoff.WithContext(c.newBackOff(), ctx))
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s chart from Yahoo Finance", ticker)
	}

	for _, bar := range bars {
		if err = c.writer.Write(bar); err != nil {
			return "", fmt.Errorf("failed to write data: %w", err)
		}
	}

	reportProgress(onProgress, 1, 1, message)

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}

func toDatetime(d types.Date) *datetime.Datetime {
	t := d.Time()

	//nolint:exhaustruct // unexported fields
	return &datetime.Datetime{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
	}
}

// convertChartBar turns a chart bar into a Bar, scaling open, high, low and close
// by AdjClose/Close when an adjusted close is reported. Bars without a close are dropped.
func convertChartBar(raw *finance.ChartBar) (types.Bar, bool) {
	if raw == nil || raw.Close.IsZero() {
		return types.Bar{}, false
	}

	ratio := decimal.NewFromInt(1)
	if !raw.AdjClose.IsZero() {
		ratio = raw.AdjClose.Div(raw.Close)
	}

	// US exchanges stamp daily bars at local midnight, which is the same calendar day in UTC.
	day := types.NewDate(time.Unix(int64(raw.Timestamp), 0).UTC())

	return types.Bar{
		Date:   day,
		Open:   raw.Open.Mul(ratio).InexactFloat64(),
		High:   raw.High.Mul(ratio).InexactFloat64(),
		Low:    raw.Low.Mul(ratio).InexactFloat64(),
		Close:  raw.Close.Mul(ratio).InexactFloat64(),
		Volume: float64(raw.Volume),
	}, true
}
