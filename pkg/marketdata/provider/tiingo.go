package provider

import (
	"context"
	"fmt"
	"time"

	quote "github.com/markcheno/go-quote"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/writer"
)

// TiingoAPIClient fetches daily quotes from Tiingo.
type TiingoAPIClient interface {
	Daily(symbol string, startDate string, endDate string) (quote.Quote, error)
}

type goQuoteTiingo struct {
	token string
}

func (c *goQuoteTiingo) Daily(symbol string, startDate string, endDate string) (quote.Quote, error) {
	return quote.NewQuoteFromTiingo(symbol, startDate, endDate, quote.Daily, c.token)
}

// TiingoClient downloads adjusted daily prices for exchange traded gold funds such as GLD.
type TiingoClient struct {
	apiClient TiingoAPIClient
	writer    writer.MarketDataWriter
}

func NewTiingoClient(token string) (Provider, error) {
	if token == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "tiingo token is required")
	}

	return NewTiingoClientWithAPI(&goQuoteTiingo{token: token}), nil
}

// NewTiingoClientWithAPI creates a TiingoClient backed by the given API client.
func NewTiingoClientWithAPI(apiClient TiingoAPIClient) *TiingoClient {
	return &TiingoClient{
		apiClient: apiClient,
		writer:    nil,
	}
}

func (c *TiingoClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download fetches the daily quote series in one request. The go-quote client
// does not take a context, so cancellation is only checked before the request.
func (c *TiingoClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", fmt.Errorf("writer is not configured")
	}

	start, end, err := dayRange(startDate, endDate)
	if err != nil {
		return "", err
	}

	if err = ctx.Err(); err != nil {
		return "", err
	}

	if err = c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer closeWriter(c.writer, &err)

	message := fmt.Sprintf("Downloading %s from Tiingo", ticker)
	reportProgress(onProgress, 0, 1, message)

	q, err := c.apiClient.Daily(ticker, start.String(), end.String())
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s from Tiingo", ticker)
	}

	for i := range q.Date {
		bar := types.Bar{
			Date:   types.NewDate(q.Date[i]),
			Open:   q.Open[i],
			High:   q.High[i],
			Low:    q.Low[i],
			Close:  q.Close[i],
			Volume: q.Volume[i],
		}

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
