package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/writer"
)

const (
	binanceDailyInterval = "1d"
	// binancePageSize is the default number of klines Binance returns per request.
	binancePageSize = 500
)

// BinanceKlinesService is the subset of the go-binance klines service the client uses.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines services.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceClientWrapper struct {
	client *binance.Client
}

func (w *binanceClientWrapper) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesServiceWrapper{service: w.client.NewKlinesService()}
}

type binanceKlinesServiceWrapper struct {
	service *binance.KlinesService
}

func (w *binanceKlinesServiceWrapper) Symbol(symbol string) BinanceKlinesService {
	w.service.Symbol(symbol)

	return w
}

func (w *binanceKlinesServiceWrapper) Interval(interval string) BinanceKlinesService {
	w.service.Interval(interval)

	return w
}

func (w *binanceKlinesServiceWrapper) StartTime(startTime int64) BinanceKlinesService {
	w.service.StartTime(startTime)

	return w
}

func (w *binanceKlinesServiceWrapper) EndTime(endTime int64) BinanceKlinesService {
	w.service.EndTime(endTime)

	return w
}

func (w *binanceKlinesServiceWrapper) Do(ctx context.Context) ([]*binance.Kline, error) {
	return w.service.Do(ctx)
}

// BinanceClient downloads daily klines from the Binance public market data API.
// Gold trades there as the PAXGUSDT pair. No authentication is required.
type BinanceClient struct {
	apiClient BinanceAPIClient
	writer    writer.MarketDataWriter
}

func NewBinanceClient() (Provider, error) {
	return NewBinanceClientWithAPI(&binanceClientWrapper{client: binance.NewClient("", "")}), nil
}

// NewBinanceClientWithAPI creates a BinanceClient backed by the given API client.
func NewBinanceClientWithAPI(apiClient BinanceAPIClient) *BinanceClient {
	return &BinanceClient{
		apiClient: apiClient,
		writer:    nil,
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download pages through daily klines between startDate and the end of endDate.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
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

	startTimeMillis := start.Time().UnixMilli()
	endTimeMillis := end.AddDays(1).Time().UnixMilli() - 1
	currentStartTime := startTimeMillis
	message := fmt.Sprintf("Downloading %s klines from Binance", ticker)

	for {
		klines, fetchErr := c.apiClient.NewKlinesService().
			Symbol(ticker).
			Interval(binanceDailyInterval).
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Do(ctx)
		if fetchErr != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines from Binance", fetchErr)
		}

		if err = processKlines(c.writer, klines); err != nil {
			return "", fmt.Errorf("failed to process klines: %w", err)
		}

		reportProgress(onProgress, float64(currentStartTime-startTimeMillis), float64(endTimeMillis-startTimeMillis), message)

		// a short page is the last one
		if len(klines) < binancePageSize {
			break
		}

		// continue after the close of the last kline to avoid duplicates
		currentStartTime = klines[len(klines)-1].CloseTime + 1
		if currentStartTime >= endTimeMillis {
			break
		}
	}

	reportProgress(onProgress, float64(endTimeMillis-startTimeMillis), float64(endTimeMillis-startTimeMillis), message)

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}

// processKlines converts Binance klines to bars and writes them.
func processKlines(w writer.MarketDataWriter, klines []*binance.Kline) error {
	for _, k := range klines {
		bar, err := klineToBar(k)
		if err != nil {
			return err
		}

		if err := w.Write(bar); err != nil {
			return fmt.Errorf("failed to write market data: %w", err)
		}
	}

	return nil
}

func klineToBar(k *binance.Kline) (types.Bar, error) {
	fields := []string{k.Open, k.High, k.Low, k.Close, k.Volume}
	values := make([]float64, len(fields))

	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q", field)
		}

		values[i] = value
	}

	return types.Bar{
		Date:   types.NewDate(time.UnixMilli(k.OpenTime).UTC()),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}
