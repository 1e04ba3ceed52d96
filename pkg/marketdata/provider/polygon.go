package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/writer"
)

// polygonMaxLimit is the largest page size the aggregates endpoint accepts.
const polygonMaxLimit = 50000

// PolygonAggsIterator is the subset of the polygon aggregate iterator the client uses.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient lists aggregate bars.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonRESTClient struct {
	client *polygon.Client
}

func (c *polygonRESTClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return c.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	apiClient      PolygonAPIClient
	writer         writer.MarketDataWriter
	progressOutput io.Writer
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonRESTClient{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a PolygonClient backed by the given API client.
func NewPolygonClientWithAPI(apiClient PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient:      apiClient,
		writer:         nil,
		progressOutput: os.Stderr,
	}
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// SetProgressOutput redirects the terminal progress bar. Use io.Discard to hide it.
func (c *PolygonClient) SetProgressOutput(w io.Writer) {
	c.progressOutput = w
}

// Download requests adjusted daily aggregates in a single paginated listing.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", fmt.Errorf("no writer configured for PolygonClient. Call ConfigWriter first")
	}

	start, end, err := dayRange(startDate, endDate)
	if err != nil {
		return "", err
	}

	if err = c.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer closeWriter(c.writer, &err)

	totalDays := int(end.Time().Sub(start.Time()).Hours()/24) + 1
	message := fmt.Sprintf("Downloading %s", ticker)

	bar := progressbar.NewOptions(totalDays,
		progressbar.OptionSetDescription(message),
		progressbar.OptionSetWriter(c.progressOutput),
		progressbar.OptionShowCount(),
	)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(start.Time()),
		To:         models.Millis(end.Time()),
	}.WithAdjusted(true).WithLimit(polygonMaxLimit)

	iter := c.apiClient.ListAggs(ctx, params)
	processedCount := 0

	for iter.Next() {
		agg := iter.Item()
		day := types.NewDate(time.Time(agg.Timestamp).UTC())

		err = c.writer.Write(types.Bar{
			Date:   day,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
		if err != nil {
			return "", fmt.Errorf("failed to write data: %w", err)
		}

		processedCount++
		daysElapsed := int(day.Time().Sub(start.Time()).Hours()/24) + 1
		_ = bar.Set(min(daysElapsed, totalDays))
		reportProgress(onProgress, float64(daysElapsed), float64(totalDays), message)
	}

	if iter.Err() != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", iter.Err())
	}

	_ = bar.Finish()

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}
