package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderYahoo   ProviderType = "yahoo"
	ProviderBinance ProviderType = "binance"
	ProviderTiingo  ProviderType = "tiingo"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer for the provider.
	// Writer is used to persist the downloaded bars.
	// It could be a file, a database, or memory.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download downloads daily bars for the ticker between startDate and endDate, both inclusive.
	// The writer is initialized, finalized and closed by Download.
	// onProgress may be nil.
	// example:
	// Download(ctx, "C:XAUUSD", time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC), time.Now(), nil)
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error)
}

// Credentials holds the secrets a provider may need.
type Credentials struct {
	PolygonApiKey string
	TiingoToken   string
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(providerType ProviderType, credentials Credentials) (Provider, error) {
	switch providerType {
	case ProviderPolygon:
		return NewPolygonClient(credentials.PolygonApiKey)
	case ProviderYahoo:
		return NewYahooClient()
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderTiingo:
		return NewTiingoClient(credentials.TiingoToken)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

// dayRange normalizes start and end to calendar days, returning an error when end is before start.
func dayRange(startDate time.Time, endDate time.Time) (types.Date, types.Date, error) {
	start := types.NewDate(startDate)
	end := types.NewDate(endDate)

	if end.Before(start) {
		return start, end, errors.Newf(errors.ErrCodeInvalidParameter, "end date %s is before start date %s", end, start)
	}

	return start, end, nil
}

func reportProgress(onProgress OnDownloadProgress, current float64, total float64, message string) {
	if onProgress == nil {
		return
	}

	if current > total {
		current = total
	}

	onProgress(current, total, message)
}

// closeWriter closes w and folds a close failure into err.
func closeWriter(w writer.MarketDataWriter, err *error) {
	if cerr := w.Close(); cerr != nil {
		if *err == nil {
			*err = errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "error closing writer", cerr)
		}
	}
}
