package marketdata

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rxtech-lab/gold-data/internal/logger"
	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/provider"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType = provider.ProviderType

const (
	ProviderPolygon = provider.ProviderPolygon
	ProviderYahoo   = provider.ProviderYahoo
	ProviderBinance = provider.ProviderBinance
	ProviderTiingo  = provider.ProviderTiingo
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterCSV     WriterType = "csv"
	WriterParquet WriterType = "parquet"
)

// DefaultStartDate is the first day requested when no start date is given.
var DefaultStartDate = types.NewDateOf(2004, time.January, 1)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=polygon yahoo binance tiingo"`
	WriterType    WriterType   `validate:"required,oneof=csv parquet"`
	DataPath      string       `validate:"required"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
	TiingoToken   string       `validate:"required_if=ProviderType tiingo"`
}

// Validate checks the configuration, including the credential the chosen provider needs.
func (c ClientConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	return nil
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker    string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	// EndDate may equal StartDate for a single-day range.
	EndDate time.Time `validate:"required,gtefield=StartDate"`
	// OutputFile names the output file. Relative names are placed under the data path.
	// When empty a name is derived from the ticker and date range.
	OutputFile string
}

// Result describes a completed download.
type Result struct {
	Path    string
	Bars    []types.Bar
	Summary Summary
}

// Client is the market data client responsible for downloading data from providers and storing it using writers.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	logger     *zap.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress, log *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, provider.Credentials{
		PolygonApiKey: config.PolygonApiKey,
		TiingoToken:   config.TiingoToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", config.ProviderType, err)
	}

	return NewClientWithProvider(config, marketProvider, onProgress, log), nil
}

// NewClientWithProvider creates a client around an existing provider. The configuration
// is not validated against the provider.
func NewClientWithProvider(config ClientConfig, marketProvider provider.Provider, onProgress provider.OnDownloadProgress, log *zap.Logger) *Client {
	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validator.New(),
		onProgress: onProgress,
		logger:     logger.OrNop(log),
	}
}

// Download fetches the requested bars, removes repeated dates and writes the series
// with the configured writer. A download that yields no bars is an ErrCodeNoDataFound
// error and writes nothing.
func (c *Client) Download(ctx context.Context, params DownloadParams) (Result, error) {
	if err := c.validate.Struct(params); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	collected := writer.NewMemoryWriter()
	c.provider.ConfigWriter(collected)

	c.logger.Info("Downloading market data",
		zap.String("provider", string(c.config.ProviderType)),
		zap.String("ticker", params.Ticker),
		zap.String("start", types.NewDate(params.StartDate).String()),
		zap.String("end", types.NewDate(params.EndDate).String()),
	)

	_, err := c.provider.Download(ctx, params.Ticker, params.StartDate, params.EndDate, c.onProgress)
	if err != nil {
		return Result{}, fmt.Errorf("download failed: %w", err)
	}

	bars := Merge(nil, collected.Bars())
	if len(bars) == 0 {
		return Result{}, errors.Newf(errors.ErrCodeNoDataFound, "no data returned for %s between %s and %s",
			params.Ticker, types.NewDate(params.StartDate), types.NewDate(params.EndDate))
	}

	out, err := c.setupWriter(params)
	if err != nil {
		return Result{}, fmt.Errorf("failed to setup writer: %w", err)
	}

	path, err := writer.WriteAll(out, bars)
	if err != nil {
		return Result{}, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write %s", out.GetOutputPath())
	}

	summary := Summarize(bars)
	c.logger.Info("Download complete",
		zap.String("path", path),
		zap.Int("bars", summary.Count),
		zap.String("earliest", summary.Earliest.String()),
		zap.String("latest", summary.Latest.String()),
	)

	return Result{Path: path, Bars: bars, Summary: summary}, nil
}

// OutputPath returns the file a download with params is written to.
func (c *Client) OutputPath(params DownloadParams) string {
	name := params.OutputFile
	if name == "" {
		// Construct filename: TICKER_START_END.ext
		name = fmt.Sprintf("%s_%s_%s.%s",
			SanitizeTicker(params.Ticker),
			types.NewDate(params.StartDate),
			types.NewDate(params.EndDate),
			c.extension())
	}

	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.config.DataPath, name)
}

// setupWriter creates the writer for the configured output format.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	outputPath := c.OutputPath(params)

	switch c.config.WriterType {
	case WriterCSV:
		return writer.NewCSVWriter(outputPath), nil
	case WriterParquet:
		return writer.NewDuckDBWriter(params.Ticker, outputPath), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}

func (c *Client) extension() string {
	if c.config.WriterType == WriterParquet {
		return "parquet"
	}

	return "csv"
}

// SanitizeTicker makes tickers such as C:XAUUSD and GC=F safe to use in file names.
func SanitizeTicker(ticker string) string {
	return strings.NewReplacer(":", "_", "=", "_", "/", "_").Replace(ticker)
}
