package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/gold-data/internal/types"
	goldErrors "github.com/rxtech-lab/gold-data/pkg/errors"
)

// mockBinanceAPIClient implements BinanceAPIClient for testing.
type mockBinanceAPIClient struct {
	klines    []*binance.Kline
	klinesErr error
	// For pagination testing - returns different results on subsequent calls
	callCount     int
	klinesPerCall [][]*binance.Kline
	errorsPerCall []error
	services      []*mockBinanceKlinesService
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	service := &mockBinanceKlinesService{client: m}
	m.services = append(m.services, service)

	return service
}

type mockBinanceKlinesService struct {
	client   *mockBinanceAPIClient
	symbol   string
	interval string
	start    int64
	end      int64
}

func (m *mockBinanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	m.symbol = symbol

	return m
}

func (m *mockBinanceKlinesService) Interval(interval string) BinanceKlinesService {
	m.interval = interval

	return m
}

func (m *mockBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	m.start = startTime

	return m
}

func (m *mockBinanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	m.end = endTime

	return m
}

func (m *mockBinanceKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	// If we have per-call data, use it
	if len(m.client.klinesPerCall) > 0 {
		idx := m.client.callCount
		m.client.callCount++

		if idx < len(m.client.klinesPerCall) {
			var err error
			if idx < len(m.client.errorsPerCall) {
				err = m.client.errorsPerCall[idx]
			}

			return m.client.klinesPerCall[idx], err
		}

		return nil, nil
	}

	m.client.callCount++

	return m.client.klines, m.client.klinesErr
}

// dailyKlines builds n consecutive daily klines starting at start.
func dailyKlines(start time.Time, n int) []*binance.Kline {
	klines := make([]*binance.Kline, 0, n)

	for i := 0; i < n; i++ {
		open := start.AddDate(0, 0, i)
		price := 2000 + float64(i)

		klines = append(klines, &binance.Kline{
			OpenTime:  open.UnixMilli(),
			Open:      fmt.Sprintf("%.2f", price),
			High:      fmt.Sprintf("%.2f", price+5),
			Low:       fmt.Sprintf("%.2f", price-5),
			Close:     fmt.Sprintf("%.2f", price+1),
			Volume:    "12.5",
			CloseTime: open.AddDate(0, 0, 1).UnixMilli() - 1,
		})
	}

	return klines
}

type BinanceClientTestSuite struct {
	suite.Suite
	start time.Time
	end   time.Time
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

func (suite *BinanceClientTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.end = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
}

func (suite *BinanceClientTestSuite) TestNewBinanceClient() {
	client, err := NewBinanceClient()
	suite.NoError(err)
	suite.NotNil(client)

	binanceClient, ok := client.(*BinanceClient)
	suite.True(ok)
	suite.NotNil(binanceClient.apiClient)
	suite.Nil(binanceClient.writer)
}

func (suite *BinanceClientTestSuite) TestDownloadWithoutWriter() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})

	_, err := client.Download(context.Background(), "PAXGUSDT", suite.start, suite.end, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "writer is not configured")
}

func (suite *BinanceClientTestSuite) TestDownloadWriterInitializationError() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})
	client.ConfigWriter(&mockWriter{initializeErr: errors.New("init failed")})

	_, err := client.Download(context.Background(), "PAXGUSDT", suite.start, suite.end, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to initialize writer")
}

func (suite *BinanceClientTestSuite) TestDownloadSuccess() {
	api := &mockBinanceAPIClient{klines: dailyKlines(suite.start, 3)}
	w := &mockWriter{outputPath: "/tmp/paxg.csv"}
	client := NewBinanceClientWithAPI(api)
	client.ConfigWriter(w)

	path, err := client.Download(context.Background(), "PAXGUSDT", suite.start, suite.end, nil)
	suite.NoError(err)
	suite.Equal("/tmp/paxg.csv", path)
	suite.Equal(1, api.callCount)
	suite.Equal(1, w.finalizeCallCount)
	suite.Equal(1, w.closeCallCount)
	suite.Require().Len(w.writtenData, 3)

	suite.Equal("2024-01-01", w.writtenData[0].Date.String())
	suite.InDelta(2000.0, w.writtenData[0].Open, 1e-9)
	suite.InDelta(2005.0, w.writtenData[0].High, 1e-9)
	suite.InDelta(1995.0, w.writtenData[0].Low, 1e-9)
	suite.InDelta(2001.0, w.writtenData[0].Close, 1e-9)
	suite.InDelta(12.5, w.writtenData[0].Volume, 1e-9)

	suite.Require().Len(api.services, 1)
	service := api.services[0]
	suite.Equal("PAXGUSDT", service.symbol)
	suite.Equal("1d", service.interval)
	suite.Equal(suite.start.UnixMilli(), service.start)
	// the end day is inclusive
	suite.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC).UnixMilli()-1, service.end)
}

func (suite *BinanceClientTestSuite) TestDownloadEmptyKlines() {
	w := &mockWriter{outputPath: "/tmp/empty.csv"}
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klines: []*binance.Kline{}})
	client.ConfigWriter(w)

	path, err := client.Download(context.Background(), "PAXGUSDT", suite.start, suite.end, nil)
	suite.NoError(err)
	suite.Equal("/tmp/empty.csv", path)
	suite.Empty(w.writtenData)
}

func (suite *BinanceClientTestSuite) TestDownloadAPIError() {
	w := &mockWriter{}
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klinesErr: errors.New("API rate limit exceeded")})
	client.ConfigWriter(w)

	_, err := client.Download(context.Background(), "PAXGUSDT", suite.start, suite.end, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to fetch klines from Binance")
	suite.True(goldErrors.HasCode(err, goldErrors.ErrCodeMarketDataFetchFailed))
	suite.Equal(0, w.finalizeCallCount)
	suite.Equal(1, w.closeCallCount)
}

func (suite *BinanceClientTestSuite) TestDownloadFinalizeError() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klines: dailyKlines(suite.start, 2)})
	client.ConfigWriter(&mockWriter{finalizeErr: errors.New("finalize failed")})

	_, err := client.Download(context.Background(), "PAXGUSDT", suite.start, suite.end, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to finalize writer")
}

func (suite *BinanceClientTestSuite) TestDownloadWriteError() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klines: dailyKlines(suite.start, 2)})
	client.ConfigWriter(&mockWriter{writeErr: errors.New("disk full")})

	_, err := client.Download(context.Background(), "PAXGUSDT", suite.start, suite.end, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to process klines")
	suite.Contains(err.Error(), "disk full")
}

func (suite *BinanceClientTestSuite) TestDownloadPagination() {
	firstPage := dailyKlines(suite.start, binancePageSize)
	secondStart := suite.start.AddDate(0, 0, binancePageSize)
	secondPage := dailyKlines(secondStart, 10)

	api := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{firstPage, secondPage}}
	w := &mockWriter{}
	client := NewBinanceClientWithAPI(api)
	client.ConfigWriter(w)

	end := secondStart.AddDate(0, 0, 30)
	_, err := client.Download(context.Background(), "PAXGUSDT", suite.start, end, nil)
	suite.NoError(err)
	suite.Equal(2, api.callCount)
	suite.Len(w.writtenData, binancePageSize+10)

	// the second page starts right after the last close of the first
	suite.Require().Len(api.services, 2)
	suite.Equal(firstPage[len(firstPage)-1].CloseTime+1, api.services[1].start)
}

func (suite *BinanceClientTestSuite) TestDownloadPaginationWithAPIErrorOnSecondPage() {
	api := &mockBinanceAPIClient{
		klinesPerCall: [][]*binance.Kline{dailyKlines(suite.start, binancePageSize), nil},
		errorsPerCall: []error{nil, errors.New("connection reset")},
	}
	w := &mockWriter{}
	client := NewBinanceClientWithAPI(api)
	client.ConfigWriter(w)

	_, err := client.Download(context.Background(), "PAXGUSDT", suite.start, suite.start.AddDate(2, 0, 0), nil)
	suite.Error(err)
	suite.Contains(err.Error(), "connection reset")
	suite.Len(w.writtenData, binancePageSize)
}

func (suite *BinanceClientTestSuite) TestDownloadPaginationStopsAtEndTime() {
	// a full page whose last kline closes at the requested end stops the loop
	end := suite.start.AddDate(0, 0, binancePageSize-1)
	api := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{dailyKlines(suite.start, binancePageSize)}}
	client := NewBinanceClientWithAPI(api)
	client.ConfigWriter(&mockWriter{})

	_, err := client.Download(context.Background(), "PAXGUSDT", suite.start, end, nil)
	suite.NoError(err)
	suite.Equal(1, api.callCount)
}

func (suite *BinanceClientTestSuite) TestDownloadProgressCallback() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klines: dailyKlines(suite.start, 5)})
	client.ConfigWriter(&mockWriter{})

	var last, lastTotal float64

	calls := 0
	_, err := client.Download(context.Background(), "PAXGUSDT", suite.start, suite.end, func(current float64, total float64, message string) {
		calls++
		last = current
		lastTotal = total
		suite.LessOrEqual(current, total)
		suite.Contains(message, "PAXGUSDT")
	})
	suite.NoError(err)
	suite.GreaterOrEqual(calls, 2)
	suite.Equal(lastTotal, last)
}

func (suite *BinanceClientTestSuite) TestProcessKlines() {
	w := &mockWriter{}

	err := processKlines(w, dailyKlines(suite.start, 2))
	suite.NoError(err)
	suite.Require().Len(w.writtenData, 2)
	suite.Equal(types.NewDateOf(2024, time.January, 2), w.writtenData[1].Date)
}

func (suite *BinanceClientTestSuite) TestProcessKlinesEmpty() {
	w := &mockWriter{}

	suite.NoError(processKlines(w, nil))
	suite.Empty(w.writtenData)
}

func (suite *BinanceClientTestSuite) TestProcessKlinesWithInvalidNumbers() {
	testCases := []struct {
		name   string
		mutate func(k *binance.Kline)
	}{
		{name: "open", mutate: func(k *binance.Kline) { k.Open = "abc" }},
		{name: "high", mutate: func(k *binance.Kline) { k.High = "" }},
		{name: "low", mutate: func(k *binance.Kline) { k.Low = "1.2.3" }},
		{name: "close", mutate: func(k *binance.Kline) { k.Close = "NaN?" }},
		{name: "volume", mutate: func(k *binance.Kline) { k.Volume = "lots" }},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			klines := dailyKlines(suite.start, 1)
			tc.mutate(klines[0])

			w := &mockWriter{}
			err := processKlines(w, klines)
			suite.Error(err)
			suite.True(goldErrors.HasCode(err, goldErrors.ErrCodeMarketDataParseFailed))
			suite.Empty(w.writtenData)
		})
	}
}

func (suite *BinanceClientTestSuite) TestBinanceClientWrapperMethods() {
	wrapper := &binanceClientWrapper{client: binance.NewClient("", "")}
	service := wrapper.NewKlinesService()
	suite.NotNil(service)

	suite.Same(service, service.Symbol("PAXGUSDT"))
	suite.Same(service, service.Interval("1d"))
	suite.Same(service, service.StartTime(1))
	suite.Same(service, service.EndTime(2))
}
