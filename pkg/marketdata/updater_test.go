package marketdata

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/mocks"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/cache"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/writer"
)

type UpdaterTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockProvider *mocks.MockProvider
	mockCache    *mocks.MockCache
	today        types.Date
}

func TestUpdaterSuite(t *testing.T) {
	suite.Run(t, new(UpdaterTestSuite))
}

func (suite *UpdaterTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockProvider = mocks.NewMockProvider(suite.ctrl)
	suite.mockCache = mocks.NewMockCache(suite.ctrl)
	suite.mockCache.EXPECT().Path().Return("gold.csv").AnyTimes()
	suite.today = types.NewDateOf(2024, time.March, 8)
}

func (suite *UpdaterTestSuite) newUpdater(c cache.Cache) *Updater {
	updater := NewUpdater(c, suite.mockProvider, "GC=F", nil)
	updater.SetClock(func() time.Time {
		// late in the day, in a zone east of UTC
		return time.Date(2024, 3, 8, 23, 30, 0, 0, time.FixedZone("UTC+8", 8*60*60))
	})

	return updater
}

// expectFetch expects one download of [start, today] and answers it with bars.
func (suite *UpdaterTestSuite) expectFetch(start types.Date, bars []types.Bar, fetchErr error) {
	var configured writer.MarketDataWriter

	suite.mockProvider.EXPECT().
		ConfigWriter(gomock.Any()).
		Do(func(w writer.MarketDataWriter) { configured = w })

	suite.mockProvider.EXPECT().
		Download(gomock.Any(), "GC=F", start.Time(), suite.today.Time(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ time.Time, _ time.Time, _ func(float64, float64, string)) (string, error) {
			if fetchErr != nil {
				return "", fetchErr
			}

			return writer.WriteAll(configured, bars)
		})
}

func (suite *UpdaterTestSuite) TestPlanMissingCacheStartsAtFallback() {
	suite.mockCache.EXPECT().Load().Return(nil, errors.New(errors.ErrCodeDataNotFound, "missing"))

	plan := suite.newUpdater(suite.mockCache).Plan()
	suite.Equal(PlanReasonMissing, plan.Reason)
	suite.Equal(types.NewDateOf(2004, time.January, 1), plan.Start)
	suite.Equal(suite.today, plan.Today)
	suite.True(plan.LastDate.IsNone())
	suite.False(plan.UpToDate)
	suite.Empty(plan.Existing)
}

func (suite *UpdaterTestSuite) TestPlanUnreadableCacheStartsAtFallback() {
	suite.mockCache.EXPECT().Load().Return(nil, errors.New(errors.ErrCodeMarketDataParseFailed, "garbage"))

	plan := suite.newUpdater(suite.mockCache).Plan()
	suite.Equal(PlanReasonUnreadable, plan.Reason)
	suite.Equal(types.NewDateOf(2004, time.January, 1), plan.Start)
	suite.Empty(plan.Existing)
}

func (suite *UpdaterTestSuite) TestPlanEmptyCacheStartsAtFallback() {
	suite.mockCache.EXPECT().Load().Return([]types.Bar{}, nil)

	plan := suite.newUpdater(suite.mockCache).Plan()
	suite.Equal(PlanReasonEmpty, plan.Reason)
	suite.Equal(types.NewDateOf(2004, time.January, 1), plan.Start)
}

func (suite *UpdaterTestSuite) TestPlanResumesAfterLastDate() {
	existing := mocks.BarsFromCloses(types.NewDateOf(2024, time.March, 1), []float64{1, 2, 3})
	suite.mockCache.EXPECT().Load().Return(existing, nil)

	plan := suite.newUpdater(suite.mockCache).Plan()
	suite.Equal(PlanReasonCached, plan.Reason)
	suite.Equal(types.NewDateOf(2024, time.March, 3), plan.LastDate.Unwrap())
	suite.Equal(types.NewDateOf(2024, time.March, 4), plan.Start)
	suite.False(plan.UpToDate)
	suite.Len(plan.Existing, 3)
}

func (suite *UpdaterTestSuite) TestPlanUpToDate() {
	testCases := []struct {
		name     string
		lastDate types.Date
	}{
		{name: "last date is today", lastDate: types.NewDateOf(2024, time.March, 8)},
		{name: "last date is after today", lastDate: types.NewDateOf(2024, time.March, 12)},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.mockCache.EXPECT().Load().Return(mocks.BarsFromCloses(tc.lastDate, []float64{1}), nil)

			plan := suite.newUpdater(suite.mockCache).Plan()
			suite.True(plan.UpToDate)
		})
	}
}

func (suite *UpdaterTestSuite) TestPlanYesterdayIsNotUpToDate() {
	suite.mockCache.EXPECT().Load().Return(mocks.BarsFromCloses(types.NewDateOf(2024, time.March, 7), []float64{1}), nil)

	plan := suite.newUpdater(suite.mockCache).Plan()
	suite.False(plan.UpToDate)
	suite.Equal(suite.today, plan.Start)
}

func (suite *UpdaterTestSuite) TestUpdateUpToDateSkipsFetch() {
	existing := mocks.BarsFromCloses(suite.today.AddDays(-1), []float64{1, 2})
	suite.mockCache.EXPECT().Load().Return(existing, nil)
	// neither the provider nor Save may be called

	result, err := suite.newUpdater(suite.mockCache).Update(context.Background())
	suite.NoError(err)
	suite.Equal(StatusUpToDate, result.Status)
	suite.Equal(0, result.Added)
	suite.Equal(2, result.Total)
	suite.Equal(suite.today, result.Latest)
}

func (suite *UpdaterTestSuite) TestUpdateNoNewDataLeavesCacheUntouched() {
	existing := mocks.BarsFromCloses(types.NewDateOf(2024, time.March, 1), []float64{1, 2})
	suite.mockCache.EXPECT().Load().Return(existing, nil)
	suite.expectFetch(types.NewDateOf(2024, time.March, 3), nil, nil)

	result, err := suite.newUpdater(suite.mockCache).Update(context.Background())
	suite.NoError(err)
	suite.Equal(StatusNoNewData, result.Status)
	suite.Equal(0, result.Added)
	suite.Equal(2, result.Total)
}

func (suite *UpdaterTestSuite) TestUpdateMergesRoundsAndSaves() {
	existing := mocks.BarsFromCloses(types.NewDateOf(2024, time.March, 4), []float64{2100, 2110})
	fresh := []types.Bar{
		{Date: types.NewDateOf(2024, time.March, 6), Open: 2120.123, High: 2130.456, Low: 2110.789, Close: 2125.555, Volume: 100.004},
		{Date: types.NewDateOf(2024, time.March, 7), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
	}

	suite.mockCache.EXPECT().Load().Return(existing, nil)
	suite.expectFetch(types.NewDateOf(2024, time.March, 6), fresh, nil)

	var saved []types.Bar
	suite.mockCache.EXPECT().Save(gomock.Any()).DoAndReturn(func(bars []types.Bar) error {
		saved = bars

		return nil
	})

	result, err := suite.newUpdater(suite.mockCache).Update(context.Background())
	suite.NoError(err)
	suite.Equal(StatusUpdated, result.Status)
	suite.Equal(2, result.Added)
	suite.Equal(4, result.Total)
	suite.Equal(types.NewDateOf(2024, time.March, 7), result.Latest)
	suite.Equal("gold.csv", result.Path)

	suite.Require().Len(saved, 4)
	suite.Equal(types.Bar{
		Date:   types.NewDateOf(2024, time.March, 6),
		Open:   2120.12,
		High:   2130.46,
		Low:    2110.79,
		Close:  2125.55,
		Volume: 100,
	}, saved[2])
}

func (suite *UpdaterTestSuite) TestUpdateOverlapReplacesCachedDays() {
	// a provider may return days that are already cached; the fresh values win
	existing := mocks.BarsFromCloses(types.NewDateOf(2024, time.March, 5), []float64{1, 2})
	fresh := mocks.BarsFromCloses(types.NewDateOf(2024, time.March, 6), []float64{20, 30})

	suite.mockCache.EXPECT().Load().Return(existing, nil)
	suite.expectFetch(types.NewDateOf(2024, time.March, 7), fresh, nil)

	var saved []types.Bar
	suite.mockCache.EXPECT().Save(gomock.Any()).Do(func(bars []types.Bar) { saved = bars }).Return(nil)

	result, err := suite.newUpdater(suite.mockCache).Update(context.Background())
	suite.NoError(err)
	suite.Equal(1, result.Added)
	suite.Equal(3, result.Total)
	suite.Require().Len(saved, 3)
	suite.InDelta(20.0, saved[1].Close, 1e-9)
}

func (suite *UpdaterTestSuite) TestUpdateUnreadableCacheRefetchesFromFallback() {
	suite.mockCache.EXPECT().Load().Return(nil, errors.New(errors.ErrCodeMarketDataParseFailed, "garbage"))
	suite.expectFetch(types.NewDateOf(2004, time.January, 1), mocks.BarsFromCloses(types.NewDateOf(2004, time.January, 2), []float64{415}), nil)
	suite.mockCache.EXPECT().Save(gomock.Len(1)).Return(nil)

	result, err := suite.newUpdater(suite.mockCache).Update(context.Background())
	suite.NoError(err)
	suite.Equal(StatusUpdated, result.Status)
	suite.Equal(1, result.Added)
	suite.Equal(PlanReasonUnreadable, result.Plan.Reason)
}

func (suite *UpdaterTestSuite) TestUpdateFetchError() {
	suite.mockCache.EXPECT().Load().Return(nil, errors.New(errors.ErrCodeDataNotFound, "missing"))
	suite.expectFetch(types.NewDateOf(2004, time.January, 1), nil, stderrors.New("connection refused"))

	_, err := suite.newUpdater(suite.mockCache).Update(context.Background())
	suite.Error(err)
	suite.Contains(err.Error(), "connection refused")
}

func (suite *UpdaterTestSuite) TestUpdateSaveError() {
	suite.mockCache.EXPECT().Load().Return(nil, errors.New(errors.ErrCodeDataNotFound, "missing"))
	suite.expectFetch(types.NewDateOf(2004, time.January, 1), mocks.BarsFromCloses(types.NewDateOf(2004, time.January, 2), []float64{415}), nil)
	suite.mockCache.EXPECT().Save(gomock.Any()).Return(errors.New(errors.ErrCodeMarketDataWriteFailed, "disk full"))

	_, err := suite.newUpdater(suite.mockCache).Update(context.Background())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
}

func (suite *UpdaterTestSuite) TestPlanWaitsForUpdateInProgress() {
	csvCache := cache.NewCSVCache(filepath.Join(suite.T().TempDir(), "gold.csv"))
	updater := suite.newUpdater(csvCache)
	updater.SetFallbackStart(types.NewDateOf(2024, time.March, 4))

	fetching := make(chan struct{})
	release := make(chan struct{})

	var configured writer.MarketDataWriter

	suite.mockProvider.EXPECT().
		ConfigWriter(gomock.Any()).
		Do(func(w writer.MarketDataWriter) { configured = w })
	suite.mockProvider.EXPECT().
		Download(gomock.Any(), "GC=F", gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ time.Time, _ time.Time, _ func(float64, float64, string)) (string, error) {
			close(fetching)
			<-release

			return writer.WriteAll(configured, mocks.BarsFromCloses(types.NewDateOf(2024, time.March, 4), []float64{1, 2, 3}))
		})

	updated := make(chan UpdateResult, 1)

	go func() {
		result, err := updater.Update(context.Background())
		suite.NoError(err)
		updated <- result
	}()

	<-fetching

	planned := make(chan Plan, 1)

	go func() {
		planned <- updater.Plan()
	}()

	select {
	case <-planned:
		suite.Fail("Plan returned while an update was still writing the cache")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	result := <-updated

	plan := <-planned
	suite.Equal(PlanReasonCached, plan.Reason)
	suite.Len(plan.Existing, 3)
	suite.Equal(result.Latest.AddDays(1), plan.Start)
}

func (suite *UpdaterTestSuite) TestSetFallbackStart() {
	suite.mockCache.EXPECT().Load().Return(nil, errors.New(errors.ErrCodeDataNotFound, "missing"))

	updater := suite.newUpdater(suite.mockCache)
	updater.SetFallbackStart(types.NewDateOf(2020, time.June, 1))

	suite.Equal(types.NewDateOf(2020, time.June, 1), updater.Plan().Start)
}

func (suite *UpdaterTestSuite) TestRoundTripWithCSVCache() {
	dir := suite.T().TempDir()
	csvCache := cache.NewCSVCache(filepath.Join(dir, "gold_2004_to_now_GC_F.csv"))

	gen := mocks.NewDataGenerator(7)
	config := mocks.DefaultConfig()
	config.StartDate = types.NewDateOf(2023, time.January, 2)
	config.Count = 250
	history := gen.Generate(config)

	updater := suite.newUpdater(csvCache)
	updater.SetFallbackStart(config.StartDate)
	suite.expectFetch(config.StartDate, history, nil)

	first, err := updater.Update(context.Background())
	suite.Require().NoError(err)
	suite.Equal(StatusUpdated, first.Status)
	suite.Equal(250, first.Added)
	suite.Equal(PlanReasonMissing, first.Plan.Reason)

	// a second run resumes after the last stored day and sees the same rows
	plan := updater.Plan()
	suite.Equal(PlanReasonCached, plan.Reason)
	suite.Len(plan.Existing, first.Total)
	suite.Equal(history[0].Date, plan.Existing[0].Date)
	suite.Equal(first.Latest, plan.LastDate.Unwrap())
	suite.Equal(first.Latest.AddDays(1), plan.Start)
}

func (suite *UpdaterTestSuite) TestCorruptCSVCacheStartsAtFallback() {
	path := filepath.Join(suite.T().TempDir(), "gold.csv")
	suite.Require().NoError(os.WriteFile(path, []byte("Date,Open\nnot a date,1\n"), 0644))

	plan := suite.newUpdater(cache.NewCSVCache(path)).Plan()
	suite.Equal(PlanReasonUnreadable, plan.Reason)
	suite.Equal(DefaultStartDate, plan.Start)
}
