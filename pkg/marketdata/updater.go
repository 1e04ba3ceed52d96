package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/gold-data/internal/logger"
	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/cache"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/provider"
	"github.com/rxtech-lab/gold-data/pkg/marketdata/writer"
)

// UpdateRoundPlaces is the number of decimals fresh bars are rounded to before they are cached.
const UpdateRoundPlaces = 2

// PlanReason explains where an update starts fetching from.
type PlanReason string

const (
	// PlanReasonCached means the cache holds bars and fetching resumes the day after the last one.
	PlanReasonCached PlanReason = "cached"
	// PlanReasonMissing means there is no cache file yet.
	PlanReasonMissing PlanReason = "missing"
	// PlanReasonUnreadable means the cache file could not be parsed and is rebuilt from scratch.
	PlanReasonUnreadable PlanReason = "unreadable"
	// PlanReasonEmpty means the cache file holds no rows.
	PlanReasonEmpty PlanReason = "empty"
)

// UpdateStatus is the outcome of an update.
type UpdateStatus string

const (
	StatusUpdated   UpdateStatus = "updated"
	StatusUpToDate  UpdateStatus = "up_to_date"
	StatusNoNewData UpdateStatus = "no_new_data"
)

// Plan describes what an update would fetch.
type Plan struct {
	// Existing holds the cached bars, or nothing when the cache is missing or unreadable.
	Existing []types.Bar
	// LastDate is the last cached date, if any.
	LastDate optional.Option[types.Date]
	// Start is the first day to fetch.
	Start types.Date
	// Today is the last day to fetch.
	Today types.Date
	// UpToDate is set when Start is after Today, in which case nothing is fetched.
	UpToDate bool
	Reason   PlanReason
}

// UpdateResult describes a completed update.
type UpdateResult struct {
	Status UpdateStatus
	// Added is the growth in row count. Fresh bars that replace cached dates do not count.
	Added  int
	Total  int
	Latest types.Date
	Path   string
	Plan   Plan
}

// Updater keeps a cached series current by fetching only the days after its last stored date.
// Updates are serialized, so one Updater may be shared between goroutines.
type Updater struct {
	mu            sync.Mutex
	cache         cache.Cache
	provider      provider.Provider
	ticker        string
	fallbackStart types.Date
	now           func() time.Time
	onProgress    provider.OnDownloadProgress
	logger        *zap.Logger
}

// NewUpdater creates an Updater for ticker. Without a usable cache it fetches from DefaultStartDate.
func NewUpdater(c cache.Cache, p provider.Provider, ticker string, log *zap.Logger) *Updater {
	return &Updater{
		mu:            sync.Mutex{},
		cache:         c,
		provider:      p,
		ticker:        ticker,
		fallbackStart: DefaultStartDate,
		now:           time.Now,
		onProgress:    nil,
		logger:        logger.OrNop(log),
	}
}

// SetClock replaces the source of today's date.
func (u *Updater) SetClock(now func() time.Time) {
	u.now = now
}

// SetFallbackStart changes the first day fetched when the cache is missing, empty or unreadable.
func (u *Updater) SetFallbackStart(start types.Date) {
	u.fallbackStart = start
}

// SetProgressCallback registers a callback for provider download progress.
func (u *Updater) SetProgressCallback(onProgress provider.OnDownloadProgress) {
	u.onProgress = onProgress
}

// Plan reads the cache and works out the fetch window. A cache that cannot be read is
// logged and treated as absent; Plan itself never fails. It waits for any update in
// progress, so it never sees a half-written cache.
func (u *Updater) Plan() Plan {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.plan()
}

// plan is Plan without locking. The caller holds u.mu.
func (u *Updater) plan() Plan {
	today := types.NewDate(u.now())
	plan := Plan{
		Existing: nil,
		LastDate: optional.None[types.Date](),
		Start:    u.fallbackStart,
		Today:    today,
		UpToDate: false,
		Reason:   PlanReasonCached,
	}

	bars, err := u.cache.Load()

	switch {
	case errors.HasCode(err, errors.ErrCodeDataNotFound):
		plan.Reason = PlanReasonMissing
		u.logger.Info("No existing cache, fetching full history",
			zap.String("path", u.cache.Path()),
			zap.String("start", plan.Start.String()))
	case err != nil:
		plan.Reason = PlanReasonUnreadable
		u.logger.Error("Could not read existing cache, starting fresh download",
			zap.String("path", u.cache.Path()),
			zap.String("start", plan.Start.String()),
			zap.Error(err))
	case len(bars) == 0:
		plan.Reason = PlanReasonEmpty
		u.logger.Info("Cache is empty, fetching full history",
			zap.String("path", u.cache.Path()),
			zap.String("start", plan.Start.String()))
	default:
		last := bars[len(bars)-1].Date
		plan.Existing = bars
		plan.LastDate = optional.Some(last)
		plan.Start = last.AddDays(1)
		u.logger.Info("Existing data loaded",
			zap.String("path", u.cache.Path()),
			zap.Int("rows", len(bars)),
			zap.String("last_date", last.String()))
	}

	plan.UpToDate = plan.Start.After(today)

	return plan
}

// Update fetches the days missing from the cache, merges them in and rewrites the cache.
// The cache file is left untouched when it is already current or the provider has nothing new.
func (u *Updater) Update(ctx context.Context) (UpdateResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	plan := u.plan()
	result := UpdateResult{
		Status: StatusUpToDate,
		Added:  0,
		Total:  len(plan.Existing),
		Latest: plan.LastDate.TakeOr(types.Date{}),
		Path:   u.cache.Path(),
		Plan:   plan,
	}

	if plan.UpToDate {
		u.logger.Info("Data is already up to date", zap.String("latest", result.Latest.String()))

		return result, nil
	}

	u.logger.Info("Fetching new data",
		zap.String("ticker", u.ticker),
		zap.String("start", plan.Start.String()),
		zap.String("end", plan.Today.String()))

	collected := writer.NewMemoryWriter()
	u.provider.ConfigWriter(collected)

	if _, err := u.provider.Download(ctx, u.ticker, plan.Start.Time(), plan.Today.Time(), u.onProgress); err != nil {
		return result, fmt.Errorf("failed to fetch %s: %w", u.ticker, err)
	}

	fresh := collected.Bars()
	if len(fresh) == 0 {
		u.logger.Info("No new data available yet (possibly weekend/market closed)")

		result.Status = StatusNoNewData

		return result, nil
	}

	merged := Merge(plan.Existing, RoundBars(fresh, UpdateRoundPlaces))
	if err := u.cache.Save(merged); err != nil {
		return result, fmt.Errorf("failed to save cache: %w", err)
	}

	summary := Summarize(merged)
	result.Status = StatusUpdated
	result.Added = len(merged) - len(plan.Existing)
	result.Total = summary.Count
	result.Latest = summary.Latest

	u.logger.Info("Updated successfully",
		zap.Int("added", result.Added),
		zap.Int("total", result.Total),
		zap.String("latest", result.Latest.String()),
		zap.String("path", result.Path))

	return result, nil
}
