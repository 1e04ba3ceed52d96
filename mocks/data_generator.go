package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/gold-data/internal/types"
)

// DataGenerator generates realistic daily gold bars for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// StartDate is the first trading day of the series
	StartDate types.Date
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price in USD per ounce
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the drift over the whole series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
	// SkipWeekends leaves Saturdays and Sundays out of the series, as exchanges do
	SkipWeekends bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartDate:      types.NewDateOf(2004, time.January, 2),
		Count:          500,
		InitialPrice:   415.0,
		Volatility:     0.01, // 1% per day
		Trend:          0.0,  // neutral
		VolumeBase:     150000,
		VolumeVariance: 0.3,
		SkipWeekends:   true,
	}
}

// Generate creates daily bars with unique ascending dates.
// Prices follow a geometric Brownian motion model and are rounded to cents.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	day := config.StartDate

	for i := 0; i < config.Count; i++ {
		for config.SkipWeekends && isWeekend(day) {
			day = day.AddDays(1)
		}

		open := currentPrice

		// Using Box-Muller transform for normal distribution
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count) // Distribute trend across bars

		closePrice := open * (1 + config.Volatility*z + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99 // Prevent negative prices
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, closePrice) + highExtension

		low := math.Min(open, closePrice) - lowExtension
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Date:   day,
			Open:   roundToDecimals(open, 2),
			High:   roundToDecimals(high, 2),
			Low:    roundToDecimals(low, 2),
			Close:  roundToDecimals(closePrice, 2),
			Volume: roundToDecimals(volume, 0),
		}

		currentPrice = closePrice
		day = day.AddDays(1)
	}

	return bars
}

// BarsFromCloses builds one bar per close on consecutive calendar days starting at start.
// Open, high and low are derived from the close.
func BarsFromCloses(start types.Date, closes []float64) []types.Bar {
	bars := make([]types.Bar, len(closes))

	for i, closePrice := range closes {
		bars[i] = types.Bar{
			Date:   start.AddDays(i),
			Open:   closePrice,
			High:   closePrice + 1,
			Low:    closePrice - 1,
			Close:  closePrice,
			Volume: 1000,
		}
	}

	return bars
}

// GenerateYears is a convenience function that generates roughly n years of
// trading days with default settings.
func GenerateYears(n int) []types.Bar {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = n * 252

	return gen.Generate(config)
}

func isWeekend(d types.Date) bool {
	weekday := d.Time().Weekday()

	return weekday == time.Saturday || weekday == time.Sunday
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int32) float64 {
	return decimal.NewFromFloat(val).Round(decimals).InexactFloat64()
}
