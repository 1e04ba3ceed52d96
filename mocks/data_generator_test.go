package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/gold-data/internal/types"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	bars := gen.Generate(config)
	require.Len(t, bars, 100)

	assert.Equal(t, config.StartDate, bars[0].Date)

	for i, bar := range bars {
		assert.Positive(t, bar.Open, "index %d", i)
		assert.Positive(t, bar.Close, "index %d", i)
		assert.GreaterOrEqual(t, bar.High, bar.Low, "index %d", i)
		assert.GreaterOrEqual(t, bar.High, bar.Close, "index %d", i)
		assert.LessOrEqual(t, bar.Low, bar.Close, "index %d", i)

		weekday := bar.Date.Time().Weekday()
		assert.NotEqual(t, time.Saturday, weekday, "index %d", i)
		assert.NotEqual(t, time.Sunday, weekday, "index %d", i)

		if i > 0 {
			assert.True(t, bar.Date.After(bars[i-1].Date), "dates not ascending at index %d", i)
		}
	}
}

func TestDataGenerator_IncludeWeekends(t *testing.T) {
	gen := NewDataGenerator(1)
	config := DefaultConfig()
	config.Count = 14
	config.SkipWeekends = false

	bars := gen.Generate(config)
	require.Len(t, bars, 14)
	assert.Equal(t, config.StartDate.AddDays(13), bars[13].Date)
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	config := DefaultConfig()
	config.Count = 10

	assert.Equal(t, NewDataGenerator(42).Generate(config), NewDataGenerator(42).Generate(config))
	assert.NotEqual(t, NewDataGenerator(42).Generate(config), NewDataGenerator(123).Generate(config))
}

func TestBarsFromCloses(t *testing.T) {
	start := types.NewDateOf(2024, time.January, 1)

	bars := BarsFromCloses(start, []float64{10, 11, 12})
	require.Len(t, bars, 3)
	assert.Equal(t, start.AddDays(2), bars[2].Date)
	assert.InDelta(t, 12.0, bars[2].Close, 1e-9)
}

func TestGenerateYears(t *testing.T) {
	bars := GenerateYears(2)

	assert.Len(t, bars, 504)
}
