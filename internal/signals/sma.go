// Package signals derives buy and sell signals from a daily gold series
// using a simple moving average crossover.
package signals

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
)

// Config configures the crossover.
type Config struct {
	ShortWindow int     `yaml:"short_window" json:"shortWindow" validate:"required,min=1,ltfield=LongWindow" jsonschema:"title=Short window,description=Days in the fast moving average,minimum=1,default=50"`
	LongWindow  int     `yaml:"long_window" json:"longWindow" validate:"required,min=2" jsonschema:"title=Long window,description=Days in the slow moving average and the minimum series length,minimum=2,default=200"`
	Confidence  float64 `yaml:"confidence" json:"confidence" validate:"gte=0,lte=1" jsonschema:"title=Confidence,description=Confidence attached to every signal,minimum=0,maximum=1,default=0.8"`
}

// DefaultConfig is the classic 50/200 day crossover.
func DefaultConfig() Config {
	return Config{
		ShortWindow: 50,
		LongWindow:  200,
		Confidence:  0.8,
	}
}

// Generator emits a signal each time the short average crosses the long one.
type Generator struct {
	config Config
}

// NewGenerator validates config and returns a Generator for it.
func NewGenerator(config Config) (*Generator, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid signal configuration", err)
	}

	return &Generator{config: config}, nil
}

func (g *Generator) Config() Config {
	return g.config
}

// Generate walks an ascending series and returns the crossover signals in date order.
//
// From day LongWindow onwards a BUY is emitted when the short average is above the
// long one and the previous signal was not a BUY, and a SELL when it is below and
// the previous signal was not a SELL. Days in between produce nothing, so signals
// alternate. Fewer than LongWindow bars is an ErrCodeInsufficientData error.
func (g *Generator) Generate(bars []types.Bar) ([]types.Signal, error) {
	if len(bars) < g.config.LongWindow {
		return nil, errors.Wrap(errors.ErrCodeInsufficientData, "not enough data to generate signals",
			errors.NewInsufficientDataErrorf(g.config.LongWindow, len(bars),
				"need at least %d bars, got %d", g.config.LongWindow, len(bars)))
	}

	// prefix[i] is the sum of the first i closes
	prefix := make([]float64, len(bars)+1)
	for i, bar := range bars {
		prefix[i+1] = prefix[i] + bar.Close
	}

	sma := func(period int, index int) float64 {
		return (prefix[index+1] - prefix[index+1-period]) / float64(period)
	}

	signals := make([]types.Signal, 0)
	last := types.SignalTypeHold

	for i := g.config.LongWindow; i < len(bars); i++ {
		short := sma(g.config.ShortWindow, i)
		long := sma(g.config.LongWindow, i)

		signal := types.SignalTypeHold
		if short > long && last != types.SignalTypeBuy {
			signal = types.SignalTypeBuy
		} else if short < long && last != types.SignalTypeSell {
			signal = types.SignalTypeSell
		}

		if signal == types.SignalTypeHold {
			continue
		}

		signals = append(signals, types.Signal{
			Date:       bars[i].Date,
			Type:       signal,
			Confidence: g.config.Confidence,
			Reason:     fmt.Sprintf("SMA Crossover at %s", strconv.FormatFloat(bars[i].Close, 'f', -1, 64)),
		})
		last = signal
	}

	return signals, nil
}
