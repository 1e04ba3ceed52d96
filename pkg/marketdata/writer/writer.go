package writer

import (
	"github.com/rxtech-lab/gold-data/internal/types"
)

// MarketDataWriter defines the interface for writing daily bars to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single bar.
	Write(bar types.Bar) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// WriteAll initializes w, writes every bar, finalizes and closes it.
func WriteAll(w MarketDataWriter, bars []types.Bar) (outputPath string, err error) {
	if err = w.Initialize(); err != nil {
		return "", err
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, bar := range bars {
		if err = w.Write(bar); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}
