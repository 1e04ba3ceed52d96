package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/gold-data/internal/types"
)

// CSVWriter buffers bars and writes them as a CSV file with a
// Date,Open,High,Low,Close,Volume header when finalized.
type CSVWriter struct {
	outputPath string
	bars       []types.Bar
	open       bool
}

// NewCSVWriter creates a CSVWriter targeting outputPath.
func NewCSVWriter(outputPath string) MarketDataWriter {
	return &CSVWriter{
		outputPath: outputPath,
		bars:       nil,
		open:       false,
	}
}

func (w *CSVWriter) Initialize() error {
	dir := filepath.Dir(w.outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	w.bars = nil
	w.open = true

	return nil
}

func (w *CSVWriter) Write(bar types.Bar) error {
	if !w.open {
		return fmt.Errorf("writer not initialized")
	}

	w.bars = append(w.bars, bar)

	return nil
}

// Finalize writes the buffered bars to the output file, replacing any existing file.
func (w *CSVWriter) Finalize() (string, error) {
	if !w.open {
		return "", fmt.Errorf("writer not initialized")
	}

	file, err := os.Create(w.outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", w.outputPath, err)
	}
	defer file.Close()

	if len(w.bars) == 0 {
		// Keep the header row even when nothing was downloaded.
		if _, err := fmt.Fprintln(file, "Date,Open,High,Low,Close,Volume"); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}

		return w.outputPath, nil
	}

	if err := gocsv.MarshalFile(&w.bars, file); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}

	return w.outputPath, nil
}

func (w *CSVWriter) Close() error {
	w.open = false
	w.bars = nil

	return nil
}

func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}
