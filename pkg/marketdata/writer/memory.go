package writer

import (
	"github.com/rxtech-lab/gold-data/internal/types"
)

// MemoryWriter keeps written bars in memory. Bars stay readable after Close.
type MemoryWriter struct {
	bars []types.Bar
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{bars: nil}
}

// Initialize drops any bars from a previous download.
func (w *MemoryWriter) Initialize() error {
	w.bars = w.bars[:0]

	return nil
}

func (w *MemoryWriter) Write(bar types.Bar) error {
	w.bars = append(w.bars, bar)

	return nil
}

func (w *MemoryWriter) Finalize() (string, error) {
	return "", nil
}

func (w *MemoryWriter) Close() error {
	return nil
}

func (w *MemoryWriter) GetOutputPath() string {
	return ""
}

// Bars returns the bars written since the last Initialize, in write order.
func (w *MemoryWriter) Bars() []types.Bar {
	out := make([]types.Bar, len(w.bars))
	copy(out, w.bars)

	return out
}
