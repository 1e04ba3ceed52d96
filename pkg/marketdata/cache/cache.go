// Package cache persists a daily gold series as a local CSV file so that later
// runs only need to fetch the days after the last stored date.
package cache

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/pkg/errors"
)

// Cache stores a series of daily bars.
type Cache interface {
	// Load returns the stored bars sorted by date.
	// A missing store yields an ErrCodeDataNotFound error.
	Load() ([]types.Bar, error)
	// Save replaces the stored bars.
	Save(bars []types.Bar) error
	// Path returns where the bars are stored.
	Path() string
}

// CSVCache is a Cache backed by a CSV file.
//
// Files are read in either layout the tools produce: a Date,Open,High,Low,Close,Volume
// header, or a pandas index layout where the first column holds the date under any
// header name (often empty). Extra columns are ignored.
type CSVCache struct {
	path string
}

// NewCSVCache creates a CSVCache for the file at path. The file need not exist yet.
func NewCSVCache(path string) *CSVCache {
	return &CSVCache{path: path}
}

func (c *CSVCache) Path() string {
	return c.path
}

func (c *CSVCache) Load() ([]types.Bar, error) {
	file, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "cache file %s does not exist", c.path)
		}

		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to open cache file %s", c.path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []types.Bar{}, nil
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to read header of %s", c.path)
	}

	header, err = normalizeHeader(header)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "unexpected header in %s", c.path)
	}

	var bars []types.Bar
	if err := gocsv.UnmarshalCSV(&headerReader{header: header, reader: reader}, &bars); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s", c.path)
	}

	slices.SortStableFunc(bars, func(a, b types.Bar) int {
		return a.Date.Compare(b.Date)
	})

	return bars, nil
}

// Save writes bars to a temporary file next to the cache and renames it into place,
// so a failed write leaves the previous file intact.
func (c *CSVCache) Save(bars []types.Bar) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create temporary cache file", err)
	}

	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := writeBars(tmp, bars); err != nil {
		tmp.Close()

		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write %s", c.path)
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to write %s", c.path)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to replace %s", c.path)
	}

	return nil
}

func writeBars(w io.Writer, bars []types.Bar) error {
	if len(bars) == 0 {
		_, err := fmt.Fprintln(w, strings.Join(types.BarColumns, ","))

		return err
	}

	return gocsv.Marshal(&bars, w)
}

// normalizeHeader names the first column Date and checks the price columns are present.
func normalizeHeader(header []string) ([]string, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header")
	}

	normalized := make([]string, len(header))
	for i, name := range header {
		normalized[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	normalized[0] = types.BarColumns[0]

	for _, column := range types.BarColumns[1:] {
		if !slices.Contains(normalized[1:], column) {
			return nil, fmt.Errorf("missing column %s", column)
		}
	}

	return normalized, nil
}

// headerReader replays a rewritten header before the remaining records of reader.
type headerReader struct {
	header []string
	reader *csv.Reader
	read   bool
}

func (r *headerReader) Read() ([]string, error) {
	if !r.read {
		r.read = true

		return r.header, nil
	}

	return r.reader.Read()
}

func (r *headerReader) ReadAll() ([][]string, error) {
	records, err := r.reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if r.read {
		return records, nil
	}

	r.read = true

	return append([][]string{r.header}, records...), nil
}
