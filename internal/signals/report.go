package signals

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/gold-data/internal/types"
	"github.com/rxtech-lab/gold-data/internal/version"
)

// Report is the persisted result of a signal run.
type Report struct {
	// Version is the build that wrote the report.
	Version     string         `yaml:"version"`
	GeneratedAt time.Time      `yaml:"generated_at"`
	Source      string         `yaml:"source"`
	Bars        int            `yaml:"bars"`
	Config      Config         `yaml:"config"`
	Count       int            `yaml:"count"`
	Signals     []types.Signal `yaml:"signals"`
}

// NewReport builds a Report for signals generated from source.
func NewReport(source string, bars int, config Config, signals []types.Signal, generatedAt time.Time) Report {
	return Report{
		Version:     version.GetVersion(),
		GeneratedAt: generatedAt.UTC(),
		Source:      source,
		Bars:        bars,
		Config:      config,
		Count:       len(signals),
		Signals:     signals,
	}
}

// Encode writes the report as YAML.
func (r Report) Encode(w io.Writer) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal signal report: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write signal report: %w", err)
	}

	return nil
}

// WriteFile writes the report as YAML to path.
func (r Report) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	return r.Encode(file)
}

// ReadReport reads a report written by WriteFile. Reports from an incompatible
// version are rejected.
func ReadReport(path string) (Report, error) {
	var report Report

	content, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("failed to read report file: %w", err)
	}

	if err := yaml.Unmarshal(content, &report); err != nil {
		return report, fmt.Errorf("failed to parse report file: %w", err)
	}

	if err := version.CheckFileCompatibility(version.GetVersion(), report.Version); err != nil {
		return report, fmt.Errorf("cannot read report %s: %w", path, err)
	}

	return report, nil
}
