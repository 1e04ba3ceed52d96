package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/gold-data/internal/signals"
)

const sampleConfigName = "signals-config.yaml"

func (a *app) configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Write the signal config JSON schema and a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory to write the files to",
				Value:   "config",
			},
		},
		Action: a.configAction,
	}
}

// configAction writes the schema, and the sample config unless one already exists.
func (a *app) configAction(_ context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	schemaPath := filepath.Join(dir, signals.SchemaName)
	samplePath := filepath.Join(dir, sampleConfigName)

	schemaJSON, err := signals.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0o644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	a.logger.Info("Schema generated", zap.String("path", schemaPath))
	fmt.Fprintf(a.out, "Schema written to %s\n", schemaPath)

	if _, err := os.Stat(samplePath); err == nil {
		fmt.Fprintf(a.out, "Keeping existing %s\n", samplePath)

		return nil
	}

	sample, err := signals.SampleConfig(signals.SchemaName)
	if err != nil {
		return err
	}

	if err := os.WriteFile(samplePath, sample, 0o644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	fmt.Fprintf(a.out, "Sample config written to %s\n", samplePath)

	return nil
}
