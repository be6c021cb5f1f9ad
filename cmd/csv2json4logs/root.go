package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MadKrok/essais-python/pkg/engine"
	"github.com/MadKrok/essais-python/pkg/logging"
	"github.com/MadKrok/essais-python/pkg/report"
	"github.com/MadKrok/essais-python/pkg/schema"
	"github.com/MadKrok/essais-python/pkg/settings"
	"github.com/MadKrok/essais-python/pkg/sink"
)

// Version is set at build time.
var Version = "0.1.0"

func newRootCmd() *cobra.Command {
	var settingsFile string

	cmd := &cobra.Command{
		Use:   "csv2json4logs",
		Short: "Convert switch-gear maintenance logs to one JSON document per event",
		Long: `csv2json4logs reads a maintenance log exported as CSV, maps its columns
onto the standard maintenance record with a per-deployment field-map document,
converts local timestamps to UTC and enriches each record with the asset's long
name and GPS coordinates from the asset registry.

One JSON file named <id_asset>_<timestamp>.json is written per log row.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := settings.New(cmd.Flags(), settingsFile)
			if err != nil {
				return err
			}
			s, err := settings.Resolve(v)
			if err != nil {
				return err
			}

			level, err := logging.ParseLevel(s.LogLevel)
			if err != nil {
				return err
			}
			log, cleanup, err := logging.Setup(s.LogFile, level)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			summary, err := run(cmd.Context(), s, cmd.OutOrStdout(), log)
			if summary != nil {
				summary.Log(log)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&settingsFile, "settings", "", "settings file (yaml, json or toml) overriding the defaults")
	settings.AddFlags(cmd.Flags())
	return cmd
}

// run performs one conversion: configuration phase, then the batch export.
// The summary is returned even when the batch aborts part-way.
func run(ctx context.Context, s *settings.Settings, stdout io.Writer, log *slog.Logger) (*report.Summary, error) {
	doc, err := schema.LoadFieldMap(s.FieldMapPath)
	if err != nil {
		return nil, err
	}
	fields, err := doc.Compile()
	if err != nil {
		return nil, err
	}

	registry, err := engine.LoadAssetRegistry(s.RegistryPath, s.RegistryDelimiter)
	if err != nil {
		return nil, err
	}
	log.Debug("asset registry loaded",
		"path", s.RegistryPath, "assets", registry.Len(), "duplicates", registry.Stats.Duplicates)

	var out engine.Sink
	if s.Stdout {
		out = sink.NewWriterSink(stdout)
	} else {
		dirSink, err := sink.NewDirSink(s.OutputDir)
		if err != nil {
			return nil, err
		}
		out = dirSink
	}

	exporter, err := engine.NewExporter(fields, registry, engine.ExportOptions{
		Lenient: s.Lenient,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	result, err := exporter.RunFile(ctx, s.LogPath, s.LogDelimiter, out)
	if result == nil {
		return nil, err
	}
	summary := report.BuildSummary(result, registry)
	if err != nil {
		return summary, fmt.Errorf("export aborted: %w", err)
	}
	return summary, nil
}
