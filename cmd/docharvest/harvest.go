// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docharvest/internal/harvest"
	"github.com/pdiddy/docharvest/internal/ledger"
	"github.com/pdiddy/docharvest/internal/metrics"
	"github.com/pdiddy/docharvest/internal/report"
	"github.com/pdiddy/docharvest/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest [urls...]",
	Short: "Download, validate, repair and highlight a batch of PDFs",
	Long: `Harvest downloads every URL concurrently, validates each PDF, attempts
one repair on damaged files, and highlights every occurrence of the --term
values. Documents with highlights are written with a "highlighted_" prefix
next to the unmodified file.

URLs and terms can also come from a YAML manifest:

  terms: [budget, deficit]
  documents:
    - https://example.com/kst-1.pdf

The command exits non-zero if any document failed.`,
	RunE: runHarvest,
}

func init() {
	f := harvestCmd.Flags()
	f.StringSlice("term", nil, "term to highlight (repeatable)")
	f.String("manifest", "", "YAML file listing terms and documents")
	f.String("report", "", "write a YAML report of the batch to this file")
	f.String("metrics-file", "", "write Prometheus metrics in textfile format")

	f.String("output-dir", types.DefaultOutputDir, "directory for downloaded and highlighted files")
	f.String("temp-dir", "", "directory for repair staging files (default: system temp)")
	f.Int("workers", types.DefaultWorkers, "documents processed at once")
	f.Int("fetch-concurrency", 0, "maximum simultaneous downloads (0: one per URL)")
	f.Duration("timeout", types.DefaultTimeout, "per-request HTTP timeout")
	f.String("user-agent", types.DefaultUserAgent, "User-Agent header")
	f.Int64("max-body-bytes", types.DefaultMaxBodyBytes, "largest accepted download")
	f.String("prefix", types.DefaultHighlightPrefix, "file name prefix of highlighted copies")
	f.String("color", "#ffff00", "highlight colour")
	f.Float64("opacity", types.DefaultOpacity, "highlight opacity in (0,1]")

	for key, flag := range map[string]string{
		"harvest.output_dir":        "output-dir",
		"harvest.temp_dir":          "temp-dir",
		"harvest.workers":           "workers",
		"harvest.fetch_concurrency": "fetch-concurrency",
		"harvest.timeout":           "timeout",
		"harvest.user_agent":        "user-agent",
		"harvest.max_body_bytes":    "max-body-bytes",
		"harvest.annotate.prefix":   "prefix",
		"harvest.annotate.color":    "color",
		"harvest.annotate.opacity":  "opacity",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	terms, _ := cmd.Flags().GetStringSlice("term")
	manifestPath, _ := cmd.Flags().GetString("manifest")

	var manifest *report.Manifest
	if manifestPath != "" {
		m, err := report.ReadManifest(manifestPath)
		if err != nil {
			return err
		}
		manifest = m
	}
	urls, terms := manifest.Merge(args, terms)
	if len(urls) == 0 {
		return fmt.Errorf("provide one or more PDF URLs, as arguments or with --manifest")
	}
	spec := types.NewHighlightSpec(terms)
	if spec.Empty() {
		logger.Warn().Msg("no terms given; documents will be downloaded and validated only")
	}

	cfg, err := harvestConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}

	var opts []harvest.Option
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	var m *metrics.Metrics
	if metricsFile != "" {
		m = metrics.New()
		opts = append(opts, harvest.WithMetrics(m))
	}

	logger.Info().
		Int("documents", len(urls)).
		Strs("terms", spec.Terms).
		Str("output_dir", cfg.OutputDir).
		Int("workers", cfg.Workers).
		Msg("starting batch")

	started := time.Now()
	res := harvest.NewDefault(nil, cfg, opts...).Run(cmd.Context(), urls, spec)
	finished := time.Now()

	out := cmd.OutOrStdout()
	for _, o := range res.Outcomes {
		logOutcome(o)
		report.WriteOutcome(out, o)
	}
	report.WriteSummary(out, res)

	info := report.RunInfo{StartedAt: started, FinishedAt: finished, Terms: spec.Terms}
	if lc := ledgerConfig(viper.GetViper()); lc.Path != "" {
		id, err := recordRun(cmd, lc, started, finished, spec, res)
		if err != nil {
			return err
		}
		info.ID = id
		logger.Info().Str("run", id).Str("ledger", lc.Path).Msg("recorded run")
	}

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := report.NewFile(info, res).Write(path); err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("wrote report")
	}

	if m != nil {
		if err := m.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	if res.HasFailures() {
		return fmt.Errorf("%d document(s) failed", res.Failed())
	}
	return nil
}

func recordRun(cmd *cobra.Command, lc types.LedgerConfig, started, finished time.Time, spec types.HighlightSpec, res harvest.BatchResult) (string, error) {
	store, err := ledger.Open(lc)
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.RecordRun(cmd.Context(), started, finished, spec, res.Outcomes)
}

func logOutcome(o types.Outcome) {
	var ev *zerolog.Event
	if o.Succeeded() {
		ev = logger.Debug()
	} else {
		ev = logger.Warn().Str("kind", string(o.Kind)).Str("reason", o.Reason)
	}
	ev = ev.Str("url", o.Ref.SourceURL).Str("state", string(o.State)).Bool("repaired", o.Repaired)
	if o.Report != nil {
		ev = ev.Int("highlights", o.Report.Highlights).Int("item_failures", len(o.Report.ItemFailures))
	}
	ev.Msg("document finished")
}
