package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/seqtools/varval/internal/features"
	"github.com/seqtools/varval/internal/vcf"
)

func newFeaturesCmd() *cobra.Command {
	var (
		tpPath          string
		fpPath          string
		outPath         string
		metricList      string
		infoMetricList  string
		scale           bool
		fillMissing     bool
		skipUnsupported bool
		duckdbPath      string
		duckdbTable     string
	)

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Build a labeled feature table from partitioned record streams",
		Long: `Derive per-record quality metrics from the true-positive and
false-positive record streams and assemble them into one labeled table,
one row per record in stream order, with target +1 for true positives and
-1 for false positives. Missing FORMAT fields become missing cells, never
dropped rows.

Format-derived metrics: AD (allele-depth deviation), PL (normalized phred
likelihood), DP (read depth), QUAL (record quality), QR_QA (strand bias),
ADP (percent allele-depth deviation). Any other metric name is read from
the INFO column as a numeric passthrough.`,
		Example: `  varval features --tp tps.vcf --fp fps.vcf -o table.tsv
  varval features --tp tps.vcf --fp fps.vcf --metrics AD,PL,QUAL,DP --info-metrics FS,MQ
  varval features --tp tps.vcf --fp fps.vcf --duckdb features.db --scale`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatures(featureOpts{
				tpPath:          tpPath,
				fpPath:          fpPath,
				outPath:         outPath,
				metrics:         splitList(metricList),
				infoMetrics:     splitList(infoMetricList),
				scale:           scale,
				fillMissing:     fillMissing,
				skipUnsupported: skipUnsupported,
				duckdbPath:      duckdbPath,
				duckdbTable:     duckdbTable,
			})
		},
	}

	cmd.Flags().StringVar(&tpPath, "tp", "", "True-positive record stream (required)")
	cmd.Flags().StringVar(&fpPath, "fp", "", "False-positive record stream (required)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Tab-delimited output file (default: stdout)")
	cmd.Flags().StringVar(&metricList, "metrics", "AD,PL,DP,QUAL", "Comma-separated format metrics")
	cmd.Flags().StringVar(&infoMetricList, "info-metrics", "", "Comma-separated INFO passthrough metrics")
	cmd.Flags().BoolVar(&scale, "scale", false, "Min-max scale each metric column over the full table")
	cmd.Flags().BoolVar(&fillMissing, "fill-missing", false, "Fill missing cells with the column mean")
	cmd.Flags().BoolVar(&skipUnsupported, "skip-unsupported", false, "Skip records with unsupported genotypes instead of failing")
	cmd.Flags().StringVar(&duckdbPath, "duckdb", "", "Also export the table to this DuckDB database file")
	cmd.Flags().StringVar(&duckdbTable, "duckdb-table", "features", "DuckDB table name for --duckdb")
	cmd.MarkFlagRequired("tp")
	cmd.MarkFlagRequired("fp")

	viper.BindPFlag("features.metrics", cmd.Flags().Lookup("metrics"))
	viper.BindPFlag("features.duckdb_table", cmd.Flags().Lookup("duckdb-table"))

	return cmd
}

type featureOpts struct {
	tpPath, fpPath  string
	outPath         string
	metrics         []string
	infoMetrics     []string
	scale           bool
	fillMissing     bool
	skipUnsupported bool
	duckdbPath      string
	duckdbTable     string
}

func runFeatures(opts featureOpts) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	columns := append(append([]string{}, opts.metrics...), opts.infoMetrics...)
	if len(columns) == 0 {
		return fmt.Errorf("no metrics configured")
	}

	b := features.NewBuilder(columns)
	b.SetLogger(logger)
	b.SetSkipUnsupported(opts.skipUnsupported)

	for _, in := range []struct {
		path   string
		target int
	}{
		{opts.tpPath, features.TargetTruePositive},
		{opts.fpPath, features.TargetFalsePositive},
	} {
		parser, err := vcf.NewParser(in.path)
		if err != nil {
			return err
		}
		err = b.AddAll(parser, in.target)
		parser.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", in.path, err)
		}
	}

	table := b.Table()
	if opts.fillMissing {
		table.FillMissing()
	}
	if opts.scale {
		table.MinMaxScale()
	}

	out := os.Stdout
	if opts.outPath != "" {
		out, err = os.Create(opts.outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()
	}

	tw := features.NewTabWriter(out)
	if err := tw.WriteTable(table); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}

	if opts.duckdbPath != "" {
		if err := features.ExportDuckDB(table, opts.duckdbPath, opts.duckdbTable); err != nil {
			return err
		}
		logger.Info("feature table exported",
			zap.String("duckdb", opts.duckdbPath),
			zap.String("table", opts.duckdbTable))
	}

	fmt.Fprintf(os.Stderr, "Wrote %d feature rows (%d skipped)\n", table.Len(), b.Skipped())
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
