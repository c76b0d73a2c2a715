package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seqtools/varval/internal/partition"
	"github.com/seqtools/varval/internal/truth"
)

func newPartitionCmd() *cobra.Command {
	var (
		truthPath   string
		callsPath   string
		tpOut       string
		fpOut       string
		residualOut string
		explain     []string
	)

	cmd := &cobra.Command{
		Use:   "partition",
		Short: "Split a call set into validated true-positive and false-positive subsets",
		Long: `Build a coordinate index from a validated-call file (last tab-separated
token "0" marks a false positive) and stream the full call set once,
routing each record to the subset whose truth coordinates contain it.
Truth coordinates left unmatched afterward are candidate false negatives;
additional call files given with --explain are scanned for them in order.`,
		Example: `  varval partition --truth validated.vcf --calls full.vcf \
      --tp-out tps.vcf --fp-out fps.vcf
  varval partition --truth validated.vcf --calls full.vcf \
      --tp-out tps.vcf --fp-out fps.vcf --explain nohap.vcf --explain filtered.vcf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPartition(truthPath, callsPath, tpOut, fpOut, residualOut, explain)
		},
	}

	cmd.Flags().StringVar(&truthPath, "truth", "", "Validated-call file (required)")
	cmd.Flags().StringVar(&callsPath, "calls", "", "Full call-set file (required)")
	cmd.Flags().StringVar(&tpOut, "tp-out", "tps.vcf", "True-positive output file")
	cmd.Flags().StringVar(&fpOut, "fp-out", "fps.vcf", "False-positive output file")
	cmd.Flags().StringVar(&residualOut, "residual-out", "", "Write residual (unmatched) truth coordinates to this file")
	cmd.Flags().StringArrayVar(&explain, "explain", nil, "Additional call file to scan for residual true-positive coordinates (repeatable)")
	cmd.MarkFlagRequired("truth")
	cmd.MarkFlagRequired("calls")

	return cmd
}

func runPartition(truthPath, callsPath, tpOut, fpOut, residualOut string, explain []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ix, err := truth.Load(truthPath)
	if err != nil {
		return err
	}
	logger.Info("truth index built",
		zap.Int("tp", ix.Len(truth.TruePositive)),
		zap.Int("fp", ix.Len(truth.FalsePositive)),
		zap.Int("conflicts", ix.Conflicts()))
	if ix.Conflicts() > 0 {
		logger.Warn("coordinates validated under both labels were dropped",
			zap.Int("conflicts", ix.Conflicts()))
	}

	calls, err := os.Open(callsPath)
	if err != nil {
		return fmt.Errorf("open call set: %w", err)
	}
	defer calls.Close()

	tpFile, err := os.Create(tpOut)
	if err != nil {
		return fmt.Errorf("create tp output: %w", err)
	}
	defer tpFile.Close()
	fpFile, err := os.Create(fpOut)
	if err != nil {
		return fmt.Errorf("create fp output: %w", err)
	}
	defer fpFile.Close()

	p := partition.New()
	p.SetLogger(logger)

	residual, stats, err := p.Partition(calls, ix, partition.Outputs{
		truth.TruePositive:  tpFile,
		truth.FalsePositive: fpFile,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Matched %d tp, %d fp of %d records; %d dropped; %d/%d truth coordinates unmatched\n",
		stats.Matched[truth.TruePositive], stats.Matched[truth.FalsePositive],
		stats.Records, stats.Dropped,
		residual.Len(truth.TruePositive), residual.Len(truth.FalsePositive))

	if residualOut != "" {
		if err := writeResiduals(residual, residualOut); err != nil {
			return err
		}
	}

	if len(explain) > 0 {
		if err := explainResiduals(p, residual, explain, logger); err != nil {
			return err
		}
	}

	return nil
}

// explainResiduals scans each extra call file for the residual true-positive
// coordinates, consuming matches, and reports what no file explained.
func explainResiduals(p *partition.Partitioner, residual *truth.Index, paths []string, logger *zap.Logger) error {
	coords := make(truth.KeySet)
	for _, key := range residual.Keys(truth.TruePositive) {
		coords[key] = struct{}{}
	}

	for _, path := range paths {
		in, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open explain file: %w", err)
		}
		outPath := explainedPath(path)
		out, err := os.Create(outPath)
		if err != nil {
			in.Close()
			return fmt.Errorf("create explain output: %w", err)
		}

		coords, err = p.ExplainResiduals(coords, in, out)
		in.Close()
		out.Close()
		if err != nil {
			return err
		}
		logger.Info("explanation file scanned",
			zap.String("file", path),
			zap.String("matched_out", outPath),
			zap.Int("remaining", len(coords)))
	}

	if len(coords) > 0 {
		keys := make([]string, 0, len(coords))
		for key := range coords {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		fmt.Fprintf(os.Stderr, "No explanation for %d coordinates: %s\n",
			len(coords), strings.Join(keys, ", "))
	}
	return nil
}

// explainedPath derives the matched-record output name for an explain file:
// calls.vcf -> calls-explained.vcf.
func explainedPath(path string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		return path[:i] + "-explained" + path[i:]
	}
	return path + "-explained"
}

// writeResiduals writes the unmatched truth coordinates, one per line.
func writeResiduals(residual *truth.Index, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create residual output: %w", err)
	}
	defer f.Close()
	return writeResidualLines(residual, f)
}

func writeResidualLines(residual *truth.Index, w io.Writer) error {
	for _, label := range truth.Labels {
		keys := residual.Keys(label)
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Chrom != keys[j].Chrom {
				return keys[i].Chrom < keys[j].Chrom
			}
			return keys[i].Pos < keys[j].Pos
		})
		for _, key := range keys {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", key.Chrom, key.Pos, label); err != nil {
				return fmt.Errorf("write residual: %w", err)
			}
		}
	}
	return nil
}
