package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seqtools/varval/internal/partition"
	"github.com/seqtools/varval/internal/truth"
)

func newMislabeledCmd() *cobra.Command {
	var (
		truthPath string
		callsPath string
		label     string
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "mislabeled",
		Short: "Flag training-set records contradicted by the validation results",
		Long: `Scan a training-set call file labeled tp or fp by a previous pipeline and
write every record whose coordinate the validation results place under the
opposite label. The truth index is only read, so the same validation file
can back scans of both training subsets.`,
		Example: `  varval mislabeled --truth validated.vcf --calls train-tps.vcf --label tp -o wrong-tps.vcf
  varval mislabeled --truth validated.vcf --calls train-fps.vcf --label fp -o wrong-fps.vcf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMislabeled(truthPath, callsPath, label, outPath)
		},
	}

	cmd.Flags().StringVar(&truthPath, "truth", "", "Validated-call file (required)")
	cmd.Flags().StringVar(&callsPath, "calls", "", "Training-set call file (required)")
	cmd.Flags().StringVar(&label, "label", "", "Nominal label of the training file: tp or fp (required)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file for flagged records (default: stdout)")
	cmd.MarkFlagRequired("truth")
	cmd.MarkFlagRequired("calls")
	cmd.MarkFlagRequired("label")

	return cmd
}

func runMislabeled(truthPath, callsPath, label, outPath string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var nominal truth.Label
	switch label {
	case "tp":
		nominal = truth.TruePositive
	case "fp":
		nominal = truth.FalsePositive
	default:
		return fmt.Errorf("unknown label %q: must be tp or fp", label)
	}

	ix, err := truth.Load(truthPath)
	if err != nil {
		return err
	}

	in, err := os.Open(callsPath)
	if err != nil {
		return fmt.Errorf("open training file: %w", err)
	}
	defer in.Close()

	out := os.Stdout
	if outPath != "" {
		out, err = os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()
	}

	p := partition.New()
	p.SetLogger(logger)

	// Records are mislabeled when the opposite label's truth set claims them.
	flagged, err := p.FlagMislabeled(in, ix, nominal.Opposite(), out)
	if err != nil {
		return err
	}

	logger.Info("mislabeled records flagged",
		zap.String("nominal", label),
		zap.Int("flagged", flagged))
	fmt.Fprintf(os.Stderr, "Flagged %d records labeled %s but validated %s\n",
		flagged, label, nominal.Opposite())
	return nil
}
