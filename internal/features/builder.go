package features

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/seqtools/varval/internal/metrics"
	"github.com/seqtools/varval/internal/vcf"
)

// MetricFunc derives one metric from a variant record. ok=false reports a
// missing value; an error aborts the record (unsupported genotype).
type MetricFunc func(v *vcf.Variant) (float64, bool, error)

// Training labels for table rows.
const (
	TargetTruePositive  = 1
	TargetFalsePositive = -1
)

// Format-derived metric names accepted by NewBuilder. Any other name is
// looked up in the record's INFO column as a numeric passthrough.
const (
	MetricAlleleDepth    = "AD"    // allele-depth deviation
	MetricPhredLik       = "PL"    // normalized phred likelihood
	MetricDepth          = "DP"    // read depth
	MetricQual           = "QUAL"  // record quality score
	MetricStrandBias     = "QR_QA" // strand-bias quality asymmetry
	MetricPctADDeviation = "ADP"   // percent allele-depth deviation
)

// Builder accumulates one labeled feature row per variant record.
type Builder struct {
	table           *Table
	funcs           []MetricFunc
	skipUnsupported bool
	skipped         int
	logger          *zap.Logger
}

// NewBuilder creates a builder producing the given metric columns, in order.
func NewBuilder(metricNames []string) *Builder {
	funcs := make([]MetricFunc, len(metricNames))
	for i, name := range metricNames {
		funcs[i] = lookupMetric(name)
	}
	return &Builder{
		table:  NewTable(metricNames),
		funcs:  funcs,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger used for skip warnings and summaries.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// SetSkipUnsupported switches unsupported-genotype handling from fail-fast
// to skip-and-log. Skipped records produce no row and are counted.
func (b *Builder) SetSkipUnsupported(skip bool) {
	b.skipUnsupported = skip
}

// Add derives all configured metrics for one record and appends its row.
// Every missing field becomes a missing cell; the row is appended even when
// all cells are missing.
func (b *Builder) Add(v *vcf.Variant, target int) error {
	cells := make([]Cell, len(b.funcs))
	for i, fn := range b.funcs {
		val, ok, err := fn(v)
		if err != nil {
			var ugerr *metrics.UnsupportedGenotypeError
			if b.skipUnsupported && errors.As(err, &ugerr) {
				b.skipped++
				b.logger.Warn("skipping record with unsupported genotype",
					zap.String("chrom", v.Chrom),
					zap.Int64("pos", v.Pos),
					zap.String("genotype", ugerr.Genotype))
				return nil
			}
			return fmt.Errorf("metric %s at %s:%d: %w", b.table.Columns[i], v.Chrom, v.Pos, err)
		}
		cells[i] = Cell{Value: val, Missing: !ok}
	}
	b.table.Append(cells, target, v.IsIndel())
	return nil
}

// AddAll consumes an entire record stream under one target label.
func (b *Builder) AddAll(parser vcf.VariantParser, target int) error {
	count := 0
	for {
		v, err := parser.Next()
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		if v == nil {
			break
		}
		if err := b.Add(v, target); err != nil {
			return err
		}
		count++
	}
	b.logger.Info("feature rows added",
		zap.Int("records", count),
		zap.Int("target", target))
	return nil
}

// Table returns the accumulated table. Rows keep their source order.
func (b *Builder) Table() *Table {
	return b.table
}

// Skipped returns the number of records dropped for unsupported genotypes.
// Always 0 unless SetSkipUnsupported(true) was called.
func (b *Builder) Skipped() int {
	return b.skipped
}

func lookupMetric(name string) MetricFunc {
	switch name {
	case MetricAlleleDepth:
		return func(v *vcf.Variant) (float64, bool, error) {
			return metrics.AlleleDepthDeviation(v.FirstSample())
		}
	case MetricPhredLik:
		return func(v *vcf.Variant) (float64, bool, error) {
			return metrics.NormalizedPL(v.FirstSample())
		}
	case MetricDepth:
		return func(v *vcf.Variant) (float64, bool, error) {
			val, ok := metrics.ReadDepth(v.FirstSample())
			return val, ok, nil
		}
	case MetricQual:
		return func(v *vcf.Variant) (float64, bool, error) {
			return v.Qual, v.HasQual, nil
		}
	case MetricStrandBias:
		return func(v *vcf.Variant) (float64, bool, error) {
			val, ok := metrics.StrandBias(v.FirstSample())
			return val, ok, nil
		}
	case MetricPctADDeviation:
		return func(v *vcf.Variant) (float64, bool, error) {
			return metrics.PercentADDeviation(v.FirstSample())
		}
	}
	return infoMetric(name)
}

// infoMetric passes a numeric INFO value through as a metric column.
// Non-numeric or absent values are missing.
func infoMetric(name string) MetricFunc {
	return func(v *vcf.Variant) (float64, bool, error) {
		raw, ok := v.Info[name]
		if !ok {
			return 0, false, nil
		}
		s, ok := raw.(string)
		if !ok {
			return 0, false, nil
		}
		val, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, nil
		}
		return val, true, nil
	}
}
