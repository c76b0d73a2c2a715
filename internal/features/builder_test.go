package features

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqtools/varval/internal/vcf"
)

const vcfHeader = "##fileformat=VCFv4.1\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA12878\n"

func parserFor(t *testing.T, body string) *vcf.Parser {
	t.Helper()
	p, err := vcf.NewParserFromReader(strings.NewReader(vcfHeader + body))
	require.NoError(t, err)
	return p
}

func TestBuilder_OneRowPerRecord(t *testing.T) {
	body := "chr1\t100\t.\tG\tT\t60\tPASS\t.\tGT:AD:DP:PL\t0/0:8,2:10:0,30,60\n" +
		"chr1\t200\t.\tC\tCA\t50\tPASS\t.\tGT:AD:DP:PL\t0/1:5,5:10:45,0,60\n" +
		"chr1\t300\t.\tA\tG\t40\tPASS\t.\tGT\t0/1\n"

	b := NewBuilder([]string{MetricAlleleDepth, MetricPhredLik, MetricDepth, MetricQual})
	require.NoError(t, b.AddAll(parserFor(t, body), TargetTruePositive))

	table := b.Table()
	require.Equal(t, 3, table.Len())

	// Rows keep stream order and their fixed target.
	for _, row := range table.Rows {
		assert.Equal(t, TargetTruePositive, row.Target)
	}

	// First record: hom-ref AD (8,2) deviates by 0.2, PL takes the last
	// entry, depth and qual pass through.
	first := table.Rows[0]
	assert.InDelta(t, 0.2, first.Cells[0].Value, 1e-9)
	assert.InDelta(t, 6.0, first.Cells[1].Value, 1e-9)
	assert.InDelta(t, 10.0, first.Cells[2].Value, 1e-9)
	assert.InDelta(t, 60.0, first.Cells[3].Value, 1e-9)
	assert.False(t, first.Indel)

	// Second record: balanced het deviates by zero and is an indel.
	second := table.Rows[1]
	assert.InDelta(t, 0.0, second.Cells[0].Value, 1e-9)
	assert.False(t, second.Cells[0].Missing)
	assert.True(t, second.Indel)
}

func TestBuilder_MissingFieldsStayPerMetric(t *testing.T) {
	// No AD or PL: those cells go missing, depth and qual stay valid.
	body := "chr1\t100\t.\tG\tT\t33\tPASS\t.\tGT:DP\t0/1:14\n"

	b := NewBuilder([]string{MetricAlleleDepth, MetricPhredLik, MetricDepth, MetricQual})
	require.NoError(t, b.AddAll(parserFor(t, body), TargetFalsePositive))

	table := b.Table()
	require.Equal(t, 1, table.Len())
	row := table.Rows[0]

	assert.True(t, row.Cells[0].Missing, "AD deviation should be missing")
	assert.True(t, row.Cells[1].Missing, "PL should be missing")
	assert.False(t, row.Cells[2].Missing, "DP should be present")
	assert.InDelta(t, 14.0, row.Cells[2].Value, 1e-9)
	assert.False(t, row.Cells[3].Missing, "QUAL should be present")
	assert.Equal(t, TargetFalsePositive, row.Target)
}

func TestBuilder_AllMissingStillAppends(t *testing.T) {
	body := "chr1\t100\t.\tG\tT\t.\tPASS\t.\tGT\t0/1\n"

	b := NewBuilder([]string{MetricAlleleDepth, MetricQual})
	require.NoError(t, b.AddAll(parserFor(t, body), TargetTruePositive))

	require.Equal(t, 1, b.Table().Len(), "a record with every metric missing still gets a row")
	for _, cell := range b.Table().Rows[0].Cells {
		assert.True(t, cell.Missing)
	}
}

func TestBuilder_UnsupportedGenotypeFailsFast(t *testing.T) {
	body := "chr1\t100\t.\tG\tT\t60\tPASS\t.\tGT:AD\t2/2:5,5\n"

	b := NewBuilder([]string{MetricAlleleDepth})
	err := b.AddAll(parserFor(t, body), TargetTruePositive)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported genotype")
}

func TestBuilder_SkipUnsupported(t *testing.T) {
	body := "chr1\t100\t.\tG\tT\t60\tPASS\t.\tGT:AD\t2/2:5,5\n" +
		"chr1\t200\t.\tC\tA\t50\tPASS\t.\tGT:AD\t0/1:5,5\n"

	b := NewBuilder([]string{MetricAlleleDepth})
	b.SetSkipUnsupported(true)
	require.NoError(t, b.AddAll(parserFor(t, body), TargetTruePositive))

	assert.Equal(t, 1, b.Table().Len())
	assert.Equal(t, 1, b.Skipped())
}

func TestBuilder_InfoPassthrough(t *testing.T) {
	body := "chr1\t100\t.\tG\tT\t60\tPASS\tFS=1.25;MQ=58\tGT\t0/1\n" +
		"chr1\t200\t.\tC\tA\t50\tPASS\tMQ=60\tGT\t0/1\n"

	b := NewBuilder([]string{"FS", "MQ"})
	require.NoError(t, b.AddAll(parserFor(t, body), TargetTruePositive))

	table := b.Table()
	assert.InDelta(t, 1.25, table.Rows[0].Cells[0].Value, 1e-9)
	assert.InDelta(t, 58.0, table.Rows[0].Cells[1].Value, 1e-9)
	assert.True(t, table.Rows[1].Cells[0].Missing, "absent INFO key is missing")
	assert.False(t, table.Rows[1].Cells[1].Missing)
}

func TestBuilder_StrandBiasMetrics(t *testing.T) {
	body := "chr1\t100\t.\tG\tT\t60\tPASS\t.\tGT:DP:AO:QR:QA\t0/1:20:5:600:100\n"

	b := NewBuilder([]string{MetricStrandBias, MetricPctADDeviation})
	require.NoError(t, b.AddAll(parserFor(t, body), TargetTruePositive))

	row := b.Table().Rows[0]
	assert.InDelta(t, 50.0, row.Cells[0].Value, 1e-9)
	assert.InDelta(t, 0.25, row.Cells[1].Value, 1e-9) // |0.5 - 5/20|
}

func TestBuilder_MixedStreams(t *testing.T) {
	tpBody := "chr1\t100\t.\tG\tT\t60\tPASS\t.\tGT:DP\t0/1:10\n"
	fpBody := "chr1\t900\t.\tT\tC\t5\tPASS\t.\tGT:DP\t0/1:3\n"

	b := NewBuilder([]string{MetricDepth})
	require.NoError(t, b.AddAll(parserFor(t, tpBody), TargetTruePositive))
	require.NoError(t, b.AddAll(parserFor(t, fpBody), TargetFalsePositive))

	table := b.Table()
	require.Equal(t, 2, table.Len())
	assert.Equal(t, TargetTruePositive, table.Rows[0].Target)
	assert.Equal(t, TargetFalsePositive, table.Rows[1].Target)
}
