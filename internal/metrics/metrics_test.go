package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqtools/varval/internal/vcf"
)

func TestParseGenotype(t *testing.T) {
	tests := []struct {
		gt      string
		want    Zygosity
		present bool
	}{
		{"0", HomRef, true},
		{"0/0", HomRef, true},
		{"0|0", HomRef, true},
		{"1", HomAlt, true},
		{"1/1", HomAlt, true},
		{"0/1", Het, true},
		{"1/0", Het, true},
		{"0|1", Het, true},
		{"", 0, false},
		{".", 0, false},
		{"./.", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.gt, func(t *testing.T) {
			zyg, ok, err := ParseGenotype(tt.gt)
			require.NoError(t, err)
			assert.Equal(t, tt.present, ok)
			if tt.present {
				assert.Equal(t, tt.want, zyg)
			}
		})
	}
}

func TestParseGenotype_Unsupported(t *testing.T) {
	for _, gt := range []string{"2/2", "0/2", "1/2", "x"} {
		_, _, err := ParseGenotype(gt)
		var ugerr *UnsupportedGenotypeError
		require.ErrorAs(t, err, &ugerr, "genotype %q", gt)
		assert.Equal(t, gt, ugerr.Genotype)
	}
}

func TestAlleleDepthDeviation(t *testing.T) {
	tests := []struct {
		name string
		gt   string
		ad   []int
		want float64
	}{
		{"hom-ref 8,2 is 1.0 - 8/10", "0/0", []int{8, 2}, 0.2},
		{"hom-ref haploid", "0", []int{8, 2}, 0.2},
		{"het balanced is 0.5 - 5/10", "0/1", []int{5, 5}, 0.0},
		{"het skewed", "0/1", []int{8, 2}, -0.3},
		{"hom-alt swaps the pair", "1/1", []int{2, 8}, 0.2},
		{"hom-alt haploid", "1", []int{0, 10}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &vcf.Sample{GT: tt.gt, AD: tt.ad}
			got, ok, err := AlleleDepthDeviation(s)
			require.NoError(t, err)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAlleleDepthDeviation_Missing(t *testing.T) {
	cases := []*vcf.Sample{
		nil,
		{GT: "0/1"},                  // no AD
		{GT: "0/1", AD: []int{5}},    // AD too short
		{AD: []int{5, 5}},            // no GT
		{GT: "0/1", AD: []int{0, 0}}, // zero total depth
	}
	for i, s := range cases {
		_, ok, err := AlleleDepthDeviation(s)
		require.NoError(t, err, "case %d", i)
		assert.False(t, ok, "case %d should be missing", i)
	}
}

func TestAlleleDepthDeviation_UnsupportedGenotype(t *testing.T) {
	s := &vcf.Sample{GT: "2/2", AD: []int{5, 5}}
	_, _, err := AlleleDepthDeviation(s)
	var ugerr *UnsupportedGenotypeError
	require.True(t, errors.As(err, &ugerr))
}

func TestNormalizedPL(t *testing.T) {
	tests := []struct {
		name string
		gt   string
		pl   []int
		want float64
	}{
		{"hom-ref takes last", "0", []int{0, 30, 60}, 6.0},
		{"hom-ref diploid", "0/0", []int{0, 30, 60}, 6.0},
		{"hom-alt takes first", "1/1", []int{50, 20, 0}, 5.0},
		{"het takes min positive", "0/1", []int{30, 0, 60}, 3.0},
		{"het skips zero entries", "0/1", []int{0, 0, 45}, 4.5},
		{"het all zero", "0/1", []int{0, 0, 0}, 0.0},
		{"multi-allelic hom-ref", "0/0", []int{0, 10, 20, 30, 40, 90}, 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &vcf.Sample{GT: tt.gt, PL: tt.pl}
			got, ok, err := NormalizedPL(s)
			require.NoError(t, err)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalizedPL_Missing(t *testing.T) {
	_, ok, err := NormalizedPL(&vcf.Sample{GT: "0/1"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = NormalizedPL(&vcf.Sample{PL: []int{0, 30, 60}})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadDepth(t *testing.T) {
	got, ok := ReadDepth(&vcf.Sample{DP: 17, HasDP: true})
	assert.True(t, ok)
	assert.Equal(t, 17.0, got)

	_, ok = ReadDepth(&vcf.Sample{})
	assert.False(t, ok)

	_, ok = ReadDepth(nil)
	assert.False(t, ok)
}

func TestStrandBias(t *testing.T) {
	// DP=20, AO=5 -> refCount=15; QR=600/15=40 per base, QA=100/5=20.
	s := &vcf.Sample{DP: 20, HasDP: true, AO: []int{5}, QR: []int{600}, QA: []int{100}}
	got, ok := StrandBias(s)
	require.True(t, ok)
	assert.InDelta(t, 50.0, got, 1e-9) // (40-20)/40*100

	// Multi-allelic fields are summed, not divided.
	s = &vcf.Sample{DP: 10, HasDP: true, AO: []int{3, 2}, QR: []int{10, 20}, QA: []int{40, 50}}
	got, ok = StrandBias(s)
	require.True(t, ok)
	assert.InDelta(t, -66.6666666667, got, 1e-6) // (30-90)/90*100

	// Zero reference count: ref quality guards to 0.
	s = &vcf.Sample{DP: 5, HasDP: true, AO: []int{5}, QR: []int{100}, QA: []int{100}}
	got, ok = StrandBias(s)
	require.True(t, ok)
	assert.InDelta(t, -100.0, got, 1e-9)

	// Both qualities zero: explicit 0, not NaN.
	s = &vcf.Sample{DP: 10, HasDP: true, AO: []int{5}, QR: []int{0}, QA: []int{0}}
	got, ok = StrandBias(s)
	require.True(t, ok)
	assert.Equal(t, 0.0, got)
}

func TestStrandBias_Missing(t *testing.T) {
	cases := []*vcf.Sample{
		nil,
		{DP: 20, HasDP: true, QR: []int{10}, QA: []int{10}}, // no AO
		{DP: 20, HasDP: true, AO: []int{5}, QA: []int{10}},  // no QR
		{DP: 20, HasDP: true, AO: []int{5}, QR: []int{10}},  // no QA
		{AO: []int{5}, QR: []int{10}, QA: []int{10}},        // no DP
	}
	for i, s := range cases {
		_, ok := StrandBias(s)
		assert.False(t, ok, "case %d should be missing", i)
	}
}

func TestPercentADDeviation(t *testing.T) {
	// Het with a balanced alt fraction deviates by zero.
	s := &vcf.Sample{GT: "0/1", DP: 10, HasDP: true, AO: []int{5}}
	got, ok, err := PercentADDeviation(s)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.0, got, 1e-9)

	// Hom-alt expects the full fraction.
	s = &vcf.Sample{GT: "1/1", DP: 10, HasDP: true, AO: []int{8}}
	got, ok, err = PercentADDeviation(s)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 0.2, got, 1e-9)

	// Deviation is absolute.
	s = &vcf.Sample{GT: "0/1", DP: 10, HasDP: true, AO: []int{8}}
	got, _, err = PercentADDeviation(s)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got, 1e-9)

	// Multi-allelic counts are summed.
	s = &vcf.Sample{GT: "1/1", DP: 10, HasDP: true, AO: []int{4, 4}}
	got, _, err = PercentADDeviation(s)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, got, 1e-9)
}

func TestPercentADDeviation_Missing(t *testing.T) {
	_, ok, err := PercentADDeviation(&vcf.Sample{GT: "0/1", AO: []int{5}})
	require.NoError(t, err)
	assert.False(t, ok, "missing DP")

	_, ok, err = PercentADDeviation(&vcf.Sample{GT: "0/1", DP: 0, HasDP: true, AO: []int{0}})
	require.NoError(t, err)
	assert.False(t, ok, "zero total count")
}

func TestMetricDeterminism(t *testing.T) {
	s := &vcf.Sample{GT: "0/1", AD: []int{7, 3}, PL: []int{20, 0, 40},
		DP: 10, HasDP: true, AO: []int{3}, QR: []int{140}, QA: []int{60}}

	first, _, err := AlleleDepthDeviation(s)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, _, err := AlleleDepthDeviation(s)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	sb1, _ := StrandBias(s)
	sb2, _ := StrandBias(s)
	assert.Equal(t, sb1, sb2)
}
