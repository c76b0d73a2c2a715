package metrics

import (
	"github.com/seqtools/varval/internal/vcf"
)

// Every function here is pure: identical inputs give identical outputs. The
// (value, ok) return pair distinguishes a computed value from a missing one;
// ok=false means a required FORMAT field was absent or carried no evidence.
// Zero-denominator policy is documented per metric.

// AlleleDepthDeviation measures how far the genotype-supporting allele depth
// deviates from its expected fraction. The genotype picks which depth is the
// supporting one: hom-ref reads (want, other) straight from the AD pair,
// hom-alt swaps them, het uses the pair straight with an expected fraction of
// 0.5 instead of 1.0.
//
// Missing when GT or AD is absent, AD has fewer than two entries, or the
// depth total is zero (no reads means no measurable deviation).
func AlleleDepthDeviation(s *vcf.Sample) (float64, bool, error) {
	if s == nil || len(s.AD) < 2 {
		return 0, false, nil
	}
	zyg, ok, err := ParseGenotype(s.GT)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}

	var want, other, target float64
	switch zyg {
	case HomRef:
		want, other, target = float64(s.AD[0]), float64(s.AD[1]), 1.0
	case HomAlt:
		want, other, target = float64(s.AD[1]), float64(s.AD[0]), 1.0
	case Het:
		want, other, target = float64(s.AD[0]), float64(s.AD[1]), 0.5
	}

	total := want + other
	if total <= 0 {
		return 0, false, nil
	}
	return target - want/total, true, nil
}

// NormalizedPL converts the phred-scaled genotype-likelihood list into a
// single score. The list is ordered [hom-ref, het, hom-alt, ...]; the entry
// contradicting the call is the interesting one: hom-ref takes the last
// entry, hom-alt the first. For heterozygous calls the minimum strictly
// positive entry is used, which avoids selecting the zero entry of the
// called genotype itself. Scores are divided by 10.
//
// Missing when GT or PL is absent; 0 when no entry is strictly positive.
func NormalizedPL(s *vcf.Sample) (float64, bool, error) {
	if s == nil || len(s.PL) == 0 {
		return 0, false, nil
	}
	zyg, ok, err := ParseGenotype(s.GT)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}

	switch zyg {
	case HomRef:
		return float64(s.PL[len(s.PL)-1]) / 10.0, true, nil
	case HomAlt:
		return float64(s.PL[0]) / 10.0, true, nil
	}

	minPos := 0
	for _, pl := range s.PL {
		if pl > 0 && (minPos == 0 || pl < minPos) {
			minPos = pl
		}
	}
	return float64(minPos) / 10.0, true, nil
}

// ReadDepth passes through the DP field. Missing when absent.
func ReadDepth(s *vcf.Sample) (float64, bool) {
	if s == nil || !s.HasDP {
		return 0, false
	}
	return float64(s.DP), true
}

// StrandBias scores the asymmetry of per-base quality support between the
// reference and alternate alleles, a proxy for strand artifacts:
//
//	(refQual - altQual) / max(refQual, altQual) * 100
//
// Alternate count is the sum of the AO entries; reference count is DP minus
// that. Per-base quality is the sum of the quality entries when the field is
// multi-allelic, otherwise the single quality sum divided by its allele
// count; a zero count yields quality 0 rather than dividing by zero. When
// both qualities are zero the score is 0: no quality evidence on either
// side is symmetric, not missing.
//
// Missing when any of AO, QR, QA, or DP is absent.
func StrandBias(s *vcf.Sample) (float64, bool) {
	if s == nil || len(s.AO) == 0 || len(s.QR) == 0 || len(s.QA) == 0 || !s.HasDP {
		return 0, false
	}

	altCount := float64(sum(s.AO))
	refCount := float64(s.DP) - altCount

	refQual := perBaseQuality(s.QR, refCount)
	altQual := perBaseQuality(s.QA, altCount)

	if refQual == 0 && altQual == 0 {
		return 0, true
	}
	return (refQual - altQual) / max(refQual, altQual) * 100.0, true
}

// PercentADDeviation is the alternate allele-depth deviation used in filter
// exploration: the absolute distance between the observed alternate-allele
// fraction and its expected value (0.5 heterozygous, 1.0 otherwise), with
// counts reconstructed from AO and DP.
//
// Missing when GT, AO, or DP is absent, or the reconstructed total count is
// not positive.
func PercentADDeviation(s *vcf.Sample) (float64, bool, error) {
	if s == nil || len(s.AO) == 0 || !s.HasDP {
		return 0, false, nil
	}
	zyg, ok, err := ParseGenotype(s.GT)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}

	altCount := float64(sum(s.AO))
	refCount := float64(s.DP) - altCount
	total := altCount + refCount
	if total <= 0 {
		return 0, false, nil
	}

	expected := 1.0
	if zyg == Het {
		expected = 0.5
	}
	return abs(expected - altCount/total), true, nil
}

// perBaseQuality reduces a per-allele quality-sum field to a single per-base
// value: multi-allelic fields are summed, a scalar field is the total for
// its allele and is divided by the allele count. Zero or negative counts
// yield 0.
func perBaseQuality(quals []int, count float64) float64 {
	if len(quals) > 1 {
		return float64(sum(quals))
	}
	if count <= 0 {
		return 0
	}
	return float64(quals[0]) / count
}

func sum(vals []int) int {
	total := 0
	for _, v := range vals {
		total += v
	}
	return total
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
