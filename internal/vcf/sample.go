// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"strconv"
	"strings"
)

// Sample holds the per-sample FORMAT values of one record. Fields that can
// be lists in the file (multi-allelic AD, PL, AO, QR, QA) are always stored
// as sequences, even when the file carries a single scalar, so consumers
// never branch on list-vs-scalar. A nil slice or false Has flag means the
// field was absent (or "."), which is distinct from a literal zero.
type Sample struct {
	GT    string // genotype string ("0", "1", "0/1", ...), "" when absent
	AD    []int  // allele depths, ordered (ref, alt, ...)
	PL    []int  // phred-scaled genotype likelihoods [hom-ref, het, hom-alt, ...]
	AO    []int  // per-alternate-allele observation counts
	QR    []int  // per-reference-allele quality sums
	QA    []int  // per-alternate-allele quality sums
	DP    int    // read depth
	HasDP bool
}

// parseSamples parses the FORMAT column and sample columns of a record.
// Unparseable numeric entries are treated as absent; a metric depending on
// them reports missing rather than failing the whole file.
func parseSamples(format string, columns []string) []Sample {
	keys := strings.Split(format, ":")
	samples := make([]Sample, len(columns))

	for i, col := range columns {
		values := strings.Split(col, ":")
		s := &samples[i]

		for j, key := range keys {
			if j >= len(values) {
				break // trailing fields may be dropped per VCF spec
			}
			val := values[j]
			if val == "." || val == "" {
				continue
			}

			switch key {
			case "GT":
				s.GT = val
			case "AD":
				s.AD = parseIntList(val)
			case "PL":
				s.PL = parseIntList(val)
			case "AO":
				s.AO = parseIntList(val)
			case "QR":
				s.QR = parseIntList(val)
			case "QA":
				s.QA = parseIntList(val)
			case "DP":
				if n, err := strconv.Atoi(val); err == nil {
					s.DP = n
					s.HasDP = true
				}
			}
		}
	}

	return samples
}

// parseIntList parses a comma-separated integer field into a sequence.
// Returns nil when no entry parses cleanly.
func parseIntList(val string) []int {
	parts := strings.Split(val, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "." {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			// Some callers emit floats for quality sums; keep the
			// truncated value rather than dropping the field.
			f, ferr := strconv.ParseFloat(p, 64)
			if ferr != nil {
				return nil
			}
			n = int(f)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
