// Package metrics derives per-record numeric quality signals from the
// per-sample FORMAT values of a variant call.
package metrics

import "fmt"

// Zygosity is the normalized genotype call. Every metric that branches on
// genotype consumes this closed type instead of comparing raw strings.
type Zygosity int

const (
	HomRef Zygosity = iota // homozygous reference ("0", "0/0")
	Het                    // heterozygous ("0/1")
	HomAlt                 // homozygous alternate ("1", "1/1")
)

// String returns a short human-readable name.
func (z Zygosity) String() string {
	switch z {
	case HomRef:
		return "hom-ref"
	case Het:
		return "het"
	case HomAlt:
		return "hom-alt"
	}
	return fmt.Sprintf("Zygosity(%d)", int(z))
}

// UnsupportedGenotypeError reports a genotype string outside the recognized
// set. It is a hard failure for the record, not a missing value: an
// unrecognized call means the record cannot be scored meaningfully.
type UnsupportedGenotypeError struct {
	Genotype string
}

func (e *UnsupportedGenotypeError) Error() string {
	return fmt.Sprintf("unsupported genotype %q", e.Genotype)
}

// ParseGenotype normalizes a genotype string into a Zygosity. An absent
// genotype ("" or ".") returns ok=false and no error: metrics depending on
// genotype report missing. Any other unrecognized string returns an
// UnsupportedGenotypeError.
func ParseGenotype(gt string) (Zygosity, bool, error) {
	switch gt {
	case "", ".", "./.", ".|.":
		return 0, false, nil
	case "0", "0/0", "0|0":
		return HomRef, true, nil
	case "1", "1/1", "1|1":
		return HomAlt, true, nil
	case "0/1", "0|1", "1/0", "1|0":
		return Het, true, nil
	}
	return 0, false, &UnsupportedGenotypeError{Genotype: gt}
}
