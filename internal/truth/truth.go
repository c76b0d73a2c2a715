// Package truth builds coordinate indexes from validated variant-call files.
//
// A validation file is a line-oriented call file where the final
// tab-separated token records the validation outcome: "0" marks a call
// validated as a false positive, anything else as a true positive.
package truth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Label identifies one of the two validation outcomes.
type Label int

const (
	TruePositive Label = iota
	FalsePositive
)

// String returns the short name used in logs and output file naming.
func (l Label) String() string {
	if l == FalsePositive {
		return "fp"
	}
	return "tp"
}

// Opposite returns the other label.
func (l Label) Opposite() Label {
	if l == FalsePositive {
		return TruePositive
	}
	return FalsePositive
}

// Labels lists both labels in a fixed order, for deterministic iteration.
var Labels = []Label{TruePositive, FalsePositive}

// Key identifies a genomic locus. Equality is exact tuple equality; no
// chromosome-name normalization is applied, so files compared against each
// other must agree on naming ("chr1" vs "1" is the caller's problem).
type Key struct {
	Chrom string
	Pos   int64
}

// String formats the key as chrom:pos.
func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Chrom, k.Pos)
}

// ParseKey extracts the coordinate key from the first two tab-separated
// fields of a call-file data line.
func ParseKey(line string) (Key, error) {
	fields := strings.SplitN(line, "\t", 3)
	if len(fields) < 2 {
		return Key{}, fmt.Errorf("expected at least 2 tab-separated fields, found %d", len(fields))
	}
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid position %q: %w", fields[1], err)
	}
	return Key{Chrom: fields[0], Pos: pos}, nil
}

// Index holds the validated coordinates per label. It is built once and
// then handed to a single partitioning pass, which consumes matched
// coordinates; it is not safe for concurrent passes.
type Index struct {
	sets      map[Label]map[Key]struct{}
	conflicts int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		sets: map[Label]map[Key]struct{}{
			TruePositive:  make(map[Key]struct{}),
			FalsePositive: make(map[Key]struct{}),
		},
	}
}

// Add inserts a coordinate under the given label.
func (ix *Index) Add(label Label, key Key) {
	ix.sets[label][key] = struct{}{}
}

// Has reports whether the coordinate is present under the given label.
func (ix *Index) Has(label Label, key Key) bool {
	_, ok := ix.sets[label][key]
	return ok
}

// Take removes the coordinate from the label's set, reporting whether it
// was present. Partitioning uses this for at-most-once consumption.
func (ix *Index) Take(label Label, key Key) bool {
	if _, ok := ix.sets[label][key]; !ok {
		return false
	}
	delete(ix.sets[label], key)
	return true
}

// Len returns the number of coordinates under the given label.
func (ix *Index) Len(label Label) int {
	return len(ix.sets[label])
}

// Keys returns the coordinates under the given label, in no particular order.
func (ix *Index) Keys(label Label) []Key {
	keys := make([]Key, 0, len(ix.sets[label]))
	for k := range ix.sets[label] {
		keys = append(keys, k)
	}
	return keys
}

// Conflicts returns the number of coordinates the validation file listed
// under both labels. Such coordinates are contradictory evidence and are
// excluded from both sets at build time.
func (ix *Index) Conflicts() int {
	return ix.conflicts
}

// Load builds an index from a validation file on disk.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open validation file: %w", err)
	}
	defer f.Close()

	ix, err := Build(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ix, nil
}

// Build reads validated-call lines and indexes each coordinate under its
// validation outcome. Header/comment lines (prefix '#') are skipped. A data
// line that does not yield a coordinate aborts the build: silently dropped
// lines would corrupt the truth index.
func Build(r io.Reader) (*Index, error) {
	ix := NewIndex()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, err := ParseKey(line)
		if err != nil {
			return nil, fmt.Errorf("validation line %d: %w", lineNum, err)
		}

		fields := strings.Split(strings.TrimRight(line, " \t"), "\t")
		if fields[len(fields)-1] == "0" {
			ix.Add(FalsePositive, key)
		} else {
			ix.Add(TruePositive, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read validation file: %w", err)
	}

	// A coordinate validated both ways is contradictory; drop it from
	// both sets so partitioning never routes one record to both streams.
	for key := range ix.sets[TruePositive] {
		if _, ok := ix.sets[FalsePositive][key]; ok {
			delete(ix.sets[TruePositive], key)
			delete(ix.sets[FalsePositive], key)
			ix.conflicts++
		}
	}

	return ix, nil
}

// KeySet is a standalone coordinate set, used for the false-negative
// explanation pass where only one side of the labeling is relevant.
type KeySet map[Key]struct{}

// LoadKeySet reads every data-line coordinate of a call file into a set.
func LoadKeySet(r io.Reader) (KeySet, error) {
	set := make(KeySet)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, err := ParseKey(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		set[key] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read call file: %w", err)
	}
	return set, nil
}
