// Package partition splits a full variant-call file into validated
// true-positive and false-positive subsets by coordinate matching against a
// truth index, and flags mislabeled records in existing training sets.
package partition

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/seqtools/varval/internal/truth"
)

// Outputs maps each label to the stream receiving its matched records.
type Outputs map[truth.Label]io.Writer

// Stats summarizes one partitioning pass.
type Stats struct {
	Records int                 // data lines read
	Headers int                 // header lines copied to every output
	Matched map[truth.Label]int // records routed per label
	Dropped int                 // data lines matching no label
}

// Partitioner routes variant-call records by truth-index membership.
// A Partitioner is stateless between passes; the truth index it consumes
// is not, so each index supports exactly one Partition call.
type Partitioner struct {
	logger *zap.Logger
}

// New creates a Partitioner with logging disabled.
func New() *Partitioner {
	return &Partitioner{logger: zap.NewNop()}
}

// SetLogger sets the logger for pass summaries and warnings.
func (p *Partitioner) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Partition streams the full call set once, writing each data line verbatim
// to the output of every label whose truth set contains its coordinate.
// Header lines (prefix '#') are copied to all outputs. Matched coordinates
// are removed from the index as they are consumed, so a coordinate routes at
// most one record per label.
//
// Partition takes exclusive ownership of ix and returns it as the residual
// index: the coordinates left in it had no corresponding record in the call
// set and are the candidate false negatives. The index must not be reused
// for another pass.
func (p *Partitioner) Partition(in io.Reader, ix *truth.Index, outs Outputs) (*truth.Index, Stats, error) {
	stats := Stats{Matched: map[truth.Label]int{}}

	writers := make(map[truth.Label]*bufio.Writer, len(outs))
	for label, w := range outs {
		writers[label] = bufio.NewWriter(w)
	}

	scanner := newLineScanner(in)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			stats.Headers++
			for _, w := range writers {
				if err := writeLine(w, line); err != nil {
					return nil, stats, err
				}
			}
			continue
		}

		key, err := truth.ParseKey(line)
		if err != nil {
			return nil, stats, fmt.Errorf("call set line %d: %w", lineNum, err)
		}
		stats.Records++

		// Each label is tested independently; consumption keeps a
		// coordinate from routing more than one record per label.
		matched := false
		for _, label := range truth.Labels {
			if !ix.Take(label, key) {
				continue
			}
			matched = true
			stats.Matched[label]++
			if w, ok := writers[label]; ok {
				if err := writeLine(w, line); err != nil {
					return nil, stats, err
				}
			}
		}
		if !matched {
			stats.Dropped++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("read call set: %w", err)
	}

	for _, w := range writers {
		if err := w.Flush(); err != nil {
			return nil, stats, fmt.Errorf("flush partition output: %w", err)
		}
	}

	p.logger.Info("partition pass complete",
		zap.Int("records", stats.Records),
		zap.Int("headers", stats.Headers),
		zap.Int("matched_tp", stats.Matched[truth.TruePositive]),
		zap.Int("matched_fp", stats.Matched[truth.FalsePositive]),
		zap.Int("dropped", stats.Dropped),
		zap.Int("residual_tp", ix.Len(truth.TruePositive)),
		zap.Int("residual_fp", ix.Len(truth.FalsePositive)))

	return ix, stats, nil
}

// FlagMislabeled scans a candidate training file and writes every record
// whose coordinate appears in the index under the given label. Passing the
// opposite of the file's nominal label flags records the training pipeline
// labeled incorrectly. Header lines are copied through. The index is only
// read, never consumed, so one index can back several scans.
func (p *Partitioner) FlagMislabeled(in io.Reader, ix *truth.Index, label truth.Label, out io.Writer) (int, error) {
	w := bufio.NewWriter(out)
	flagged := 0

	scanner := newLineScanner(in)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if err := writeLine(w, line); err != nil {
				return flagged, err
			}
			continue
		}

		key, err := truth.ParseKey(line)
		if err != nil {
			return flagged, fmt.Errorf("training file line %d: %w", lineNum, err)
		}
		if ix.Has(label, key) {
			flagged++
			if err := writeLine(w, line); err != nil {
				return flagged, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return flagged, fmt.Errorf("read training file: %w", err)
	}

	if err := w.Flush(); err != nil {
		return flagged, fmt.Errorf("flush mislabeled output: %w", err)
	}

	p.logger.Info("mislabeled scan complete",
		zap.String("against", label.String()),
		zap.Int("flagged", flagged))

	return flagged, nil
}

// ExplainResiduals matches a residual (false-negative candidate) coordinate
// set against one more call file: matching records are written out, matched
// coordinates are removed from the set, and the shrunken set is returned so
// further files can be tried. Coordinates still present after every file has
// been scanned have no explanation in any of them.
func (p *Partitioner) ExplainResiduals(coords truth.KeySet, in io.Reader, out io.Writer) (truth.KeySet, error) {
	w := bufio.NewWriter(out)
	matched := 0

	scanner := newLineScanner(in)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if err := writeLine(w, line); err != nil {
				return coords, err
			}
			continue
		}

		key, err := truth.ParseKey(line)
		if err != nil {
			return coords, fmt.Errorf("call file line %d: %w", lineNum, err)
		}
		if _, ok := coords[key]; ok {
			matched++
			delete(coords, key)
			if err := writeLine(w, line); err != nil {
				return coords, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return coords, fmt.Errorf("read call file: %w", err)
	}

	if err := w.Flush(); err != nil {
		return coords, fmt.Errorf("flush explanation output: %w", err)
	}

	p.logger.Info("residual explanation pass complete",
		zap.Int("matched", matched),
		zap.Int("unexplained", len(coords)))

	return coords, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return scanner
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
