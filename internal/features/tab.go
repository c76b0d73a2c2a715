package features

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// missingToken is the placeholder written for missing cells.
const missingToken = "NA"

// TabWriter writes a feature table in tab-delimited format.
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited table writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// WriteTable writes the header line followed by every row.
func (tw *TabWriter) WriteTable(t *Table) error {
	columns := append(append([]string{}, t.Columns...), "target", "indel")
	if _, err := tw.w.WriteString(strings.Join(columns, "\t") + "\n"); err != nil {
		return err
	}

	fields := make([]string, 0, len(columns))
	for _, row := range t.Rows {
		fields = fields[:0]
		for _, cell := range row.Cells {
			if cell.Missing {
				fields = append(fields, missingToken)
			} else {
				fields = append(fields, strconv.FormatFloat(cell.Value, 'g', -1, 64))
			}
		}
		fields = append(fields, strconv.Itoa(row.Target))
		indel := "0"
		if row.Indel {
			indel = "1"
		}
		fields = append(fields, indel)

		if _, err := tw.w.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return err
		}
	}

	return nil
}

// Flush flushes buffered output.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
