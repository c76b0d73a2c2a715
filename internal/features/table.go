// Package features assembles labeled per-record metric tables for
// downstream classifier training.
package features

// Cell is one metric value in a row. Missing cells stay missing until an
// explicit post-processing step fills them; no NaN is ever stored. Value is
// what consumers read and what post-processing rewrites; Raw keeps the value
// as appended so column scaling can be recomputed after rows are added.
type Cell struct {
	Value   float64
	Raw     float64
	Missing bool
}

// Row is one record's worth of metrics plus its training label. The target
// is fixed at creation and never mutated: +1 for validated true positives,
// -1 for false positives (other values may mark mislabel candidates).
type Row struct {
	Cells  []Cell
	Target int
	Indel  bool
}

// Table is an insertion-ordered labeled feature table. Rows are appended in
// source-stream order, one per processed record.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given metric columns.
func NewTable(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Append adds one row. The cell slice must align with Columns. Each cell's
// appended value is captured as its raw value, the basis for any later
// rescaling.
func (t *Table) Append(cells []Cell, target int, indel bool) {
	for i := range cells {
		cells[i].Raw = cells[i].Value
	}
	t.Rows = append(t.Rows, Row{Cells: cells, Target: target, Indel: indel})
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// MinMaxScale rescales every column to [0, 1] using the column's observed
// min and max across the full table. The scaled values are derived from the
// raw values each call, never from a previous scaling, so the scale can be
// recomputed after rows are appended. Missing cells are ignored both when
// computing the bounds and when scaling; columns with a single distinct
// value keep their raw values rather than divide by zero.
func (t *Table) MinMaxScale() {
	for col := range t.Columns {
		lo, hi, any := t.columnBounds(col)
		for i := range t.Rows {
			cell := &t.Rows[i].Cells[col]
			if cell.Missing {
				continue
			}
			if !any || hi == lo {
				cell.Value = cell.Raw
				continue
			}
			cell.Value = (cell.Raw - lo) / (hi - lo)
		}
	}
}

// FillMissing replaces each missing cell with its column's mean over the
// non-missing raw values. Filled cells take the mean as their raw value too,
// so a later rescale treats them like any observed value. Columns with no
// values at all are left untouched.
func (t *Table) FillMissing() {
	for col := range t.Columns {
		total, n := 0.0, 0
		for i := range t.Rows {
			cell := t.Rows[i].Cells[col]
			if !cell.Missing {
				total += cell.Raw
				n++
			}
		}
		if n == 0 {
			continue
		}
		mean := total / float64(n)
		for i := range t.Rows {
			cell := &t.Rows[i].Cells[col]
			if cell.Missing {
				cell.Value = mean
				cell.Raw = mean
				cell.Missing = false
			}
		}
	}
}

func (t *Table) columnBounds(col int) (lo, hi float64, any bool) {
	for i := range t.Rows {
		cell := t.Rows[i].Cells[col]
		if cell.Missing {
			continue
		}
		if !any || cell.Raw < lo {
			lo = cell.Raw
		}
		if !any || cell.Raw > hi {
			hi = cell.Raw
		}
		any = true
	}
	return lo, hi, any
}
