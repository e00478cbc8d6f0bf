// Package gaia turns a raw VizieR Gaia DR2 table into the typed, quality-filtered table used
// for HR diagrams.
package gaia

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iafilius/ClusterHR/src/logx"
	"github.com/iafilius/ClusterHR/src/vizier"
)

// Gaia DR2 (I/345/gaia2) column names.
const (
	ColTeff   = "Teff"
	ColBPRP   = "BP-RP"
	ColBPG    = "BP-G"
	ColGmag   = "Gmag"
	ColGRP    = "G-RP"
	ColLum    = "Lum"
	ColPlx    = "Plx"
	ColEPlx   = "e_Plx"
	ColPlxSNR = "Plx/e_Plx"
)

// RequiredColumns are projected by Adapt, in this order.
var RequiredColumns = []string{ColTeff, ColBPRP, ColBPG, ColGmag, ColGRP, ColLum, ColPlx, ColEPlx}

// ErrMissingColumn matches every *MissingColumnError.
var ErrMissingColumn = errors.New("missing column")

// MissingColumnError lists required columns absent from a table.
type MissingColumnError struct {
	Table   string
	Missing []string
}

func (e *MissingColumnError) Error() string {
	where := ""
	if e.Table != "" {
		where = " in " + e.Table
	}
	return fmt.Sprintf("missing column%s: %s", where, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }

// Table is a columnar numeric table. Every row remembers its index in the source table,
// so filtered tables can be traced back to fetched rows.
type Table struct {
	columns []string
	data    map[string][]float64
	source  []int
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{data: make(map[string][]float64, len(columns))}
	for _, c := range columns {
		if _, dup := t.data[c]; dup {
			continue
		}
		t.columns = append(t.columns, c)
		t.data[c] = nil
	}
	return t
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.source)
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.columns...)
}

func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.data[name]
	return ok
}

// Column returns the values of one column. The slice is shared; callers must not modify it.
func (t *Table) Column(name string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.data[name]
	return v, ok
}

// SourceIndex returns the source row index of row i.
func (t *Table) SourceIndex(i int) int { return t.source[i] }

// SourceIndices returns a copy of all source row indices in order.
func (t *Table) SourceIndices() []int { return append([]int(nil), t.source...) }

// Value returns a single cell.
func (t *Table) Value(row int, name string) (float64, bool) {
	col, ok := t.Column(name)
	if !ok || row < 0 || row >= len(col) {
		return math.NaN(), false
	}
	return col[row], true
}

// AppendRow adds a row. values must hold one entry per column in column order.
func (t *Table) AppendRow(source int, values ...float64) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("append row: got %d values for %d columns", len(values), len(t.columns))
	}
	for i, c := range t.columns {
		t.data[c] = append(t.data[c], values[i])
	}
	t.source = append(t.source, source)
	return nil
}

// AddColumn appends (or replaces) a column; values must match the row count.
func (t *Table) AddColumn(name string, values []float64) error {
	if len(values) != t.Len() {
		return fmt.Errorf("add column %s: got %d values for %d rows", name, len(values), t.Len())
	}
	if _, ok := t.data[name]; !ok {
		t.columns = append(t.columns, name)
	}
	t.data[name] = values
	return nil
}

// DropColumn removes a column if present.
func (t *Table) DropColumn(name string) {
	if _, ok := t.data[name]; !ok {
		return
	}
	delete(t.data, name)
	out := t.columns[:0]
	for _, c := range t.columns {
		if c != name {
			out = append(out, c)
		}
	}
	t.columns = out
}

// Select returns a new table holding the given rows, in the given order.
func (t *Table) Select(rows []int) *Table {
	out := NewTable(t.columns...)
	out.source = make([]int, 0, len(rows))
	for _, c := range t.columns {
		out.data[c] = make([]float64, 0, len(rows))
	}
	for _, r := range rows {
		for _, c := range t.columns {
			out.data[c] = append(out.data[c], t.data[c][r])
		}
		out.source = append(out.source, t.source[r])
	}
	return out
}

// Row returns row i as a column->value map.
func (t *Table) Row(i int) map[string]float64 {
	m := make(map[string]float64, len(t.columns))
	for _, c := range t.columns {
		m[c] = t.data[c][i]
	}
	return m
}

// Adapt projects the eight Gaia columns out of a raw VizieR table. Blank or non-numeric cells
// become NaN. If any required column is absent a *MissingColumnError is returned and no
// partial table is built.
func Adapt(raw *vizier.Table) (*Table, error) {
	if raw == nil {
		return nil, &MissingColumnError{Missing: append([]string(nil), RequiredColumns...)}
	}
	idx := make([]int, len(RequiredColumns))
	var missing []string
	for i, name := range RequiredColumns {
		idx[i] = raw.ColumnIndex(name)
		if idx[i] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Table: raw.Name, Missing: missing}
	}

	t := NewTable(RequiredColumns...)
	for c := range t.data {
		t.data[c] = make([]float64, 0, raw.Len())
	}
	t.source = make([]int, 0, raw.Len())
	bad := 0
	vals := make([]float64, len(RequiredColumns))
	for r, row := range raw.Rows {
		for i, ci := range idx {
			cell := ""
			if ci < len(row) {
				cell = row[ci]
			}
			v, ok := parseCell(cell)
			if !ok {
				bad++
			}
			vals[i] = v
		}
		if err := t.AppendRow(r, vals...); err != nil {
			return nil, err
		}
	}
	if bad > 0 {
		logx.Debugf("adapt %s: %d blank or non-numeric cells read as NaN", raw.Name, bad)
	}
	return t, nil
}

func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), false
	}
	return v, true
}
