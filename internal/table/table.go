package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column is a named sequence of raw cell values. Cells keep the text the
// loader read; typed views are derived on demand.
type Column struct {
	Name   string
	Unit   string
	Values []string
	// Format controls numeric parsing of the cells. Zero value auto-detects.
	Format NumberFormat
}

// Len returns the number of cells, missing included.
func (c *Column) Len() int { return len(c.Values) }

// Missing counts cells treated as missing.
func (c *Column) Missing() int {
	n := 0
	for _, v := range c.Values {
		if IsMissing(v) {
			n++
		}
	}
	return n
}

// Floats returns the numeric view of the column with NaN for missing or
// unparseable cells, so positions stay aligned with other columns.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if IsMissing(v) {
			out[i] = math.NaN()
			continue
		}
		f, ok := ParseNumber(v, c.Format)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		out[i] = f
	}
	return out
}

// Present reports whether row i holds a non-missing value.
func (c *Column) Present(i int) bool {
	return i >= 0 && i < len(c.Values) && !IsMissing(c.Values[i])
}

// Table is an ordered set of uniquely named columns of equal length.
// The engine only reads it.
type Table struct {
	Name  string
	cols  []*Column
	index map[string]int
	rows  int
}

// New validates and assembles a table from columns.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
			c.Name = name
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate column name: %s", name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %s has %d rows, want %d", name, c.Len(), t.rows)
		}
		t.index[name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is New for fixtures and literals known to be valid.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a table from a header and row-major records. Short
// rows are padded with empty (missing) cells, long rows are truncated.
func FromRecords(header []string, records [][]string) (*Table, error) {
	cols := make([]*Column, len(header))
	seen := map[string]int{}
	for i, h := range header {
		clean, unit := splitUnits(h)
		if clean == "" {
			clean = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[clean]; n > 0 {
			seen[clean] = n + 1
			clean = fmt.Sprintf("%s_%d", clean, n+1)
		} else {
			seen[clean] = 1
		}
		cols[i] = &Column{Name: clean, Unit: unit, Values: make([]string, 0, len(records))}
	}
	for _, rec := range records {
		for j := range cols {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			cols[j].Values = append(cols[j].Values, v)
		}
	}
	return New(cols...)
}

// NumericColumn builds a column from floats; NaN cells become missing.
func NumericColumn(name string, vals []float64) *Column {
	out := make([]string, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return &Column{Name: name, Values: out}
}

// TextColumn builds a column from raw cells.
func TextColumn(name string, vals ...string) *Column {
	return &Column{Name: name, Values: append([]string(nil), vals...)}
}

func (t *Table) Rows() int { return t.rows }

func (t *Table) Width() int { return len(t.cols) }

// Columns returns the columns in table order.
func (t *Table) Columns() []*Column { return t.cols }

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Index returns the position of name in table order, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Names returns column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Head returns up to n rows for previews.
func (t *Table) Head(n int) [][]string {
	if n > t.rows {
		n = t.rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.cols))
		for j, c := range t.cols {
			row[j] = c.Values[i]
		}
		out[i] = row
	}
	return out
}
